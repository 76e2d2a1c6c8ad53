// internal/models/estimate.go
package models

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"renovation-estimator/internal/estimator"
)

// EstimateRecord is one row of the estimates table.
type EstimateRecord struct {
	ID              string         `json:"id" db:"id"`
	PricingVersion  string         `json:"pricingVersion" db:"pricing_version"`
	Currency        string         `json:"currency" db:"currency"`
	Subtotal        float64        `json:"subtotal" db:"subtotal"`
	Total           float64        `json:"total" db:"total"`
	RoomCount       int            `json:"roomCount" db:"room_count"`
	Location        string         `json:"location" db:"location"`
	City            sql.NullString `json:"-" db:"city"`
	ProcessInstance int64          `json:"processInstance,omitempty" db:"process_instance"`
	Document        []byte         `json:"-" db:"document"`
	CreatedAt       time.Time      `json:"createdAt" db:"created_at"`
}

// StoredEstimate is the JSON document kept alongside the headline columns.
type StoredEstimate struct {
	Project  estimator.ProjectInput    `json:"project"`
	Estimate *estimator.EstimateResult `json:"estimate"`
}

func NewEstimateRecord(id string, project estimator.ProjectInput, result *estimator.EstimateResult, processInstance int64, createdAt time.Time) (*EstimateRecord, error) {
	if result == nil {
		return nil, fmt.Errorf("estimate record %s: nil estimate", id)
	}
	doc, err := json.Marshal(StoredEstimate{Project: project, Estimate: result})
	if err != nil {
		return nil, fmt.Errorf("estimate record %s: marshal document: %w", id, err)
	}
	return &EstimateRecord{
		ID:              id,
		PricingVersion:  result.PricingVersion,
		Currency:        result.Currency,
		Subtotal:        result.Subtotal,
		Total:           result.Total,
		RoomCount:       len(result.Rooms),
		Location:        project.Location,
		City:            sql.NullString{String: project.City, Valid: project.City != ""},
		ProcessInstance: processInstance,
		Document:        doc,
		CreatedAt:       createdAt.UTC(),
	}, nil
}

// EstimateDocument is the search-index view of an estimate.
type EstimateDocument struct {
	EstimateID     string    `json:"estimateId"`
	PricingVersion string    `json:"pricingVersion"`
	Currency       string    `json:"currency"`
	Location       string    `json:"location"`
	City           string    `json:"city,omitempty"`
	PropertyAge    string    `json:"propertyAge"`
	PropertyType   string    `json:"propertyType,omitempty"`
	RoomTypes      []string  `json:"roomTypes"`
	RoomCount      int       `json:"roomCount"`
	TotalArea      float64   `json:"totalArea"`
	Subtotal       float64   `json:"subtotal"`
	Total          float64   `json:"total"`
	TaxTotal       float64   `json:"taxTotal"`
	CreatedAt      time.Time `json:"createdAt"`
}

func NewEstimateDocument(id string, project estimator.ProjectInput, result *estimator.EstimateResult, createdAt time.Time) EstimateDocument {
	doc := EstimateDocument{
		EstimateID:     id,
		PricingVersion: result.PricingVersion,
		Currency:       result.Currency,
		Location:       project.Location,
		City:           project.City,
		PropertyAge:    project.PropertyAge,
		PropertyType:   project.PropertyType,
		RoomTypes:      make([]string, 0, len(result.Rooms)),
		RoomCount:      len(result.Rooms),
		Subtotal:       result.Subtotal,
		Total:          result.Total,
		TaxTotal:       result.Summary.TaxTotal,
		CreatedAt:      createdAt.UTC(),
	}
	seen := make(map[string]bool, len(result.Rooms))
	var area float64
	for _, r := range result.Rooms {
		area += r.Area
		if !seen[r.RoomType] {
			seen[r.RoomType] = true
			doc.RoomTypes = append(doc.RoomTypes, r.RoomType)
		}
	}
	doc.TotalArea = estimator.RoundCurrency(area)
	return doc
}
