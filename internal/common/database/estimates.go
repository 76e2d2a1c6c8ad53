// internal/common/database/estimates.go
package database

import (
	"context"
	"errors"
	"fmt"

	"renovation-estimator/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrDuplicateEstimate is returned when an estimate id is already stored.
var ErrDuplicateEstimate = errors.New("estimate already exists")

const uniqueViolation = "23505"

const insertEstimateQuery = `INSERT INTO estimates
	(id, pricing_version, currency, subtotal, total, room_count, location, city, process_instance, document, created_at)
VALUES
	(:id, :pricing_version, :currency, :subtotal, :total, :room_count, :location, :city, :process_instance, :document, :created_at)`

const getEstimateQuery = `SELECT id, pricing_version, currency, subtotal, total, room_count, location, city, process_instance, document, created_at
FROM estimates WHERE id = $1`

// EstimateStore reads and writes the estimates table.
type EstimateStore struct {
	db *sqlx.DB
}

func NewEstimateStore(db *sqlx.DB) *EstimateStore {
	return &EstimateStore{db: db}
}

func (s *EstimateStore) Insert(ctx context.Context, rec *models.EstimateRecord) error {
	if _, err := s.db.NamedExecContext(ctx, insertEstimateQuery, rec); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateEstimate, rec.ID)
		}
		return fmt.Errorf("insert estimate %s: %w", rec.ID, err)
	}
	return nil
}

func (s *EstimateStore) Get(ctx context.Context, id string) (*models.EstimateRecord, error) {
	var rec models.EstimateRecord
	if err := s.db.GetContext(ctx, &rec, getEstimateQuery, id); err != nil {
		return nil, fmt.Errorf("get estimate %s: %w", id, err)
	}
	return &rec, nil
}
