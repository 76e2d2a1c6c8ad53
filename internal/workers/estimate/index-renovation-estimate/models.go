// internal/workers/estimate/index-renovation-estimate/models.go
package indexrenovationestimate

import "renovation-estimator/internal/estimator"

type Input struct {
	EstimateID string                    `json:"estimateId"`
	Project    estimator.ProjectInput    `json:"project"`
	Estimate   *estimator.EstimateResult `json:"estimate"`
}

type Output struct {
	Indexed    bool   `json:"estimateIndexed"`
	IndexName  string `json:"indexName"`
	DocumentID string `json:"documentId"`
	Result     string `json:"indexResult,omitempty"` // "created" or "updated"
}
