// internal/workers/estimate/persist-renovation-estimate/models.go
package persistrenovationestimate

import "renovation-estimator/internal/estimator"

type Input struct {
	// EstimateID is optional; when empty it is derived from the job's
	// process and element instance, so a retried job reuses the same id.
	EstimateID string                    `json:"estimateId,omitempty"`
	Project    estimator.ProjectInput    `json:"project"`
	Estimate   *estimator.EstimateResult `json:"estimate"`

	processInstance int64
	elementInstance int64
}

type Output struct {
	EstimateID  string `json:"estimateId"`
	PersistedAt string `json:"persistedAt"` // ISO 8601
	Duplicate   bool   `json:"estimateAlreadyStored"`
}
