// internal/workers/estimate/calculate-renovation-estimate/models.go
package calculaterenovationestimate

import "renovation-estimator/internal/estimator"

type Input struct {
	Project estimator.ProjectInput `json:"project"`
}

type Output struct {
	Estimate       *estimator.EstimateResult `json:"estimate"`
	EstimateTotal  float64                   `json:"estimateTotal"`
	FormattedTotal string                    `json:"estimateFormattedTotal"`
	Currency       string                    `json:"estimateCurrency"`
	PricingVersion string                    `json:"pricingVersion"`
	Cached         bool                      `json:"estimateCached"`
}
