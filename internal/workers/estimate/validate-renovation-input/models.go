// internal/workers/estimate/validate-renovation-input/models.go
package validaterenovationinput

import (
	"renovation-estimator/internal/common/validation"
	"renovation-estimator/internal/estimator"
)

type Input struct {
	Project estimator.ProjectInput `json:"project"`
}

type Output struct {
	InputValid       bool                         `json:"inputValid"`
	ValidationErrors []validation.ValidationError `json:"validationErrors"`
}

// Issue codes reported next to the JSON-schema codes.
const (
	CodeInvalidValue = "INVALID_VALUE"
	CodeUnknownLabel = "UNKNOWN_LABEL"
)
