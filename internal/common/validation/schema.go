// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateDocument checks document against a JSON schema given as a decoded map.
// An error is returned only when the schema itself cannot be used.
func ValidateDocument(schema map[string]interface{}, document interface{}) (*ValidationResult, error) {
	return validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(document))
}

// ValidateJSON is ValidateDocument for a raw JSON document such as job variables.
func ValidateJSON(schema map[string]interface{}, documentJSON string) (*ValidationResult, error) {
	return validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewStringLoader(documentJSON))
}

func validate(schemaLoader, documentLoader gojsonschema.JSONLoader) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if req, ok := desc.Details()["property"].(string); ok && desc.Type() == "required" {
			field = joinField(field, req)
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   normalizeField(field),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	sort.SliceStable(out.Errors, func(i, j int) bool {
		return out.Errors[i].Field < out.Errors[j].Field
	})
	return out, nil
}

const rootContext = "(root)"

func joinField(parent, child string) string {
	switch {
	case parent == "" || parent == rootContext:
		return child
	case parent == child || strings.HasSuffix(parent, "."+child):
		return parent
	}
	return parent + "." + child
}

var indexSegment = regexp.MustCompile(`\.(\d+)(\.|$)`)

// normalizeField turns gojsonschema paths like rooms.0.width into rooms[0].width.
func normalizeField(field string) string {
	if field == rootContext {
		return ""
	}
	for indexSegment.MatchString(field) {
		field = indexSegment.ReplaceAllString(field, "[$1]$2")
	}
	return field
}

// Add records an extra error found outside the schema.
func (vr *ValidationResult) Add(field, message, code string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message, Code: code})
}

func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		if err.Field == "" {
			messages[i] = err.Message
			continue
		}
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") || strings.HasPrefix(err.Field, field+"[") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}

var taskTypePattern = regexp.MustCompile(`^[a-z]+(-[a-z]+)+$`)

// ValidateTaskTypeNaming enforces kebab-case task types such as calculate-renovation-estimate.
func ValidateTaskTypeNaming(taskType string) error {
	if !taskTypePattern.MatchString(taskType) {
		return fmt.Errorf("task type must be lower-case words joined by hyphens (e.g. persist-renovation-estimate)")
	}
	return nil
}

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)
)

func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidatePhone accepts E.164 numbers, the format SNS requires for SMS.
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
