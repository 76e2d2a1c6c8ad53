// internal/estimator/errors.go
package estimator

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration = errors.New("ESTIMATE_CONFIGURATION_ERROR")
	ErrInvalidInput  = errors.New("ESTIMATE_INVALID_INPUT")
)

// ConfigurationError reports a label that has no entry in its multiplier table.
// Field is the input path of the label when known, e.g. "rooms[1].roomType".
type ConfigurationError struct {
	Category string
	Label    string
	Field    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: no %s multiplier for label %q", e.Category, e.Label)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// InvalidInputError reports a field-level problem with the submitted project.
type InvalidInputError struct {
	Field   string
	Message string
}

func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Message)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field, format string, args ...interface{}) *InvalidInputError {
	return &InvalidInputError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Flatten expands errors combined with errors.Join into their leaves.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, inner := range joined.Unwrap() {
			out = append(out, Flatten(inner)...)
		}
		return out
	}
	return []error{err}
}
