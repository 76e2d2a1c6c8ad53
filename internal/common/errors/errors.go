// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"renovation-estimator/internal/estimator"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeEstimateInvalidInput  ErrorCode = "ESTIMATE_INVALID_INPUT"
	ErrCodeEstimateConfiguration ErrorCode = "ESTIMATE_CONFIGURATION_ERROR"
	ErrCodeEstimateTimeout       ErrorCode = "ESTIMATE_TIMEOUT"
	ErrCodeInputSchemaInvalid    ErrorCode = "INPUT_SCHEMA_VALIDATION_FAILED"
	ErrCodeRateCardLoadFailed    ErrorCode = "RATE_CARD_LOAD_FAILED"

	ErrCodeCacheUnavailable ErrorCode = "ESTIMATE_CACHE_UNAVAILABLE"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeDuplicateEstimate        ErrorCode = "DUPLICATE_ESTIMATE"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchIndexFailed             ErrorCode = "SEARCH_INDEX_FAILED"
	ErrCodeIndexNotFound                 ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInvalidRecipient       ErrorCode = "INVALID_RECIPIENT"

	ErrCodeBrokerUnavailable ErrorCode = "BROKER_UNAVAILABLE"
	ErrCodeBrokerTimeout     ErrorCode = "BROKER_TIMEOUT"
	ErrCodeBrokerRejected    ErrorCode = "BROKER_REJECTED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key to the error and returns it for chaining.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func NewEstimateInvalidInputError(details string) *StandardError {
	return newError(ErrCodeEstimateInvalidInput, "Renovation survey input is invalid", details, false)
}

func NewEstimateConfigurationError(details string) *StandardError {
	return newError(ErrCodeEstimateConfiguration, "No multiplier configured for a submitted label", details, false)
}

// NewEstimateTimeoutError creates a retryable timeout for a calculation that ran past its deadline.
func NewEstimateTimeoutError(err error) *StandardError {
	return newError(ErrCodeEstimateTimeout, "Estimate calculation timeout", err.Error(), true)
}

func NewInputSchemaInvalidError(details string) *StandardError {
	return newError(ErrCodeInputSchemaInvalid, "Job variables do not match the input schema", details, false)
}

func NewRateCardLoadFailedError(path string, err error) *StandardError {
	return newError(ErrCodeRateCardLoadFailed, "Rate card could not be loaded",
		fmt.Sprintf("path: %s, error: %s", path, err.Error()), false)
}

func NewCacheUnavailableError(err error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Estimate cache unavailable", err.Error(), true)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true)
}

func NewQueryTimeoutError(operation string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout", fmt.Sprintf("operation: %s", operation), true)
}

func NewDuplicateEstimateError(estimateID string) *StandardError {
	return newError(ErrCodeDuplicateEstimate, "Estimate already exists", fmt.Sprintf("estimateId: %s", estimateID), false)
}

func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeElasticsearchConnectionFailed, "Elasticsearch connection error", err.Error(), true)
}

func NewSearchIndexFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchIndexFailed, "Elasticsearch index request failed",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

func NewIndexNotFoundError(indexName string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Elasticsearch index not found", fmt.Sprintf("indexName: %s", indexName), false)
}

func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()), true)
}

func NewInvalidRecipientError(details string) *StandardError {
	return newError(ErrCodeInvalidRecipient, "Notification recipient is invalid", details, false)
}

func NewBrokerUnavailableError(operation string, err error) *StandardError {
	return newError(ErrCodeBrokerUnavailable, "Zeebe broker unavailable",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

func NewBrokerTimeoutError(operation string, err error) *StandardError {
	return newError(ErrCodeBrokerTimeout, "Zeebe request timeout",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

// NewBrokerRejectedError covers requests the broker refused, such as an unknown
// job key or a permission failure. Repeating them will not help.
func NewBrokerRejectedError(operation string, err error) *StandardError {
	return newError(ErrCodeBrokerRejected, "Zeebe rejected the request",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), false)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// FromEstimatorError maps an engine error onto the worker error codes.
// Errors that are already StandardErrors pass through unchanged.
func FromEstimatorError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}

	switch {
	case stderrors.Is(err, estimator.ErrInvalidInput):
		return NewEstimateInvalidInputError(err.Error()).WithMetadata("fields", invalidFields(err))
	case stderrors.Is(err, estimator.ErrConfiguration):
		return NewEstimateConfigurationError(err.Error())
	case stderrors.Is(err, context.DeadlineExceeded):
		return NewEstimateTimeoutError(err)
	default:
		return NewInternalError(err)
	}
}

func invalidFields(err error) []string {
	var fields []string
	for _, e := range estimator.Flatten(err) {
		var inputErr *estimator.InvalidInputError
		if stderrors.As(e, &inputErr) {
			fields = append(fields, inputErr.Field)
		}
	}
	return fields
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the codes modelled on BPMN boundary events.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeEstimateInvalidInput:          "ESTIMATE_INVALID_INPUT",
	ErrCodeEstimateConfiguration:         "ESTIMATE_CONFIGURATION_ERROR",
	ErrCodeEstimateTimeout:               "ESTIMATE_TIMEOUT",
	ErrCodeInputSchemaInvalid:            "ESTIMATE_INVALID_INPUT",
	ErrCodeRateCardLoadFailed:            "ESTIMATE_CONFIGURATION_ERROR",
	ErrCodeCacheUnavailable:              "ESTIMATE_CACHE_UNAVAILABLE",
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeDatabaseInsertFailed:          "DATABASE_INSERT_FAILED",
	ErrCodeQueryTimeout:                  "QUERY_TIMEOUT",
	ErrCodeDuplicateEstimate:             "DUPLICATE_ESTIMATE",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeSearchIndexFailed:             "SEARCH_INDEX_FAILED",
	ErrCodeIndexNotFound:                 "INDEX_NOT_FOUND",
	ErrCodeNotificationSendFailed:        "NOTIFICATION_SEND_FAILED",
	ErrCodeInvalidRecipient:              "INVALID_RECIPIENT",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCacheUnavailable,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchIndexFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeEstimateTimeout,
		ErrCodeBrokerUnavailable,
		ErrCodeBrokerTimeout:
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	if fields, ok := stdErr.Metadata["fields"]; ok {
		vars["invalidFields"] = fields
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "BROKER"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "DUPLICATE"):
		return "DATABASE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "RECIPIENT"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "CONFIGURATION") || strings.Contains(codeStr, "RATE_CARD"):
		return "PRICING"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
