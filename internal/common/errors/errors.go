// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Conversational outcomes. These never fail a job; they travel in the
// outcome status so a process can branch on them.
const (
	ErrCodeLookupFailed       ErrorCode = "LOOKUP_FAILED"
	ErrCodeItemNotFound       ErrorCode = "ITEM_NOT_FOUND"
	ErrCodeInvalidSelection   ErrorCode = "INVALID_SELECTION"
	ErrCodeUnrecognizedIntent ErrorCode = "UNRECOGNIZED_INTENT"
)

// Infrastructure failures.
const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout     ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound     ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeSessionStoreFailed ErrorCode = "SESSION_STORE_FAILED"
	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("StandardError[%s]: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
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

func newStandardError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewLookupFailedError reports a failed record-store fetch for entity.
func NewLookupFailedError(entity string, err error) *StandardError {
	return newStandardError(ErrCodeLookupFailed, fmt.Sprintf("Error fetching %s", entity), err.Error(), false, err)
}

func NewItemNotFoundError(hint string) *StandardError {
	return newStandardError(ErrCodeItemNotFound, "No matching item", fmt.Sprintf("hint: %s", hint), false, nil)
}

func NewInvalidSelectionError(index, max int) *StandardError {
	return newStandardError(ErrCodeInvalidSelection, "Selection out of range",
		fmt.Sprintf("index: %d, candidates: %d", index, max), false, nil)
}

func NewUnrecognizedIntentError(text string) *StandardError {
	return newStandardError(ErrCodeUnrecognizedIntent, "No intent matched", fmt.Sprintf("text: %s", text), false, nil)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newStandardError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true, err)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(table string, err error) *StandardError {
	return newStandardError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("table: %s, error: %s", table, err.Error()), true, err)
}

func NewQueryTimeoutError(table string) *StandardError {
	return newStandardError(ErrCodeQueryTimeout, "Database query timeout", fmt.Sprintf("table: %s", table), true, nil)
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newStandardError(ErrCodeSearchQueryFailed, "Search query error",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true, err)
}

func NewSearchTimeoutError(index string) *StandardError {
	return newStandardError(ErrCodeSearchTimeout, "Search query timeout", fmt.Sprintf("index: %s", index), true, nil)
}

func NewIndexNotFoundError(indexName string) *StandardError {
	return newStandardError(ErrCodeIndexNotFound, "Search index not found", fmt.Sprintf("indexName: %s", indexName), false, nil)
}

func NewSessionStoreFailedError(op string, err error) *StandardError {
	return newStandardError(ErrCodeSessionStoreFailed, "Session store error",
		fmt.Sprintf("op: %s, error: %s", op, err.Error()), true, err)
}

func NewInvalidInputError(details string) *StandardError {
	return newStandardError(ErrCodeInvalidInput, "Invalid job input", details, false, nil)
}

// ==========================
// 4. Mapping and Retry Policy
// ==========================

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeLookupFailed:             "LOOKUP_FAILED",
	ErrCodeItemNotFound:             "ITEM_NOT_FOUND",
	ErrCodeInvalidSelection:         "INVALID_SELECTION",
	ErrCodeUnrecognizedIntent:       "UNRECOGNIZED_INTENT",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:     "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:             "QUERY_TIMEOUT",
	ErrCodeSearchQueryFailed:        "SEARCH_QUERY_FAILED",
	ErrCodeSearchTimeout:            "SEARCH_TIMEOUT",
	ErrCodeIndexNotFound:            "INDEX_NOT_FOUND",
	ErrCodeSessionStoreFailed:       "SESSION_STORE_FAILED",
	ErrCodeInvalidInput:             "INVALID_INPUT",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeSessionStoreFailed:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeSearchTimeout:
		return 2

	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case code == ErrCodeLookupFailed || code == ErrCodeItemNotFound ||
		code == ErrCodeInvalidSelection || code == ErrCodeUnrecognizedIntent:
		return "CONVERSATION"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY_"):
		return "DATABASE"
	case strings.Contains(codeStr, "SESSION"):
		return "SESSION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "INTERNAL"
	}
}
