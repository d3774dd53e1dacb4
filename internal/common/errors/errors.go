// Package errors provides the standardized error taxonomy shared by the resolvers, render sinks and workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Upstream data source
	ErrCodeFetchFailed       ErrorCode = "FETCH_FAILED"
	ErrCodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"

	// Presentation sinks
	ErrCodeRenderFailed ErrorCode = "RENDER_FAILED"

	// Worker input
	ErrCodeInvalidQuery ErrorCode = "INVALID_QUERY"

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

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches any StandardError carrying the same code, so callers can compare
// against the sentinel values below with errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrFetchFailed       = &StandardError{Code: ErrCodeFetchFailed}
	ErrMalformedResponse = &StandardError{Code: ErrCodeMalformedResponse}
	ErrRenderFailed      = &StandardError{Code: ErrCodeRenderFailed}
	ErrInvalidQuery      = &StandardError{Code: ErrCodeInvalidQuery}
)

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
// 3. Constructors
// ==========================

// NewFetchFailedError reports a transport failure or a non-2xx status for url.
func NewFetchFailedError(url string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFetchFailed,
		Message:   "Upstream request failed",
		Details:   fmt.Sprintf("url: %s, error: %v", url, err),
		Retryable: false,
		Metadata:  map[string]interface{}{"url": url},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewFetchStatusError reports a non-2xx status for url.
func NewFetchStatusError(url string, status int) *StandardError {
	return &StandardError{
		Code:      ErrCodeFetchFailed,
		Message:   "Upstream request failed",
		Details:   fmt.Sprintf("url: %s, status: %d", url, status),
		Retryable: false,
		Metadata:  map[string]interface{}{"url": url, "status": status},
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedResponseError reports a body that does not have the expected shape.
func NewMalformedResponseError(url, details string, err error) *StandardError {
	if err != nil {
		details = fmt.Sprintf("%s: %v", details, err)
	}
	return &StandardError{
		Code:      ErrCodeMalformedResponse,
		Message:   "Upstream response is malformed",
		Details:   fmt.Sprintf("url: %s, %s", url, details),
		Retryable: false,
		Metadata:  map[string]interface{}{"url": url},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewRenderFailedError(sink string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRenderFailed,
		Message:   fmt.Sprintf("Render sink '%s' failed", sink),
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"sink": sink},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewInvalidQueryError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidQuery,
		Message:   "Invalid make/year query",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Mapping
// ==========================

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeFetchFailed:       "FETCH_FAILED",
	ErrCodeMalformedResponse: "MALFORMED_RESPONSE",
	ErrCodeRenderFailed:      "RENDER_FAILED",
	ErrCodeInvalidQuery:      "INVALID_QUERY",
}

// GetRetryCount returns how many job retries the orchestrator is granted for code.
// Upstream failures are never retried by the resolvers themselves.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeRenderFailed:
		return 2
	default:
		return 0
	}
}

// AsStandardError extracts the StandardError in err's chain, wrapping anything
// else as INTERNAL_ERROR.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
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
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: stdErr.Metadata,
	}
}
