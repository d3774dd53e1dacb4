package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardError_IsMatchesByCode(t *testing.T) {
	err := NewFetchStatusError("http://example/vehicle/1", 503)
	wrapped := fmt.Errorf("model Model 3: %w", err)

	assert.True(t, stderrors.Is(wrapped, ErrFetchFailed))
	assert.False(t, stderrors.Is(wrapped, ErrMalformedResponse))
}

func TestStandardError_UnwrapsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewFetchFailedError("http://example", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Contains(t, err.Error(), "FETCH_FAILED")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNewMalformedResponseError(t *testing.T) {
	err := NewMalformedResponseError("http://example/vehicle/9", "missing range", nil)

	assert.Equal(t, ErrCodeMalformedResponse, err.Code)
	assert.Contains(t, err.Details, "missing range")
	assert.Nil(t, err.Unwrap())
}

func TestAsStandardError(t *testing.T) {
	t.Run("finds wrapped standard error", func(t *testing.T) {
		orig := NewRenderFailedError("postgres", stderrors.New("tx aborted"))
		got := AsStandardError(fmt.Errorf("aggregate: %w", orig))
		assert.Same(t, orig, got)
	})

	t.Run("wraps plain error as internal", func(t *testing.T) {
		got := AsStandardError(stderrors.New("boom"))
		assert.Equal(t, ErrCodeInternal, got.Code)
		assert.Equal(t, "boom", got.Details)
	})
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantCode    string
		wantRetries int
	}{
		{"fetch failures are not retried", NewFetchStatusError("u", 500), "FETCH_FAILED", 0},
		{"malformed responses are not retried", NewMalformedResponseError("u", "bad", nil), "MALFORMED_RESPONSE", 0},
		{"render failures get retries", NewRenderFailedError("postgres", stderrors.New("x")), "RENDER_FAILED", 2},
		{"unknown codes fall back to the code", &StandardError{Code: "SOMETHING"}, "SOMETHING", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			require.NotNil(t, bpmn)
			assert.Equal(t, tt.wantCode, bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)
		})
	}
}

func TestBPMNError_ToErrorVariables(t *testing.T) {
	bpmn := ConvertToBPMNError(NewFetchStatusError("http://example/x", 404))
	vars := bpmn.ToErrorVariables()

	assert.Equal(t, "FETCH_FAILED", vars["errorCode"])
	assert.Equal(t, "http://example/x", vars["url"])
	assert.Equal(t, 404, vars["status"])
	assert.Equal(t, false, vars["retryable"])
}
