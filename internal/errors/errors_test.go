package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallet-insights/internal/types"
)

func TestCategorize(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.Nil(t, Categorize(nil))
	})

	t.Run("already categorized", func(t *testing.T) {
		orig := NewInvalidParameterError("minValue", "not a number")
		assert.Same(t, orig, Categorize(orig))
	})

	t.Run("service error codes", func(t *testing.T) {
		tests := []struct {
			code     string
			category ErrorCategory
			status   int
		}{
			{"INVALID_ADDRESS", CategoryUserInput, http.StatusBadRequest},
			{"INVALID_CATEGORY", CategoryValidation, http.StatusBadRequest},
			{"WALLET_NOT_FOUND", CategoryNotFound, http.StatusNotFound},
			{"COMPUTATION_FAILED", CategoryComputation, http.StatusUnprocessableEntity},
			{"SOMETHING_ELSE", CategorySystem, http.StatusInternalServerError},
		}
		for _, tt := range tests {
			t.Run(tt.code, func(t *testing.T) {
				catErr := Categorize(&types.ServiceError{Code: tt.code, Message: "msg"})
				require.NotNil(t, catErr)
				assert.Equal(t, tt.category, catErr.Category)
				assert.Equal(t, tt.status, catErr.StatusCode)
				assert.Equal(t, tt.code, catErr.Code)
			})
		}
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		catErr := Categorize(fmt.Errorf("boom"))
		assert.Equal(t, CategorySystem, catErr.Category)
		assert.Equal(t, "INTERNAL_ERROR", catErr.Code)
	})
}

func TestCategorizedError_Unwrap(t *testing.T) {
	cause := stderrors.New("division by zero")
	err := NewComputationError("0xabc", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Contains(t, err.Error(), "COMPUTATION_FAILED")
	assert.Contains(t, err.Error(), "division by zero")
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, IsUserError(NewInvalidAddressError("0x1")))
	assert.False(t, IsSystemError(NewInvalidAddressError("0x1")))
	assert.True(t, IsSystemError(NewCacheError("get", stderrors.New("down"))))
	assert.Equal(t, http.StatusTooManyRequests, GetHTTPStatusCode(NewRateLimitError(1)))
	assert.Equal(t, http.StatusServiceUnavailable, GetHTTPStatusCode(NewServiceUnavailableError("clickhouse")))
}

func TestToServiceError(t *testing.T) {
	err := NewInvalidCategoryError("0xdef", "gaming")
	svc := err.ToServiceError()
	assert.Equal(t, "INVALID_CATEGORY", svc.Code)
	assert.Equal(t, "gaming", svc.Details["category"])
}
