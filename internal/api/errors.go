package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "github.com/wallet-insights/internal/errors"
	"github.com/wallet-insights/internal/logging"
	"github.com/wallet-insights/internal/types"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 8 << 20

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error types.ServiceError `json:"error"`
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error: types.ServiceError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	_ = json.NewEncoder(w).Encode(response)
}

// respondServiceError maps a service error onto its categorized HTTP response.
// System errors are logged and their cause is hidden from the caller.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	catErr := apperrors.Categorize(err)
	body := catErr.ToServiceError()
	if apperrors.IsSystemError(catErr) {
		logging.FromContext(r.Context()).WithError(err).WithFields(map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		body.Details = nil
	}
	respondJSON(w, catErr.StatusCode, ErrorResponse{Error: *body})
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// parseJSONBody parses JSON request body.
func parseJSONBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// Common error codes
const (
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeInvalidAddress     = "INVALID_ADDRESS"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeTooLarge           = "REQUEST_TOO_LARGE"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// respondBadBody answers a request whose JSON body could not be decoded
func respondBadBody(w http.ResponseWriter, err error) {
	respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", map[string]interface{}{
		"reason": err.Error(),
	})
}
