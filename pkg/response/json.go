package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fkhayef/dutchpay/pkg/apperror"
)

// APIResponse is the standard response wrapper
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// APIError represents an error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta contains pagination and other metadata
type Meta struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	Total      int `json:"total,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
}

// NewMeta builds pagination metadata for a page of results
func NewMeta(page, perPage, total int) *Meta {
	return &Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	}
}

// JSON sends a JSON response with the given status code
func JSON(w http.ResponseWriter, status int, data interface{}) {
	write(w, status, APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

// JSONWithMeta sends a JSON response with pagination metadata
func JSONWithMeta(w http.ResponseWriter, status int, data interface{}, meta *Meta) {
	write(w, status, APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
		Meta:    meta,
	})
}

// Error sends an error JSON response
func Error(w http.ResponseWriter, status int, code, message string) {
	write(w, status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
	})
}

func write(w http.ResponseWriter, status int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("Failed to encode response", "status", status, "error", err)
	}
}

// errorMapping is checked in order; the first sentinel matched wins.
var errorMapping = []struct {
	target error
	status int
	code   string
}{
	{apperror.ErrMismatch, http.StatusUnprocessableEntity, "SPLIT_MISMATCH"},
	{apperror.ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
	{apperror.ErrRateUnavailable, http.StatusBadGateway, "RATE_UNAVAILABLE"},
	{apperror.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{apperror.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{apperror.ErrConflict, http.StatusConflict, "CONFLICT"},
	{apperror.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
	{apperror.ErrPersistence, http.StatusServiceUnavailable, "PERSISTENCE_ERROR"},
}

// FromError maps an error from the service layer to an error response.
// Persistence failures keep their details in the log, not in the body.
func FromError(w http.ResponseWriter, err error) {
	for _, m := range errorMapping {
		if !errors.Is(err, m.target) {
			continue
		}
		message := err.Error()
		if m.target == apperror.ErrPersistence {
			slog.Error("Store call failed", "error", err)
			message = "The change could not be saved, please retry"
		}
		Error(w, m.status, m.code, message)
		return
	}

	slog.Error("Unhandled error", "error", err)
	InternalError(w, "Internal server error")
}

// Common error responses
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, "BAD_REQUEST", message)
}

func InternalError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

