package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-input/internal/binding"
	"github.com/nerrad567/gray-logic-input/internal/device"
	"github.com/nerrad567/gray-logic-input/internal/input"
	"github.com/nerrad567/gray-logic-input/internal/override"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeConflict    = "conflict"
	ErrCodeNotReady    = "not_ready"
	ErrCodeInternal    = "internal_error"
	ErrCodeValidation  = "validation_error"
	ErrCodeUnsupported = "unsupported_operation"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps a domain error onto its HTTP status.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, input.ErrNotReady):
		writeError(w, http.StatusServiceUnavailable, ErrCodeNotReady, err.Error())
	case errors.Is(err, binding.ErrMapNotFound),
		errors.Is(err, binding.ErrActionNotFound),
		errors.Is(err, binding.ErrPartNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, override.ErrNotRebindable):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, override.ErrConfiguration),
		errors.Is(err, device.ErrInvalidDevice):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, input.ErrUnsupportedOperation):
		writeError(w, http.StatusBadRequest, ErrCodeUnsupported, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}
