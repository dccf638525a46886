package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tidefall/geocore/internal/plugin"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest = "bad_request"
	ErrCodeNotFound   = "not_found"
	ErrCodeConflict   = "conflict"
	ErrCodeInternal   = "internal_error"
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

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writePluginError maps plugin domain errors onto HTTP status codes.
func writePluginError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, plugin.ErrNotRegistered):
		writeNotFound(w, err.Error())
	case errors.Is(err, plugin.ErrInvalidState), errors.Is(err, plugin.ErrDependency):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, plugin.ErrNotTool),
		errors.Is(err, plugin.ErrNotAnalysis),
		errors.Is(err, plugin.ErrNotProvider),
		errors.Is(err, plugin.ErrCapability),
		errors.Is(err, plugin.ErrInvalidArgument),
		errors.Is(err, plugin.ErrExecution):
		writeBadRequest(w, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}
