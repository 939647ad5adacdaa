package api

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/adfharrison1/go-campus/pkg/campus"
	"github.com/adfharrison1/go-campus/pkg/storage"
)

// ErrorResponse represents a standard JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// WriteJSONError writes a JSON error response with the given status code and message
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	json.NewEncoder(w).Encode(response)
}

// StatusFor maps portal errors to HTTP status codes
func StatusFor(err error) int {
	switch {
	case errors.Is(err, campus.ErrForbidden), errors.Is(err, campus.ErrUnknownRole):
		return http.StatusForbidden
	case errors.Is(err, storage.ErrDatasetNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNoSession):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
