package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/hunlearn/internal/apperr"
)

// envelope wraps every response body.
type envelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    any        `json:"data"`
	Error   *errorInfo `json:"error,omitempty"`
}

type errorInfo struct {
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// pagination is embedded in list responses.
type pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

func page(total, limit, offset int) pagination {
	return pagination{Total: total, Limit: limit, Offset: offset, HasMore: offset+limit < total}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

func ok(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func fail(w http.ResponseWriter, status int, code, message string, details map[string]string) {
	writeJSON(w, status, envelope{Message: message, Error: &errorInfo{Code: code, Details: details}})
}

// writeError maps service errors to status codes. Unexpected errors are
// logged with op and reported as internal errors.
func writeError(w http.ResponseWriter, op string, err error) {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		fail(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid input", ve.Fields)
	case errors.Is(err, apperr.ErrInvalidInput):
		fail(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, apperr.ErrUnauthorized):
		fail(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
	case errors.Is(err, apperr.ErrForbidden):
		fail(w, http.StatusForbidden, "FORBIDDEN", "not allowed", nil)
	case errors.Is(err, apperr.ErrNotFound):
		fail(w, http.StatusNotFound, "NOT_FOUND", "not found", nil)
	case errors.Is(err, apperr.ErrAlreadyExists):
		fail(w, http.StatusConflict, "ALREADY_EXISTS", err.Error(), nil)
	case errors.Is(err, apperr.ErrConflict):
		fail(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, apperr.ErrUnavailable):
		fail(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "service unavailable", nil)
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		fail(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error", nil)
	}
}
