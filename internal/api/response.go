package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"vidstream/internal/apperror"
)

const (
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodePayloadTooLarge   = "PAYLOAD_TOO_LARGE"
	ErrCodeInternal          = "INTERNAL_ERROR"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
)

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// renderError maps a service-layer error onto the response. Anything
// outside the apperror taxonomy is logged and hidden behind a 500.
func renderError(w http.ResponseWriter, err error) {
	if appErr, ok := apperror.From(err); ok {
		status := appErr.StatusCode()
		if status >= http.StatusInternalServerError {
			slog.Error("internal error", "error", err)
			writeError(w, status, appErr.Code(), "An internal error occurred")
			return
		}
		writeError(w, status, appErr.Code(), appErr.Message)
		return
	}

	slog.Error("unhandled error", "error", err)
	internalError(w)
}

func badRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, message)
}

func unauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func notFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func payloadTooLarge(w http.ResponseWriter, message string) {
	writeError(w, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, message)
}

func internalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, "An internal error occurred")
}
