package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/votermatch/internal/match"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps engine errors to HTTP status codes. "Could not run" and
// "ran and found nothing" must stay distinguishable to the caller, so
// unavailability is a 503 while an unmatched result is a normal 200.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, match.ErrInvalidEntry):
		status, code = http.StatusBadRequest, "invalid_entry"
	case errors.Is(err, match.ErrResultNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, match.ErrMatchingUnavailable):
		status, code = http.StatusServiceUnavailable, "matching_unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusServiceUnavailable, "cancelled"
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg, Code: "bad_request"})
}
