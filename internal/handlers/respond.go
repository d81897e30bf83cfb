package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/satonic/auction-api/internal/apperror"
)

// errorResponse is the body of every non-2xx response
type errorResponse struct {
	Timestamp string         `json:"timestamp"`
	Path      string         `json:"path"`
	Status    int            `json:"status"`
	Code      apperror.Code  `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// respondError renders err as the error payload. Errors outside the
// taxonomy are logged and reported as INTERNAL_ERROR without their cause.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		appErr = apperror.New(http.StatusInternalServerError, apperror.CodeInternal, "internal server error")
	}

	details := appErr.Details
	if details == nil {
		details = map[string]any{}
	}

	respondJSON(w, appErr.Status, errorResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Path:      r.URL.Path,
		Status:    appErr.Status,
		Code:      appErr.Code,
		Message:   appErr.Message,
		Details:   details,
	})
}

// decodeJSON decodes the request body into dst. An empty body leaves dst
// untouched.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperror.BadRequest("invalid request body").With("error", err.Error())
	}
	return nil
}
