package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"helpinghand/internal/auth"
	"helpinghand/internal/core"
	"helpinghand/internal/donation"
)

// envelope is the wire shape of every response.
type envelope struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
	Content any    `json:"content,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeSuccess(w http.ResponseWriter, message string, content any) {
	writeJSON(w, http.StatusOK, envelope{Message: message, Success: true, Content: content})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Message: message, Success: false})
}

// writeDomainError maps domain errors onto HTTP statuses. Storage internals
// and partial-failure details stay in the logs, never in the body.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var partial *donation.PartialFailure
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "invalid amount")
	case errors.Is(err, core.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "invalid identifier")
	case errors.Is(err, core.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, "invalid statistics window")
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, auth.ErrMissingToken):
		writeError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.As(err, &partial):
		slog.ErrorContext(ctx, "Payment commit left incomplete",
			"intent_id", partial.IntentID,
			"step", partial.Step,
			"error", partial.Err)
		writeError(w, http.StatusInternalServerError, "payment could not be completed")
	default:
		slog.ErrorContext(ctx, "Request failed",
			"path", r.URL.Path,
			"error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
