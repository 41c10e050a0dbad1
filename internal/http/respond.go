package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"monny/internal/auth"
	"monny/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.ErrorContext(ctx, "Failed to encode response", "error", err)
	}
}

// respondError translates domain errors into HTTP statuses. Anything
// unmapped is a 500 with a generic body so internals never leak.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(ctx, "Request failed", "error", err)
		respondJSON(ctx, w, status, errorResponse{Error: "internal error"})
		return
	}
	respondJSON(ctx, w, status, errorResponse{Error: err.Error()})
}

func statusForError(err error) int {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, core.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrNameTooLong),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrAmountSignMismatch),
		errors.Is(err, core.ErrInvalidDatetime),
		errors.Is(err, core.ErrEmptyOwner):
		return http.StatusUnprocessableEntity
	case errors.As(err, &validationErrs):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
