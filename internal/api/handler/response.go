package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"loan-engine/internal/api/handler/dto"
	"loan-engine/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
)

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// respondMessage writes the flat `{"error": "..."}` body.
func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, dto.MessageError{Error: message})
}

func respondError(w http.ResponseWriter, err error) {
	status, message := http.StatusInternalServerError, "An unexpected error occurred."
	detail := dto.ErrorDetail{}
	var (
		fieldErrors     apperrors.FieldErrors
		validationError *apperrors.ValidationError
		appErr          *apperrors.AppError
	)

	switch {
	case errors.As(err, &fieldErrors):
		status, message = http.StatusBadRequest, "Validation failed."
		detail.Fields = fieldErrors
	case errors.As(err, &validationError):
		status, message = http.StatusBadRequest, validationError.Message
		detail.Field = validationError.Field
	case errors.Is(err, apperrors.ErrNotFound):
		status, message = http.StatusNotFound, "Resource not found."
	case errors.Is(err, apperrors.ErrInvalidArgument), errors.Is(err, apperrors.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrAlreadyExists), errors.Is(err, apperrors.ErrConflict):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, apperrors.ErrUnauthorized):
		status, message = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, apperrors.ErrQueueUnavailable):
		status, message = http.StatusServiceUnavailable, "Ingestion queue is unavailable."
	case errors.As(err, &appErr):
		slog.Default().Error("Application error", "code", appErr.Code, "error", err)
		message = appErr.Error()
	default:
		slog.Default().Error("Unhandled internal error", "error", err)
	}

	detail.Message = message
	respondJSON(w, status, dto.ErrorResponse{Error: detail})
}

func int64URLParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s not found in URL path", apperrors.ErrInvalidArgument, name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", apperrors.ErrInvalidArgument, name)
	}
	return id, nil
}

func badRequest(err error) error {
	return fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err)
}
