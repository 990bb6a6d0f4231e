package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taskcoin/backend/internal/middleware"
	"github.com/taskcoin/backend/internal/models"
	"github.com/taskcoin/backend/internal/services"
)

const maxBodyBytes = 1 << 20

// BodyValidator checks a raw request body against a named JSON schema.
type BodyValidator interface {
	Validate(name string, body []byte) error
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, models.ErrBelowMinimum),
		errors.Is(err, models.ErrInvalidPackage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrQuotaExhausted),
		errors.Is(err, models.ErrDuplicateSubmission),
		errors.Is(err, models.ErrAlreadyFinalized),
		errors.Is(err, models.ErrQuotaFieldImmutable),
		errors.Is(err, models.ErrDuplicateConfirmation),
		errors.Is(err, models.ErrAccountInUse),
		errors.Is(err, models.ErrDuplicateEmail):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// WriteError classifies err and writes the error envelope. Unclassified errors
// are logged and reported as INTERNAL without leaking their text.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := StatusFor(err)
	code := models.Kind(err)
	msg := err.Error()
	if errors.Is(err, services.ErrValidation) {
		code = "VALIDATION_FAILED"
	}
	if status == http.StatusInternalServerError {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		code, msg = "INTERNAL", "internal error"
	}
	middleware.WriteError(w, r, status, code, msg)
}

// DecodeBody reads the request body, validates it against schema and decodes it into dst.
func DecodeBody(r *http.Request, v BodyValidator, schema string, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", models.ErrInvalidInput)
	}
	if v != nil {
		if err := v.Validate(schema, body); err != nil {
			return err
		}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("invalid JSON: %w", models.ErrInvalidInput)
	}
	return nil
}

// PathID parses the {name} URL parameter as a UUID.
func PathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", name, models.ErrInvalidInput)
	}
	return id, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("query %s must be an integer: %w", key, models.ErrInvalidInput)
	}
	return n, nil
}

func queryInt64(r *http.Request, key string) (int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("query %s must be an integer: %w", key, models.ErrInvalidInput)
	}
	return n, nil
}
