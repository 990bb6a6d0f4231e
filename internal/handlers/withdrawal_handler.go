package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/taskcoin/backend/internal/middleware"
	"github.com/taskcoin/backend/internal/models"
	"github.com/taskcoin/backend/internal/services"
)

type WithdrawalService interface {
	Request(ctx context.Context, actor *models.Account, req models.WithdrawalRequest) (*models.Withdrawal, error)
	Approve(ctx context.Context, actor *models.Account, id uuid.UUID) (*models.Withdrawal, error)
	Reject(ctx context.Context, actor *models.Account, id uuid.UUID) (*models.Withdrawal, error)
	ListForWorker(ctx context.Context, actor *models.Account) ([]*models.Withdrawal, error)
	ListPending(ctx context.Context, actor *models.Account) ([]*models.Withdrawal, error)
}

// WithdrawalHandler serves /api/v1/withdrawals endpoints.
type WithdrawalHandler struct {
	Withdrawals WithdrawalService
	Validator   BodyValidator
	Logger      *slog.Logger
}

// --- POST /api/v1/withdrawals ---

func (h *WithdrawalHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req models.WithdrawalRequest
	if err := DecodeBody(r, h.Validator, services.SchemaWithdrawal, &req); err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	wd, err := h.Withdrawals.Request(r.Context(), middleware.AccountFromCtx(r.Context()), req)
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, wd)
}

// --- POST /api/v1/withdrawals/{id}/approve ---

func (h *WithdrawalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.process(w, r, h.Withdrawals.Approve)
}

// --- POST /api/v1/withdrawals/{id}/reject ---

func (h *WithdrawalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.process(w, r, h.Withdrawals.Reject)
}

func (h *WithdrawalHandler) process(w http.ResponseWriter, r *http.Request, op func(context.Context, *models.Account, uuid.UUID) (*models.Withdrawal, error)) {
	id, err := PathID(r, "id")
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	wd, err := op(r.Context(), middleware.AccountFromCtx(r.Context()), id)
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, wd)
}

// --- GET /api/v1/withdrawals/worker/mine ---

func (h *WithdrawalHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	list, err := h.Withdrawals.ListForWorker(r.Context(), middleware.AccountFromCtx(r.Context()))
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, nonNil(list))
}

// --- GET /api/v1/withdrawals/admin/pending ---

func (h *WithdrawalHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	list, err := h.Withdrawals.ListPending(r.Context(), middleware.AccountFromCtx(r.Context()))
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, nonNil(list))
}
