package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/taskcoin/backend/internal/middleware"
	"github.com/taskcoin/backend/internal/models"
	"github.com/taskcoin/backend/internal/services"
)

type PurchaseService interface {
	Packages() []models.CoinPackage
	Record(ctx context.Context, actor *models.Account, packageIndex int, token string) (int64, error)
	ListForBuyer(ctx context.Context, actor *models.Account) ([]*models.CoinPurchase, error)
}

// PaymentHandler serves /api/v1/payments endpoints.
type PaymentHandler struct {
	Purchases PurchaseService
	Validator BodyValidator
	Logger    *slog.Logger
}

type confirmPurchaseRequest struct {
	PackageIndex int    `json:"package_index"`
	Token        string `json:"confirmation_token"`
}

type confirmPurchaseResponse struct {
	Coin int64 `json:"coin"`
}

// --- GET /api/v1/payments/packages ---

func (h *PaymentHandler) Packages(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, nonNil(h.Purchases.Packages()))
}

// --- POST /api/v1/payments/confirm ---

// Confirm credits a completed external payment. A replayed confirmation token is refused.
func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmPurchaseRequest
	if err := DecodeBody(r, h.Validator, services.SchemaPurchase, &req); err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	balance, err := h.Purchases.Record(r.Context(), middleware.AccountFromCtx(r.Context()), req.PackageIndex, req.Token)
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, confirmPurchaseResponse{Coin: balance})
}

// --- GET /api/v1/payments/history ---

func (h *PaymentHandler) History(w http.ResponseWriter, r *http.Request) {
	list, err := h.Purchases.ListForBuyer(r.Context(), middleware.AccountFromCtx(r.Context()))
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, nonNil(list))
}
