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

type AccountService interface {
	List(ctx context.Context, actor *models.Account) ([]*models.Account, error)
	UpdateRole(ctx context.Context, actor *models.Account, id uuid.UUID, role string) (*models.Account, error)
	Delete(ctx context.Context, actor *models.Account, id uuid.UUID) error
	Audit(ctx context.Context) (models.ConservationReport, error)
}

// UserHandler serves the admin account endpoints.
type UserHandler struct {
	Accounts  AccountService
	Validator BodyValidator
	Logger    *slog.Logger
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

type auditResponse struct {
	models.ConservationReport
	Held     int64 `json:"held"`
	Issued   int64 `json:"issued"`
	Balanced bool  `json:"balanced"`
}

// --- GET /api/v1/users ---

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Accounts.List(r.Context(), middleware.AccountFromCtx(r.Context()))
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, nonNil(list))
}

// --- PATCH /api/v1/users/{id}/role ---

func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	var req updateRoleRequest
	if err := DecodeBody(r, h.Validator, services.SchemaRole, &req); err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	acc, err := h.Accounts.UpdateRole(r.Context(), middleware.AccountFromCtx(r.Context()), id, req.Role)
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, acc)
}

// --- DELETE /api/v1/users/{id} ---

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	if err := h.Accounts.Delete(r.Context(), middleware.AccountFromCtx(r.Context()), id); err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"deleted": id.String()})
}

// --- GET /api/v1/admin/audit ---

// Audit reports whether every coin issued is accounted for.
func (h *UserHandler) Audit(w http.ResponseWriter, r *http.Request) {
	report, err := h.Accounts.Audit(r.Context())
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, auditResponse{
		ConservationReport: report,
		Held:               report.Held(),
		Issued:             report.Issued(),
		Balanced:           report.Balanced(),
	})
}
