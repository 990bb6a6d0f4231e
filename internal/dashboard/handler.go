// Package dashboard serves the read-only views behind the role home pages:
// statistics, notifications and the caller's coin history.
package dashboard

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/taskcoin/backend/internal/handlers"
	"github.com/taskcoin/backend/internal/middleware"
	"github.com/taskcoin/backend/internal/models"
)

const (
	defaultLimit = 20
	maxLimit     = 100

	topWorkersLimit = 6
)

type StatsReader interface {
	Admin(ctx context.Context) (models.AdminStats, error)
	Buyer(ctx context.Context, buyerID uuid.UUID) (models.BuyerStats, error)
	Worker(ctx context.Context, workerID uuid.UUID) (models.WorkerStats, error)
	TopWorkers(ctx context.Context, limit int) ([]*models.TopWorker, error)
}

type NotificationReader interface {
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*models.Notification, error)
}

type LedgerReader interface {
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*models.LedgerEntry, error)
}

type Handler struct {
	stats         StatsReader
	notifications NotificationReader
	ledger        LedgerReader
	log           *slog.Logger
}

func NewHandler(stats StatsReader, notifications NotificationReader, ledger LedgerReader, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{stats: stats, notifications: notifications, ledger: ledger, log: log}
}

// AdminStats handles GET /api/v1/stats/admin.
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	s, err := h.stats.Admin(r.Context())
	if err != nil {
		handlers.WriteError(w, r, h.log, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, s)
}

// BuyerStats handles GET /api/v1/stats/buyer.
func (h *Handler) BuyerStats(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		handlers.WriteError(w, r, h.log, models.ErrForbidden)
		return
	}
	s, err := h.stats.Buyer(r.Context(), acc.ID)
	if err != nil {
		handlers.WriteError(w, r, h.log, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, s)
}

// WorkerStats handles GET /api/v1/stats/worker.
func (h *Handler) WorkerStats(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		handlers.WriteError(w, r, h.log, models.ErrForbidden)
		return
	}
	s, err := h.stats.Worker(r.Context(), acc.ID)
	if err != nil {
		handlers.WriteError(w, r, h.log, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, s)
}

// TopWorkers handles GET /api/v1/users/top-workers. It is public.
func (h *Handler) TopWorkers(w http.ResponseWriter, r *http.Request) {
	list, err := h.stats.TopWorkers(r.Context(), topWorkersLimit)
	if err != nil {
		handlers.WriteError(w, r, h.log, err)
		return
	}
	if list == nil {
		list = []*models.TopWorker{}
	}
	handlers.WriteJSON(w, http.StatusOK, list)
}

// Notifications handles GET /api/v1/notifications?limit=.
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		handlers.WriteError(w, r, h.log, models.ErrForbidden)
		return
	}
	list, err := h.notifications.ListByAccount(r.Context(), acc.ID, limitParam(r))
	if err != nil {
		handlers.WriteError(w, r, h.log, err)
		return
	}
	if list == nil {
		list = []*models.Notification{}
	}
	handlers.WriteJSON(w, http.StatusOK, list)
}

// Ledger handles GET /api/v1/ledger?limit=, the caller's coin history.
func (h *Handler) Ledger(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		handlers.WriteError(w, r, h.log, models.ErrForbidden)
		return
	}
	entries, err := h.ledger.ListByAccount(r.Context(), acc.ID, limitParam(r))
	if err != nil {
		handlers.WriteError(w, r, h.log, err)
		return
	}
	if entries == nil {
		entries = []*models.LedgerEntry{}
	}
	handlers.WriteJSON(w, http.StatusOK, entries)
}

func limitParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	switch {
	case err != nil || n <= 0:
		return defaultLimit
	case n > maxLimit:
		return maxLimit
	}
	return n
}
