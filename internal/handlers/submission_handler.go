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

type SubmissionService interface {
	Create(ctx context.Context, actor *models.Account, taskID uuid.UUID, details string) (*models.Submission, error)
	Approve(ctx context.Context, actor *models.Account, id uuid.UUID) (*models.Submission, error)
	Reject(ctx context.Context, actor *models.Account, id uuid.UUID) (*models.Submission, error)
	ListForWorker(ctx context.Context, actor *models.Account, status string, page, size int) (models.Page[*models.Submission], error)
	ListPendingForBuyer(ctx context.Context, actor *models.Account) ([]*models.Submission, error)
}

// SubmissionHandler serves /api/v1/submissions endpoints.
type SubmissionHandler struct {
	Submissions SubmissionService
	Validator   BodyValidator
	Logger      *slog.Logger
}

type createSubmissionRequest struct {
	TaskID  string `json:"task_id"`
	Details string `json:"details"`
}

// --- POST /api/v1/submissions ---

func (h *SubmissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSubmissionRequest
	if err := DecodeBody(r, h.Validator, services.SchemaCreateSubmission, &req); err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		WriteError(w, r, h.Logger, models.ErrInvalidInput)
		return
	}
	sub, err := h.Submissions.Create(r.Context(), middleware.AccountFromCtx(r.Context()), taskID, req.Details)
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, sub)
}

// --- POST /api/v1/submissions/{id}/approve ---

func (h *SubmissionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.Submissions.Approve)
}

// --- POST /api/v1/submissions/{id}/reject ---

func (h *SubmissionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.Submissions.Reject)
}

func (h *SubmissionHandler) review(w http.ResponseWriter, r *http.Request, op func(context.Context, *models.Account, uuid.UUID) (*models.Submission, error)) {
	id, err := PathID(r, "id")
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	sub, err := op(r.Context(), middleware.AccountFromCtx(r.Context()), id)
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, sub)
}

// --- GET /api/v1/submissions/worker/mine ---

// ListMine accepts ?status=&page=&size=.
func (h *SubmissionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	h.listForWorker(w, r, r.URL.Query().Get("status"))
}

// --- GET /api/v1/submissions/worker/approved ---

func (h *SubmissionHandler) ListApproved(w http.ResponseWriter, r *http.Request) {
	h.listForWorker(w, r, models.SubmissionApproved)
}

func (h *SubmissionHandler) listForWorker(w http.ResponseWriter, r *http.Request, status string) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	size, err := queryInt(r, "size", 10)
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	result, err := h.Submissions.ListForWorker(r.Context(), middleware.AccountFromCtx(r.Context()), status, page, size)
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	result.Items = nonNil(result.Items)
	WriteJSON(w, http.StatusOK, result)
}

// --- GET /api/v1/submissions/buyer/pending ---

func (h *SubmissionHandler) ListPendingForBuyer(w http.ResponseWriter, r *http.Request) {
	subs, err := h.Submissions.ListPendingForBuyer(r.Context(), middleware.AccountFromCtx(r.Context()))
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, nonNil(subs))
}
