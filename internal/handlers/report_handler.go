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

type ReportService interface {
	FileReport(ctx context.Context, actor *models.Account, submissionID uuid.UUID, reason string) (*models.Report, error)
	List(ctx context.Context, actor *models.Account, status string) ([]*models.Report, error)
	Resolve(ctx context.Context, actor *models.Account, id uuid.UUID) (*models.Report, error)
}

// ReportHandler serves /api/v1/reports endpoints.
type ReportHandler struct {
	Reports   ReportService
	Validator BodyValidator
	Logger    *slog.Logger
}

type fileReportRequest struct {
	SubmissionID string `json:"submission_id"`
	Reason       string `json:"reason"`
}

// --- POST /api/v1/reports ---

func (h *ReportHandler) File(w http.ResponseWriter, r *http.Request) {
	var req fileReportRequest
	if err := DecodeBody(r, h.Validator, services.SchemaReport, &req); err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	subID, err := uuid.Parse(req.SubmissionID)
	if err != nil {
		WriteError(w, r, h.Logger, models.ErrInvalidInput)
		return
	}
	rep, err := h.Reports.FileReport(r.Context(), middleware.AccountFromCtx(r.Context()), subID, req.Reason)
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, rep)
}

// --- GET /api/v1/reports?status= ---

func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Reports.List(r.Context(), middleware.AccountFromCtx(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, nonNil(list))
}

// --- POST /api/v1/reports/{id}/resolve ---

func (h *ReportHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	rep, err := h.Reports.Resolve(r.Context(), middleware.AccountFromCtx(r.Context()), id)
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, rep)
}
