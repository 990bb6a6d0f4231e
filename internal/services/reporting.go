package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/taskcoin/backend/internal/models"
)

// ReportingSubsystem records buyer complaints about submissions for admin review.
// Reports never change balances or submission state.
type ReportingSubsystem struct {
	Reports     ReportRepo
	Submissions SubmissionReader
	Logger      *slog.Logger
}

func NewReportingSubsystem(reports ReportRepo, submissions SubmissionReader, logger *slog.Logger) *ReportingSubsystem {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportingSubsystem{Reports: reports, Submissions: submissions, Logger: logger}
}

// FileReport appends an open report against a submission the actor reviews.
func (r *ReportingSubsystem) FileReport(ctx context.Context, actor *models.Account, submissionID uuid.UUID, reason string) (rep *models.Report, err error) {
	defer func() { observe("file_report", err) }()

	if !isRole(actor, models.RoleBuyer) {
		return nil, models.ErrForbidden
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("reason is required: %w", models.ErrInvalidInput)
	}
	sub, err := r.Submissions.GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.BuyerID != actor.ID {
		return nil, models.ErrForbidden
	}

	rep = &models.Report{
		ID:           uuid.New(),
		SubmissionID: submissionID,
		ReporterID:   actor.ID,
		Reason:       reason,
		Status:       models.ReportOpen,
	}
	if err := r.Reports.Create(ctx, rep); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	r.Logger.Info("report filed", "report_id", rep.ID, "submission_id", submissionID, "reporter_id", actor.ID)
	return rep, nil
}

// List returns reports for admin review, optionally filtered by status.
func (r *ReportingSubsystem) List(ctx context.Context, actor *models.Account, status string) ([]*models.Report, error) {
	if !isRole(actor, models.RoleAdmin) {
		return nil, models.ErrForbidden
	}
	switch status {
	case "", models.ReportOpen, models.ReportResolved:
	default:
		return nil, fmt.Errorf("unknown status %q: %w", status, models.ErrInvalidInput)
	}
	return r.Reports.List(ctx, status)
}

// Resolve closes an open report.
func (r *ReportingSubsystem) Resolve(ctx context.Context, actor *models.Account, id uuid.UUID) (rep *models.Report, err error) {
	defer func() { observe("resolve_report", err) }()

	if !isRole(actor, models.RoleAdmin) {
		return nil, models.ErrForbidden
	}
	return r.Reports.Resolve(ctx, id)
}
