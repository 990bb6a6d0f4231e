package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskcoin/backend/internal/models"
)

const reportColumns = `id, submission_id, reporter_id, reason, status, created_at, resolved_at`

type ReportRepo struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

func scanReport(row pgx.Row) (*models.Report, error) {
	var rep models.Report
	err := row.Scan(&rep.ID, &rep.SubmissionID, &rep.ReporterID, &rep.Reason, &rep.Status, &rep.CreatedAt, &rep.ResolvedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *ReportRepo) Create(ctx context.Context, rep *models.Report) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO reports (id, submission_id, reporter_id, reason, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, rep.ID, rep.SubmissionID, rep.ReporterID, rep.Reason, rep.Status).Scan(&rep.CreatedAt)
}

func (r *ReportRepo) List(ctx context.Context, status string) ([]*models.Report, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reportColumns+` FROM reports
		WHERE $1 = '' OR status = $1
		ORDER BY created_at DESC
	`, status)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanReport)
}

func (r *ReportRepo) Resolve(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	rep, err := scanReport(r.pool.QueryRow(ctx, `
		UPDATE reports SET status = 'resolved', resolved_at = now()
		WHERE id = $1 AND status = 'open'
		RETURNING `+reportColumns, id))
	if errors.Is(err, models.ErrNotFound) {
		found, qerr := exists(ctx, r.pool, `SELECT EXISTS(SELECT 1 FROM reports WHERE id = $1)`, id)
		if qerr != nil {
			return nil, qerr
		}
		if found {
			return nil, models.ErrAlreadyFinalized
		}
	}
	return rep, err
}
