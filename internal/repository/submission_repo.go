package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskcoin/backend/internal/models"
)

const submissionColumns = `id, task_id, task_title, buyer_id, worker_id, worker_name, details,
	payable_amount, status, created_at, updated_at`

type SubmissionRepo struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepo(pool *pgxpool.Pool) *SubmissionRepo {
	return &SubmissionRepo{pool: pool}
}

func scanSubmission(row pgx.Row) (*models.Submission, error) {
	var s models.Submission
	err := row.Scan(&s.ID, &s.TaskID, &s.TaskTitle, &s.BuyerID, &s.WorkerID, &s.WorkerName, &s.Details,
		&s.PayableAmount, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a submission. The partial unique index on (task_id, worker_id)
// turns a racing duplicate into models.ErrDuplicateSubmission.
func (r *SubmissionRepo) Create(ctx context.Context, tx pgx.Tx, s *models.Submission) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO submissions (id, task_id, task_title, buyer_id, worker_id, worker_name, details, payable_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, s.ID, s.TaskID, s.TaskTitle, s.BuyerID, s.WorkerID, s.WorkerName, s.Details, s.PayableAmount, s.Status).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if isUniqueViolation(err) {
		return models.ErrDuplicateSubmission
	}
	return err
}

func (r *SubmissionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	return scanSubmission(r.pool.QueryRow(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id))
}

func (r *SubmissionRepo) HasActive(ctx context.Context, tx pgx.Tx, taskID, workerID uuid.UUID) (bool, error) {
	return exists(ctx, tx, `
		SELECT EXISTS(SELECT 1 FROM submissions
		WHERE task_id = $1 AND worker_id = $2 AND status IN ('pending', 'approved'))
	`, taskID, workerID)
}

// Transition moves a submission from one status to another. It returns
// models.ErrAlreadyFinalized when the row exists in a different status.
func (r *SubmissionRepo) Transition(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to string) (*models.Submission, error) {
	s, err := scanSubmission(tx.QueryRow(ctx, `
		UPDATE submissions SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING `+submissionColumns, id, from, to))
	if errors.Is(err, models.ErrNotFound) {
		found, qerr := exists(ctx, tx, `SELECT EXISTS(SELECT 1 FROM submissions WHERE id = $1)`, id)
		if qerr != nil {
			return nil, qerr
		}
		if found {
			return nil, models.ErrAlreadyFinalized
		}
	}
	return s, err
}

// RejectPendingForTask rejects every pending submission of a task being deleted.
func (r *SubmissionRepo) RejectPendingForTask(ctx context.Context, tx pgx.Tx, taskID uuid.UUID) ([]*models.Submission, error) {
	rows, err := tx.Query(ctx, `
		UPDATE submissions SET status = 'rejected', updated_at = now()
		WHERE task_id = $1 AND status = 'pending'
		RETURNING `+submissionColumns, taskID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanSubmission)
}

// ListByWorker pages through a worker's submissions, optionally by status.
func (r *SubmissionRepo) ListByWorker(ctx context.Context, workerID uuid.UUID, status string, limit, offset int) ([]*models.Submission, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM submissions WHERE worker_id = $1 AND ($2 = '' OR status = $2)
	`, workerID, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+submissionColumns+` FROM submissions
		WHERE worker_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, workerID, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	list, err := collect(rows, scanSubmission)
	return list, total, err
}

func (r *SubmissionRepo) ListPendingForBuyer(ctx context.Context, buyerID uuid.UUID) ([]*models.Submission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+submissionColumns+` FROM submissions
		WHERE buyer_id = $1 AND status = 'pending'
		ORDER BY created_at
	`, buyerID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanSubmission)
}
