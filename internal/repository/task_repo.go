package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskcoin/backend/internal/models"
)

const taskColumns = `id, buyer_id, title, detail, submission_info, image_url, payable_amount,
	required_workers, initial_workers, completion_date, created_at, updated_at`

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.BuyerID, &t.Title, &t.Detail, &t.SubmissionInfo, &t.ImageURL, &t.PayableAmount,
		&t.RequiredWorkers, &t.InitialWorkers, &t.CompletionDate, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepo) Create(ctx context.Context, tx pgx.Tx, t *models.Task) error {
	return tx.QueryRow(ctx, `
		INSERT INTO tasks (id, buyer_id, title, detail, submission_info, image_url, payable_amount, required_workers, initial_workers, completion_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, t.ID, t.BuyerID, t.Title, t.Detail, t.SubmissionInfo, t.ImageURL, t.PayableAmount, t.RequiredWorkers, t.InitialWorkers, t.CompletionDate).
		Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
}

// GetByIDForUpdate locks the task row. Call within a transaction.
func (r *TaskRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Task, error) {
	return scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id))
}

func (r *TaskRepo) UpdateDetails(ctx context.Context, tx pgx.Tx, id uuid.UUID, title, detail, submissionInfo string) (*models.Task, error) {
	return scanTask(tx.QueryRow(ctx, `
		UPDATE tasks SET title = $2, detail = $3, submission_info = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+taskColumns, id, title, detail, submissionInfo))
}

func (r *TaskRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ConsumeSlot decrements required_workers only while it is positive.
func (r *TaskRepo) ConsumeSlot(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int64, error) {
	var remaining int64
	err := tx.QueryRow(ctx, `
		UPDATE tasks SET required_workers = required_workers - 1, updated_at = now()
		WHERE id = $1 AND required_workers > 0
		RETURNING required_workers
	`, id).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		found, err := exists(ctx, tx, `SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1)`, id)
		if err != nil {
			return 0, err
		}
		if !found {
			return 0, models.ErrNotFound
		}
		return 0, models.ErrQuotaExhausted
	}
	return remaining, err
}

// ReleaseSlot increments required_workers, never past initial_workers.
func (r *TaskRepo) ReleaseSlot(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int64, error) {
	var remaining int64
	err := tx.QueryRow(ctx, `
		UPDATE tasks SET required_workers = required_workers + 1, updated_at = now()
		WHERE id = $1 AND required_workers < initial_workers
		RETURNING required_workers
	`, id).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		found, err := exists(ctx, tx, `SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1)`, id)
		if err != nil {
			return 0, err
		}
		if !found {
			return 0, models.ErrNotFound
		}
		return 0, fmt.Errorf("task %s has no consumed slot to release", id)
	}
	return remaining, err
}

// ListAvailable returns open tasks matching f, newest first, with the total match count.
func (r *TaskRepo) ListAvailable(ctx context.Context, f models.TaskFilter) ([]*models.Task, int, error) {
	where := []string{"required_workers > 0"}
	var args []any
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("title ILIKE $%d", len(args)))
	}
	if f.RewardMin > 0 {
		args = append(args, f.RewardMin)
		where = append(where, fmt.Sprintf("payable_amount >= $%d", len(args)))
	}
	if f.RewardMax > 0 {
		args = append(args, f.RewardMax)
		where = append(where, fmt.Sprintf("payable_amount <= $%d", len(args)))
	}
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER ()
		FROM tasks WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, taskColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var (
		list  []*models.Task
		total int
	)
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.BuyerID, &t.Title, &t.Detail, &t.SubmissionInfo, &t.ImageURL, &t.PayableAmount,
			&t.RequiredWorkers, &t.InitialWorkers, &t.CompletionDate, &t.CreatedAt, &t.UpdatedAt, &total); err != nil {
			return nil, 0, err
		}
		list = append(list, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(list) == 0 && f.Page > 1 {
		// Past the last page the window function has no row to report on.
		if err := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM tasks WHERE %s`, strings.Join(where, " AND ")), args[:len(args)-2]...).Scan(&total); err != nil {
			return nil, 0, err
		}
	}
	return list, total, nil
}

func (r *TaskRepo) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*models.Task, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE buyer_id = $1 ORDER BY completion_date DESC NULLS LAST, created_at DESC`, buyerID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanTask)
}

func (r *TaskRepo) ListAll(ctx context.Context) ([]*models.Task, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanTask)
}
