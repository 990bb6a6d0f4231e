package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskcoin/backend/internal/models"
)

const withdrawalColumns = `id, worker_id, worker_name, withdrawal_coin, withdrawal_amount, payment_system,
	account_ref, status, requested_at, processed_at, processed_by`

type WithdrawalRepo struct {
	pool *pgxpool.Pool
}

func NewWithdrawalRepo(pool *pgxpool.Pool) *WithdrawalRepo {
	return &WithdrawalRepo{pool: pool}
}

func scanWithdrawal(row pgx.Row) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := row.Scan(&w.ID, &w.WorkerID, &w.WorkerName, &w.WithdrawalCoin, &w.WithdrawalAmount, &w.PaymentSystem,
		&w.AccountRef, &w.Status, &w.RequestedAt, &w.ProcessedAt, &w.ProcessedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WithdrawalRepo) Create(ctx context.Context, tx pgx.Tx, w *models.Withdrawal) error {
	return tx.QueryRow(ctx, `
		INSERT INTO withdrawals (id, worker_id, worker_name, withdrawal_coin, withdrawal_amount, payment_system, account_ref, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING requested_at
	`, w.ID, w.WorkerID, w.WorkerName, w.WithdrawalCoin, w.WithdrawalAmount, w.PaymentSystem, w.AccountRef, w.Status).
		Scan(&w.RequestedAt)
}

// Transition settles a withdrawal, recording who processed it.
func (r *WithdrawalRepo) Transition(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to string, processedBy uuid.UUID) (*models.Withdrawal, error) {
	w, err := scanWithdrawal(tx.QueryRow(ctx, `
		UPDATE withdrawals SET status = $3, processed_at = now(), processed_by = $4
		WHERE id = $1 AND status = $2
		RETURNING `+withdrawalColumns, id, from, to, processedBy))
	if errors.Is(err, models.ErrNotFound) {
		found, qerr := exists(ctx, tx, `SELECT EXISTS(SELECT 1 FROM withdrawals WHERE id = $1)`, id)
		if qerr != nil {
			return nil, qerr
		}
		if found {
			return nil, models.ErrAlreadyFinalized
		}
	}
	return w, err
}

func (r *WithdrawalRepo) ListByWorker(ctx context.Context, workerID uuid.UUID) ([]*models.Withdrawal, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE worker_id = $1 ORDER BY requested_at DESC`, workerID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanWithdrawal)
}

func (r *WithdrawalRepo) ListByStatus(ctx context.Context, status string) ([]*models.Withdrawal, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE status = $1 ORDER BY requested_at`, status)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanWithdrawal)
}
