package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskcoin/backend/internal/models"
)

const accountColumns = `id, email, name, photo_url, password_hash, role, coin, created_at, updated_at`

type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Email, &a.Name, &a.PhotoURL, &a.PasswordHash, &a.Role, &a.Coin, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

// GetByIDForUpdate locks the account row for update. Call within a transaction.
func (r *AccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Account, error) {
	return scanAccount(tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id))
}

// LockForShare holds the account row against deletion until tx ends.
func (r *AccountRepo) LockForShare(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	var locked uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM accounts WHERE id = $1 FOR SHARE`, id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}
	return err
}

func (r *AccountRepo) List(ctx context.Context) ([]*models.Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanAccount)
}

func (r *AccountRepo) UpdateRole(ctx context.Context, id uuid.UUID, role string) (*models.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `
		UPDATE accounts SET role = $2, updated_at = now() WHERE id = $1
		RETURNING `+accountColumns, id, role))
}

// HasOpenObligations reports whether deleting the account would strand coins:
// open tasks, pending submissions on either side, or pending withdrawals.
func (r *AccountRepo) HasOpenObligations(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	return exists(ctx, tx, `
		SELECT EXISTS (SELECT 1 FROM tasks WHERE buyer_id = $1 AND required_workers > 0)
		    OR EXISTS (SELECT 1 FROM submissions WHERE status = 'pending' AND (worker_id = $1 OR buyer_id = $1))
		    OR EXISTS (SELECT 1 FROM withdrawals WHERE status = 'pending' AND worker_id = $1)
	`, id)
}

func (r *AccountRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
