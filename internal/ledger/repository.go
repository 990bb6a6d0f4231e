package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskcoin/backend/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Store = (*Repository)(nil)

// GetBalanceForUpdate locks the account row. Call within a transaction.
func (r *Repository) GetBalanceForUpdate(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int64, error) {
	var coin int64
	err := tx.QueryRow(ctx, `SELECT coin FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&coin)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, models.ErrNotFound
	}
	return coin, err
}

// Deduct subtracts amount only if the balance covers it.
func (r *Repository) Deduct(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount int64) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx, `
		UPDATE accounts SET coin = coin - $1, updated_at = now()
		WHERE id = $2 AND coin >= $1
		RETURNING coin
	`, amount, accountID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, models.ErrInsufficientFunds
	}
	return balance, err
}

func (r *Repository) Add(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount int64) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx, `
		UPDATE accounts SET coin = coin + $1, updated_at = now()
		WHERE id = $2
		RETURNING coin
	`, amount, accountID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, models.ErrNotFound
	}
	return balance, err
}

func (r *Repository) InsertEntry(ctx context.Context, tx pgx.Tx, e *models.LedgerEntry) error {
	return tx.QueryRow(ctx, `
		INSERT INTO coin_ledger (id, account_id, entry_type, amount, balance_after, ref_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, e.ID, e.AccountID, e.EntryType, e.Amount, e.BalanceAfter, e.RefID).Scan(&e.CreatedAt)
}

// ListByAccount returns the most recent entries for an account, newest first.
func (r *Repository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*models.LedgerEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, entry_type, amount, balance_after, ref_id, created_at
		FROM coin_ledger WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.AccountID, &e.EntryType, &e.Amount, &e.BalanceAfter, &e.RefID, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
