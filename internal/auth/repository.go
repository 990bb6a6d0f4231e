package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskcoin/backend/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new account with a zero balance. Call within a transaction.
func (r *Repository) Create(ctx context.Context, tx pgx.Tx, a *models.Account) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO accounts (id, email, name, photo_url, password_hash, role, coin)
		VALUES ($1, $2, $3, $4, $5, $6, 0)
		RETURNING coin, created_at, updated_at
	`, a.ID, a.Email, a.Name, a.PhotoURL, a.PasswordHash, a.Role).Scan(&a.Coin, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// GetByEmail returns the account, including its password hash, for login.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, photo_url, password_hash, role, coin, created_at, updated_at
		FROM accounts WHERE lower(email) = $1
	`, strings.ToLower(email)).Scan(&a.ID, &a.Email, &a.Name, &a.PhotoURL, &a.PasswordHash, &a.Role, &a.Coin, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
