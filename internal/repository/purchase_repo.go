package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskcoin/backend/internal/models"
)

type PurchaseRepo struct {
	pool *pgxpool.Pool
}

func NewPurchaseRepo(pool *pgxpool.Pool) *PurchaseRepo {
	return &PurchaseRepo{pool: pool}
}

// Insert records a purchase once per confirmation token. It reports false,
// without error, when the token was already used.
func (r *PurchaseRepo) Insert(ctx context.Context, tx pgx.Tx, p *models.CoinPurchase) (bool, error) {
	err := tx.QueryRow(ctx, `
		INSERT INTO coin_purchases (id, buyer_id, coins, price, confirmation_token)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (confirmation_token) DO NOTHING
		RETURNING created_at
	`, p.ID, p.BuyerID, p.Coins, p.Price, p.ConfirmationToken).Scan(&p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *PurchaseRepo) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*models.CoinPurchase, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, buyer_id, coins, price, confirmation_token, created_at
		FROM coin_purchases WHERE buyer_id = $1
		ORDER BY created_at DESC
	`, buyerID)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.Row) (*models.CoinPurchase, error) {
		var p models.CoinPurchase
		if err := row.Scan(&p.ID, &p.BuyerID, &p.Coins, &p.Price, &p.ConfirmationToken, &p.CreatedAt); err != nil {
			return nil, err
		}
		return &p, nil
	})
}
