package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskcoin/backend/internal/models"
)

type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

// Insert is idempotent on id so a retried job does not duplicate the row.
// Rows for accounts deleted in the meantime are dropped.
func (r *NotificationRepo) Insert(ctx context.Context, n *models.Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, account_id, message, action_route, created_at)
		SELECT $1, $2, $3, $4, $5
		WHERE EXISTS (SELECT 1 FROM accounts WHERE id = $2)
		ON CONFLICT (id) DO NOTHING
	`, n.ID, n.AccountID, n.Message, n.ActionRoute, n.CreatedAt)
	return err
}

func (r *NotificationRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, message, action_route, created_at
		FROM notifications WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.Row) (*models.Notification, error) {
		var n models.Notification
		if err := row.Scan(&n.ID, &n.AccountID, &n.Message, &n.ActionRoute, &n.CreatedAt); err != nil {
			return nil, err
		}
		return &n, nil
	})
}
