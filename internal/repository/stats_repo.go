package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskcoin/backend/internal/models"
)

type StatsRepo struct {
	pool *pgxpool.Pool
}

func NewStatsRepo(pool *pgxpool.Pool) *StatsRepo {
	return &StatsRepo{pool: pool}
}

func (r *StatsRepo) Admin(ctx context.Context) (models.AdminStats, error) {
	var s models.AdminStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM accounts WHERE role = 'worker'),
			(SELECT COUNT(*) FROM accounts WHERE role = 'buyer'),
			(SELECT COALESCE(SUM(coin), 0)::bigint FROM accounts),
			(SELECT COALESCE(SUM(price), 0) FROM coin_purchases)
	`).Scan(&s.TotalWorkers, &s.TotalBuyers, &s.TotalCoins, &s.TotalPayments)
	return s, err
}

func (r *StatsRepo) Buyer(ctx context.Context, buyerID uuid.UUID) (models.BuyerStats, error) {
	var s models.BuyerStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM tasks WHERE buyer_id = $1),
			(SELECT COALESCE(SUM(required_workers), 0)::bigint FROM tasks WHERE buyer_id = $1),
			(SELECT COALESCE(SUM(price), 0) FROM coin_purchases WHERE buyer_id = $1)
	`, buyerID).Scan(&s.TotalTasks, &s.PendingWorkers, &s.TotalPayment)
	return s, err
}

func (r *StatsRepo) Worker(ctx context.Context, workerID uuid.UUID) (models.WorkerStats, error) {
	var s models.WorkerStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COALESCE(SUM(payable_amount) FILTER (WHERE status = 'approved'), 0)::bigint
		FROM submissions WHERE worker_id = $1
	`, workerID).Scan(&s.TotalSubmissions, &s.PendingSubmissions, &s.TotalEarning)
	return s, err
}

// TopWorkers returns the richest workers, ties broken by the oldest account.
func (r *StatsRepo) TopWorkers(ctx context.Context, limit int) ([]*models.TopWorker, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, photo_url, coin
		FROM accounts
		WHERE role = 'worker'
		ORDER BY coin DESC, created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.Row) (*models.TopWorker, error) {
		w := &models.TopWorker{}
		return w, row.Scan(&w.ID, &w.Name, &w.PhotoURL, &w.Coin)
	})
}

// Conservation reads both sides of the coin conservation equation in one snapshot.
func (r *StatsRepo) Conservation(ctx context.Context) (models.ConservationReport, error) {
	var c models.ConservationReport
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COALESCE(SUM(coin), 0)::bigint FROM accounts),
			(SELECT COALESCE(SUM(required_workers * payable_amount), 0)::bigint FROM tasks),
			(SELECT COALESCE(SUM(payable_amount), 0)::bigint FROM submissions WHERE status = 'pending'),
			(SELECT COALESCE(SUM(withdrawal_coin), 0)::bigint FROM withdrawals WHERE status = 'pending'),
			(SELECT COALESCE(SUM(amount), 0)::bigint FROM coin_ledger WHERE entry_type = 'registration_bonus'),
			(SELECT COALESCE(SUM(coins), 0)::bigint FROM coin_purchases),
			(SELECT COALESCE(SUM(withdrawal_coin), 0)::bigint FROM withdrawals WHERE status = 'approved'),
			(SELECT COALESCE(SUM(amount), 0)::bigint FROM coin_ledger WHERE entry_type = 'account_closure')
	`).Scan(&c.AccountBalances, &c.TaskEscrow, &c.SubmissionEscrow, &c.PendingWithdrawals,
		&c.RegistrationBonuses, &c.Purchases, &c.ApprovedWithdrawals, &c.Forfeited)
	return c, err
}
