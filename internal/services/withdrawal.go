package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/taskcoin/backend/internal/metrics"
	"github.com/taskcoin/backend/internal/models"
)

// WithdrawalPolicy holds the cash-out rules.
type WithdrawalPolicy struct {
	MinCoins       int64
	CoinsPerDollar int64
	PaymentSystems []string
}

// WithdrawalProcessor converts worker coins into pending cash-out requests and
// lets an admin settle or reject them.
type WithdrawalProcessor struct {
	Pool        TxBeginner
	Withdrawals WithdrawalRepo
	Ledger      CoinLedger
	Notifier    Notifier
	Policy      WithdrawalPolicy
	Logger      *slog.Logger
}

func NewWithdrawalProcessor(pool TxBeginner, withdrawals WithdrawalRepo, ledger CoinLedger, notifier Notifier, policy WithdrawalPolicy, logger *slog.Logger) *WithdrawalProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &WithdrawalProcessor{Pool: pool, Withdrawals: withdrawals, Ledger: ledger, Notifier: notifier, Policy: policy, Logger: logger}
}

// Amount converts coins to dollars at the configured rate, rounded to cents.
func (p *WithdrawalProcessor) Amount(coin int64) decimal.Decimal {
	return decimal.NewFromInt(coin).Div(decimal.NewFromInt(p.Policy.CoinsPerDollar)).Round(2)
}

// Request debits the coins immediately and records a pending withdrawal.
func (p *WithdrawalProcessor) Request(ctx context.Context, actor *models.Account, req models.WithdrawalRequest) (wd *models.Withdrawal, err error) {
	defer func() { observe("request_withdrawal", err) }()

	if !isRole(actor, models.RoleWorker) {
		return nil, models.ErrForbidden
	}
	system, ok := p.paymentSystem(req.PaymentSystem)
	if !ok {
		return nil, fmt.Errorf("unsupported payment system %q: %w", req.PaymentSystem, models.ErrInvalidInput)
	}
	ref := strings.TrimSpace(req.AccountRef)
	if ref == "" {
		return nil, fmt.Errorf("account_ref is required: %w", models.ErrInvalidInput)
	}
	if req.Coin < p.Policy.MinCoins {
		return nil, models.ErrBelowMinimum
	}

	wd = &models.Withdrawal{
		ID:               uuid.New(),
		WorkerID:         actor.ID,
		WorkerName:       actor.Name,
		WithdrawalCoin:   req.Coin,
		WithdrawalAmount: p.Amount(req.Coin),
		PaymentSystem:    system,
		AccountRef:       ref,
		Status:           models.WithdrawalPending,
	}

	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := p.Ledger.Debit(ctx, tx, actor.ID, req.Coin, models.EntryWithdrawalHold, &wd.ID); err != nil {
		return nil, err
	}
	if err := p.Withdrawals.Create(ctx, tx, wd); err != nil {
		return nil, fmt.Errorf("create withdrawal: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	metrics.RecordMovement(models.EntryWithdrawalHold, req.Coin)
	metrics.RecordTransition("withdrawal", models.WithdrawalPending)
	p.Logger.Info("withdrawal requested", "withdrawal_id", wd.ID, "worker_id", actor.ID, "coin", req.Coin, "amount", wd.WithdrawalAmount.String())
	return wd, nil
}

// Approve marks a pending withdrawal as paid out. The coins were already debited.
func (p *WithdrawalProcessor) Approve(ctx context.Context, actor *models.Account, id uuid.UUID) (wd *models.Withdrawal, err error) {
	defer func() { observe("approve_withdrawal", err) }()

	if !isRole(actor, models.RoleAdmin) {
		return nil, models.ErrForbidden
	}

	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	wd, err = p.Withdrawals.Transition(ctx, tx, id, models.WithdrawalPending, models.WithdrawalApproved, actor.ID)
	if err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Your withdrawal of $%s via %s has been approved", wd.WithdrawalAmount.StringFixed(2), wd.PaymentSystem)
	if err := p.Notifier.Notify(ctx, tx, wd.WorkerID, msg, "/dashboard/withdrawals"); err != nil {
		return nil, fmt.Errorf("notify worker: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	metrics.RecordTransition("withdrawal", models.WithdrawalApproved)
	p.Logger.Info("withdrawal approved", "withdrawal_id", id, "admin_id", actor.ID)
	return wd, nil
}

// Reject returns the held coins to the worker.
func (p *WithdrawalProcessor) Reject(ctx context.Context, actor *models.Account, id uuid.UUID) (wd *models.Withdrawal, err error) {
	defer func() { observe("reject_withdrawal", err) }()

	if !isRole(actor, models.RoleAdmin) {
		return nil, models.ErrForbidden
	}

	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	wd, err = p.Withdrawals.Transition(ctx, tx, id, models.WithdrawalPending, models.WithdrawalRejected, actor.ID)
	if err != nil {
		return nil, err
	}
	if _, err := p.Ledger.Credit(ctx, tx, wd.WorkerID, wd.WithdrawalCoin, models.EntryWithdrawalRefund, &wd.ID); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Your withdrawal of %d coins was rejected and the coins returned to your balance", wd.WithdrawalCoin)
	if err := p.Notifier.Notify(ctx, tx, wd.WorkerID, msg, "/dashboard/withdrawals"); err != nil {
		return nil, fmt.Errorf("notify worker: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	metrics.RecordMovement(models.EntryWithdrawalRefund, wd.WithdrawalCoin)
	metrics.RecordTransition("withdrawal", models.WithdrawalRejected)
	p.Logger.Info("withdrawal rejected", "withdrawal_id", id, "admin_id", actor.ID, "refund", wd.WithdrawalCoin)
	return wd, nil
}

// ListForWorker returns the actor's own withdrawals.
func (p *WithdrawalProcessor) ListForWorker(ctx context.Context, actor *models.Account) ([]*models.Withdrawal, error) {
	if !isRole(actor, models.RoleWorker) {
		return nil, models.ErrForbidden
	}
	return p.Withdrawals.ListByWorker(ctx, actor.ID)
}

// ListPending returns withdrawals awaiting an admin decision.
func (p *WithdrawalProcessor) ListPending(ctx context.Context, actor *models.Account) ([]*models.Withdrawal, error) {
	if !isRole(actor, models.RoleAdmin) {
		return nil, models.ErrForbidden
	}
	return p.Withdrawals.ListByStatus(ctx, models.WithdrawalPending)
}

func (p *WithdrawalProcessor) paymentSystem(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, s := range p.Policy.PaymentSystems {
		if strings.EqualFold(s, name) {
			return s, true
		}
	}
	return "", false
}
