package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/taskcoin/backend/internal/metrics"
	"github.com/taskcoin/backend/internal/models"
)

// AccountAdmin covers user management and the conservation audit.
type AccountAdmin struct {
	Pool     TxBeginner
	Accounts AccountRepo
	Ledger   CoinLedger
	Audits   ConservationReader
	Logger   *slog.Logger
}

func NewAccountAdmin(pool TxBeginner, accounts AccountRepo, ledger CoinLedger, audits ConservationReader, logger *slog.Logger) *AccountAdmin {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountAdmin{Pool: pool, Accounts: accounts, Ledger: ledger, Audits: audits, Logger: logger}
}

// List returns every account; admin only.
func (a *AccountAdmin) List(ctx context.Context, actor *models.Account) ([]*models.Account, error) {
	if !isRole(actor, models.RoleAdmin) {
		return nil, models.ErrForbidden
	}
	return a.Accounts.List(ctx)
}

// UpdateRole changes an account's role. Admins cannot demote themselves.
func (a *AccountAdmin) UpdateRole(ctx context.Context, actor *models.Account, id uuid.UUID, role string) (acc *models.Account, err error) {
	defer func() { observe("update_role", err) }()

	if !isRole(actor, models.RoleAdmin) {
		return nil, models.ErrForbidden
	}
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("unknown role %q: %w", role, models.ErrInvalidInput)
	}
	if actor.ID == id && role != models.RoleAdmin {
		return nil, models.ErrForbidden
	}
	acc, err = a.Accounts.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, err
	}
	a.Logger.Info("role updated", "account_id", id, "role", role, "admin_id", actor.ID)
	return acc, nil
}

// Delete removes an account that has no open tasks, pending submissions or
// pending withdrawals. Any remaining balance is journaled as forfeited.
func (a *AccountAdmin) Delete(ctx context.Context, actor *models.Account, id uuid.UUID) (err error) {
	defer func() { observe("delete_account", err) }()

	if !isRole(actor, models.RoleAdmin) || actor.ID == id {
		return models.ErrForbidden
	}

	tx, err := a.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	acc, err := a.Accounts.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}
	busy, err := a.Accounts.HasOpenObligations(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("check obligations: %w", err)
	}
	if busy {
		return models.ErrAccountInUse
	}
	if acc.Coin > 0 {
		if _, err := a.Ledger.Debit(ctx, tx, id, acc.Coin, models.EntryAccountClosure, nil); err != nil {
			return err
		}
	}
	if err := a.Accounts.Delete(ctx, tx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	metrics.RecordMovement(models.EntryAccountClosure, acc.Coin)
	a.Logger.Info("account deleted", "account_id", id, "forfeited", acc.Coin, "admin_id", actor.ID)
	return nil
}

// Audit evaluates coin conservation across the whole system.
func (a *AccountAdmin) Audit(ctx context.Context) (models.ConservationReport, error) {
	report, err := a.Audits.Conservation(ctx)
	if err != nil {
		return report, fmt.Errorf("conservation query: %w", err)
	}
	if !report.Balanced() {
		a.Logger.Error("coin conservation violated", "held", report.Held(), "issued", report.Issued())
	}
	return report, nil
}
