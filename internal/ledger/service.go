// Package ledger implements the account coin ledger: atomic credits and debits
// against accounts.coin, each journaled in coin_ledger with the resulting balance.
package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taskcoin/backend/internal/models"
)

// Store is the persistence surface the ledger needs. All calls run inside the caller's transaction.
type Store interface {
	GetBalanceForUpdate(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int64, error)
	Deduct(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount int64) (newBalance int64, err error)
	Add(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount int64) (newBalance int64, err error)
	InsertEntry(ctx context.Context, tx pgx.Tx, e *models.LedgerEntry) error
}

// Ledger applies balance changes. It never commits; the caller's transaction
// makes the balance change and its journal row visible together or not at all.
type Ledger struct {
	store Store
}

func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// Credit adds amount to the account and returns the new balance.
func (l *Ledger) Credit(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount int64, entryType string, refID *uuid.UUID) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount %d: %w", amount, models.ErrInvalidInput)
	}
	if models.IsDebit(entryType) {
		return 0, fmt.Errorf("credit with debit entry type %q: %w", entryType, models.ErrInvalidInput)
	}
	if _, err := l.store.GetBalanceForUpdate(ctx, tx, accountID); err != nil {
		return 0, err
	}
	balance, err := l.store.Add(ctx, tx, accountID, amount)
	if err != nil {
		return 0, err
	}
	if err := l.journal(ctx, tx, accountID, amount, balance, entryType, refID); err != nil {
		return 0, err
	}
	return balance, nil
}

// Debit subtracts amount from the account and returns the new balance.
// It fails with models.ErrInsufficientFunds, leaving the balance untouched,
// when the account holds less than amount.
func (l *Ledger) Debit(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount int64, entryType string, refID *uuid.UUID) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount %d: %w", amount, models.ErrInvalidInput)
	}
	if !models.IsDebit(entryType) {
		return 0, fmt.Errorf("debit with credit entry type %q: %w", entryType, models.ErrInvalidInput)
	}
	current, err := l.store.GetBalanceForUpdate(ctx, tx, accountID)
	if err != nil {
		return 0, err
	}
	if current < amount {
		return 0, models.ErrInsufficientFunds
	}
	balance, err := l.store.Deduct(ctx, tx, accountID, amount)
	if err != nil {
		return 0, err
	}
	if err := l.journal(ctx, tx, accountID, amount, balance, entryType, refID); err != nil {
		return 0, err
	}
	return balance, nil
}

func (l *Ledger) journal(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount, balance int64, entryType string, refID *uuid.UUID) error {
	entry := &models.LedgerEntry{
		ID:           uuid.New(),
		AccountID:    accountID,
		EntryType:    entryType,
		Amount:       amount,
		BalanceAfter: balance,
		RefID:        refID,
	}
	if err := l.store.InsertEntry(ctx, tx, entry); err != nil {
		return fmt.Errorf("journal %s: %w", entryType, err)
	}
	return nil
}
