package models

import (
	"time"

	"github.com/google/uuid"
)

// Coin ledger entry_type values. Credits add to the account, debits subtract.
const (
	EntryRegistrationBonus = "registration_bonus"
	EntryCoinPurchase      = "coin_purchase"
	EntryEscrowLock        = "escrow_lock"
	EntryEscrowRefund      = "escrow_refund"
	EntryTaskEarning       = "task_earning"
	EntryWithdrawalHold    = "withdrawal_hold"
	EntryWithdrawalRefund  = "withdrawal_refund"
	EntryAccountClosure    = "account_closure"
)

// IsDebit reports whether entries of this type subtract from the balance.
func IsDebit(entryType string) bool {
	switch entryType {
	case EntryEscrowLock, EntryWithdrawalHold, EntryAccountClosure:
		return true
	}
	return false
}

type LedgerEntry struct {
	ID           uuid.UUID  `json:"id"`
	AccountID    uuid.UUID  `json:"account_id"`
	EntryType    string     `json:"entry_type"`
	Amount       int64      `json:"amount"`
	BalanceAfter int64      `json:"balance_after"`
	RefID        *uuid.UUID `json:"ref_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// SignedAmount is the balance delta the entry applied to its account.
func (e *LedgerEntry) SignedAmount() int64 {
	if IsDebit(e.EntryType) {
		return -e.Amount
	}
	return e.Amount
}
