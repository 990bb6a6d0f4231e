package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Withdrawal statuses.
const (
	WithdrawalPending  = "pending"
	WithdrawalApproved = "approved"
	WithdrawalRejected = "rejected"
)

type Withdrawal struct {
	ID               uuid.UUID       `json:"id"`
	WorkerID         uuid.UUID       `json:"worker_id"`
	WorkerName       string          `json:"worker_name,omitempty"`
	WithdrawalCoin   int64           `json:"withdrawal_coin"`
	WithdrawalAmount decimal.Decimal `json:"withdrawal_amount"`
	PaymentSystem    string          `json:"payment_system"`
	AccountRef       string          `json:"account_ref"`
	Status           string          `json:"status"`
	RequestedAt      time.Time       `json:"requested_at"`
	ProcessedAt      *time.Time      `json:"processed_at,omitempty"`
	ProcessedBy      *uuid.UUID      `json:"processed_by,omitempty"`
}

// WithdrawalRequest is the worker input for a cash-out.
type WithdrawalRequest struct {
	Coin          int64  `json:"withdrawal_coin"`
	PaymentSystem string `json:"payment_system"`
	AccountRef    string `json:"account_ref"`
}
