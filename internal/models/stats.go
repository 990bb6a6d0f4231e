package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AdminStats struct {
	TotalWorkers  int64           `json:"total_workers"`
	TotalBuyers   int64           `json:"total_buyers"`
	TotalCoins    int64           `json:"total_coins"`
	TotalPayments decimal.Decimal `json:"total_payments"`
}

type BuyerStats struct {
	TotalTasks     int64           `json:"total_tasks"`
	PendingWorkers int64           `json:"pending_workers"`
	TotalPayment   decimal.Decimal `json:"total_payment"`
}

type WorkerStats struct {
	TotalSubmissions   int64 `json:"total_submissions"`
	PendingSubmissions int64 `json:"pending_submissions"`
	TotalEarning       int64 `json:"total_earning"`
}

// ConservationReport holds both sides of the coin conservation equation.
//
//	balances + open task escrow + pending submission escrow + pending withdrawals
//	  == bonuses + purchases - approved withdrawals - balances forfeited on account deletion
type ConservationReport struct {
	AccountBalances     int64 `json:"account_balances"`
	TaskEscrow          int64 `json:"task_escrow"`
	SubmissionEscrow    int64 `json:"submission_escrow"`
	PendingWithdrawals  int64 `json:"pending_withdrawals"`
	RegistrationBonuses int64 `json:"registration_bonuses"`
	Purchases           int64 `json:"purchases"`
	ApprovedWithdrawals int64 `json:"approved_withdrawals"`
	Forfeited           int64 `json:"forfeited"`
}

// Held is the left-hand side: coins currently held anywhere in the system.
func (c ConservationReport) Held() int64 {
	return c.AccountBalances + c.TaskEscrow + c.SubmissionEscrow + c.PendingWithdrawals
}

// Issued is the right-hand side: coins minted minus coins paid out.
func (c ConservationReport) Issued() int64 {
	return c.RegistrationBonuses + c.Purchases - c.ApprovedWithdrawals - c.Forfeited
}

// Balanced reports whether no coins were created or destroyed.
func (c ConservationReport) Balanced() bool {
	return c.Held() == c.Issued()
}

// TopWorker is the public leaderboard view of a worker account.
type TopWorker struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	PhotoURL string    `json:"photo_url,omitempty"`
	Coin     int64     `json:"coin"`
}
