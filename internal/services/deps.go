package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taskcoin/backend/internal/models"
)

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CoinLedger moves coins in and out of accounts inside the caller's transaction.
type CoinLedger interface {
	Credit(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount int64, entryType string, refID *uuid.UUID) (int64, error)
	Debit(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount int64, entryType string, refID *uuid.UUID) (int64, error)
}

// Notifier queues a user-facing notification. Delivery happens only if tx commits.
type Notifier interface {
	Notify(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, message, actionRoute string) error
}

// TaskRepo is the task persistence surface.
type TaskRepo interface {
	Create(ctx context.Context, tx pgx.Tx, t *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Task, error)
	UpdateDetails(ctx context.Context, tx pgx.Tx, id uuid.UUID, title, detail, submissionInfo string) (*models.Task, error)
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	ConsumeSlot(ctx context.Context, tx pgx.Tx, id uuid.UUID) (remaining int64, err error)
	ReleaseSlot(ctx context.Context, tx pgx.Tx, id uuid.UUID) (remaining int64, err error)
	ListAvailable(ctx context.Context, f models.TaskFilter) ([]*models.Task, int, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*models.Task, error)
	ListAll(ctx context.Context) ([]*models.Task, error)
}

// SubmissionRepo is the submission persistence surface.
type SubmissionRepo interface {
	Create(ctx context.Context, tx pgx.Tx, s *models.Submission) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	HasActive(ctx context.Context, tx pgx.Tx, taskID, workerID uuid.UUID) (bool, error)
	Transition(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to string) (*models.Submission, error)
	RejectPendingForTask(ctx context.Context, tx pgx.Tx, taskID uuid.UUID) ([]*models.Submission, error)
	ListByWorker(ctx context.Context, workerID uuid.UUID, status string, limit, offset int) ([]*models.Submission, int, error)
	ListPendingForBuyer(ctx context.Context, buyerID uuid.UUID) ([]*models.Submission, error)
}

// WithdrawalRepo is the withdrawal persistence surface.
type WithdrawalRepo interface {
	Create(ctx context.Context, tx pgx.Tx, w *models.Withdrawal) error
	Transition(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to string, processedBy uuid.UUID) (*models.Withdrawal, error)
	ListByWorker(ctx context.Context, workerID uuid.UUID) ([]*models.Withdrawal, error)
	ListByStatus(ctx context.Context, status string) ([]*models.Withdrawal, error)
}

// ReportRepo is the report persistence surface.
type ReportRepo interface {
	Create(ctx context.Context, r *models.Report) error
	List(ctx context.Context, status string) ([]*models.Report, error)
	Resolve(ctx context.Context, id uuid.UUID) (*models.Report, error)
}

// SubmissionReader looks up a single submission.
type SubmissionReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
}

// PurchaseRepo is the coin purchase persistence surface.
type PurchaseRepo interface {
	// Insert reports false when the confirmation token was already recorded.
	Insert(ctx context.Context, tx pgx.Tx, p *models.CoinPurchase) (bool, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*models.CoinPurchase, error)
}

// AccountRepo is the account persistence surface used by administration.
type AccountRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role string) (*models.Account, error)
	HasOpenObligations(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// AccountLocker keeps an account from being deleted while tx is open.
type AccountLocker interface {
	LockForShare(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// ConservationReader computes the two sides of the coin conservation equation.
type ConservationReader interface {
	Conservation(ctx context.Context) (models.ConservationReport, error)
}
