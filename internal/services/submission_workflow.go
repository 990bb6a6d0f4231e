package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taskcoin/backend/internal/metrics"
	"github.com/taskcoin/backend/internal/models"
)

// SlotManager consumes and releases task slots inside a transaction.
type SlotManager interface {
	ConsumeSlot(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int64, error)
	ReleaseSlot(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int64, error)
}

// SubmissionWorkflow drives submissions from pending to approved or rejected.
// Locks are always taken task, then submission, then account.
type SubmissionWorkflow struct {
	Pool        TxBeginner
	Tasks       TaskRepo
	Slots       SlotManager
	Submissions SubmissionRepo
	Accounts    AccountLocker
	Ledger      CoinLedger
	Notifier    Notifier
	Logger      *slog.Logger
}

func NewSubmissionWorkflow(pool TxBeginner, tasks TaskRepo, slots SlotManager, submissions SubmissionRepo, accounts AccountLocker, ledger CoinLedger, notifier Notifier, logger *slog.Logger) *SubmissionWorkflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmissionWorkflow{Pool: pool, Tasks: tasks, Slots: slots, Submissions: submissions, Accounts: accounts, Ledger: ledger, Notifier: notifier, Logger: logger}
}

// Create records a worker's proof of work and consumes one slot of the task.
func (w *SubmissionWorkflow) Create(ctx context.Context, actor *models.Account, taskID uuid.UUID, details string) (sub *models.Submission, err error) {
	defer func() { observe("create_submission", err) }()

	if !isRole(actor, models.RoleWorker) {
		return nil, models.ErrForbidden
	}
	details = strings.TrimSpace(details)
	if details == "" {
		return nil, fmt.Errorf("submission details are required: %w", models.ErrInvalidInput)
	}

	tx, err := w.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	task, err := w.Tasks.GetByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		if errTaskGone(err) {
			return nil, models.ErrTaskNotFound
		}
		return nil, err
	}
	if task.Status() == models.TaskStatusExhausted {
		return nil, models.ErrQuotaExhausted
	}
	// A deletion of the worker waits for this tx and then sees the pending submission.
	if err := w.Accounts.LockForShare(ctx, tx, actor.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("worker account: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("lock worker account: %w", err)
	}
	active, err := w.Submissions.HasActive(ctx, tx, taskID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if active {
		return nil, models.ErrDuplicateSubmission
	}
	if _, err := w.Slots.ConsumeSlot(ctx, tx, taskID); err != nil {
		return nil, err
	}

	sub = &models.Submission{
		ID:            uuid.New(),
		TaskID:        &task.ID,
		TaskTitle:     task.Title,
		BuyerID:       task.BuyerID,
		WorkerID:      actor.ID,
		WorkerName:    actor.Name,
		Details:       details,
		PayableAmount: task.PayableAmount,
		Status:        models.SubmissionPending,
	}
	if err := w.Submissions.Create(ctx, tx, sub); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("%s submitted work for %q", displayName(actor), task.Title)
	if err := w.Notifier.Notify(ctx, tx, task.BuyerID, msg, "/dashboard/buyer-home"); err != nil {
		return nil, fmt.Errorf("notify buyer: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	metrics.RecordTransition("submission", models.SubmissionPending)
	w.Logger.Info("submission created", "submission_id", sub.ID, "task_id", taskID, "worker_id", actor.ID)
	return sub, nil
}

// Approve pays the worker the snapshotted payable amount. A submission is paid at most once.
func (w *SubmissionWorkflow) Approve(ctx context.Context, actor *models.Account, id uuid.UUID) (sub *models.Submission, err error) {
	defer func() { observe("approve_submission", err) }()

	if _, err := w.authorizeReview(ctx, actor, id); err != nil {
		return nil, err
	}

	tx, err := w.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	sub, err = w.Submissions.Transition(ctx, tx, id, models.SubmissionPending, models.SubmissionApproved)
	if err != nil {
		return nil, err
	}
	if _, err := w.Ledger.Credit(ctx, tx, sub.WorkerID, sub.PayableAmount, models.EntryTaskEarning, &sub.ID); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("You have earned %d coins from %s for completing %q", sub.PayableAmount, displayName(actor), sub.TaskTitle)
	if err := w.Notifier.Notify(ctx, tx, sub.WorkerID, msg, "/dashboard/worker-home"); err != nil {
		return nil, fmt.Errorf("notify worker: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	metrics.RecordMovement(models.EntryTaskEarning, sub.PayableAmount)
	metrics.RecordTransition("submission", models.SubmissionApproved)
	w.Logger.Info("submission approved", "submission_id", id, "worker_id", sub.WorkerID, "coins", sub.PayableAmount)
	return sub, nil
}

// Reject finalizes the submission without payment and returns its slot to the task.
func (w *SubmissionWorkflow) Reject(ctx context.Context, actor *models.Account, id uuid.UUID) (sub *models.Submission, err error) {
	defer func() { observe("reject_submission", err) }()

	current, err := w.authorizeReview(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	tx, err := w.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	taskLive := false
	if current.TaskID != nil {
		_, err := w.Tasks.GetByIDForUpdate(ctx, tx, *current.TaskID)
		switch {
		case err == nil:
			taskLive = true
		case !errTaskGone(err):
			return nil, err
		}
	}

	sub, err = w.Submissions.Transition(ctx, tx, id, models.SubmissionPending, models.SubmissionRejected)
	if err != nil {
		return nil, err
	}
	if taskLive {
		if _, err := w.Slots.ReleaseSlot(ctx, tx, *current.TaskID); err != nil {
			return nil, err
		}
	}
	msg := fmt.Sprintf("Your submission for %q was rejected by %s", sub.TaskTitle, displayName(actor))
	if err := w.Notifier.Notify(ctx, tx, sub.WorkerID, msg, "/dashboard/my-submissions"); err != nil {
		return nil, fmt.Errorf("notify worker: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	metrics.RecordTransition("submission", models.SubmissionRejected)
	w.Logger.Info("submission rejected", "submission_id", id, "worker_id", sub.WorkerID)
	return sub, nil
}

// ListForWorker pages through the actor's own submissions, newest first.
func (w *SubmissionWorkflow) ListForWorker(ctx context.Context, actor *models.Account, status string, page, size int) (models.Page[*models.Submission], error) {
	if !isRole(actor, models.RoleWorker) {
		return models.Page[*models.Submission]{}, models.ErrForbidden
	}
	switch status {
	case "", models.SubmissionPending, models.SubmissionApproved, models.SubmissionRejected:
	default:
		return models.Page[*models.Submission]{}, fmt.Errorf("unknown status %q: %w", status, models.ErrInvalidInput)
	}
	if size <= 0 || size > 100 {
		size = 10
	}
	if page < 1 {
		page = 1
	}
	items, total, err := w.Submissions.ListByWorker(ctx, actor.ID, status, size, (page-1)*size)
	if err != nil {
		return models.Page[*models.Submission]{}, err
	}
	return models.Page[*models.Submission]{Items: items, Total: total, Page: page, Size: size}, nil
}

// ListPendingForBuyer returns submissions awaiting the actor's review.
func (w *SubmissionWorkflow) ListPendingForBuyer(ctx context.Context, actor *models.Account) ([]*models.Submission, error) {
	if !isRole(actor, models.RoleBuyer) {
		return nil, models.ErrForbidden
	}
	return w.Submissions.ListPendingForBuyer(ctx, actor.ID)
}

func (w *SubmissionWorkflow) authorizeReview(ctx context.Context, actor *models.Account, id uuid.UUID) (*models.Submission, error) {
	if !isRole(actor, models.RoleBuyer) {
		return nil, models.ErrForbidden
	}
	sub, err := w.Submissions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.BuyerID != actor.ID {
		return nil, models.ErrForbidden
	}
	return sub, nil
}

func displayName(a *models.Account) string {
	if a.Name != "" {
		return a.Name
	}
	return a.Email
}
