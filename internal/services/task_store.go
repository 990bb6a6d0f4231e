package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taskcoin/backend/internal/metrics"
	"github.com/taskcoin/backend/internal/models"
)

// TaskStore owns tasks and the coins escrowed for their unfilled slots.
type TaskStore struct {
	Pool        TxBeginner
	Tasks       TaskRepo
	Submissions SubmissionRepo
	Ledger      CoinLedger
	Notifier    Notifier
	Logger      *slog.Logger
}

func NewTaskStore(pool TxBeginner, tasks TaskRepo, submissions SubmissionRepo, ledger CoinLedger, notifier Notifier, logger *slog.Logger) *TaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{Pool: pool, Tasks: tasks, Submissions: submissions, Ledger: ledger, Notifier: notifier, Logger: logger}
}

// CreateTask reserves payable_amount × required_workers from the buyer and
// persists the task in the same transaction.
func (s *TaskStore) CreateTask(ctx context.Context, actor *models.Account, in models.NewTask) (task *models.Task, err error) {
	defer func() { observe("create_task", err) }()

	if !isRole(actor, models.RoleBuyer) {
		return nil, models.ErrForbidden
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Detail = strings.TrimSpace(in.Detail)
	if in.Title == "" || in.Detail == "" {
		return nil, fmt.Errorf("title and detail are required: %w", models.ErrInvalidInput)
	}
	if in.PayableAmount < 1 || in.RequiredWorkers < 1 {
		return nil, fmt.Errorf("payable_amount and required_workers must be >= 1: %w", models.ErrInvalidInput)
	}
	if in.PayableAmount > math.MaxInt64/in.RequiredWorkers {
		return nil, fmt.Errorf("reservation overflows: %w", models.ErrInvalidInput)
	}
	reserve := in.PayableAmount * in.RequiredWorkers

	task = &models.Task{
		ID:              uuid.New(),
		BuyerID:         actor.ID,
		Title:           in.Title,
		Detail:          in.Detail,
		SubmissionInfo:  strings.TrimSpace(in.SubmissionInfo),
		ImageURL:        strings.TrimSpace(in.ImageURL),
		PayableAmount:   in.PayableAmount,
		RequiredWorkers: in.RequiredWorkers,
		InitialWorkers:  in.RequiredWorkers,
		CompletionDate:  in.CompletionDate,
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := s.Ledger.Debit(ctx, tx, actor.ID, reserve, models.EntryEscrowLock, &task.ID); err != nil {
		return nil, err
	}
	if err := s.Tasks.Create(ctx, tx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	metrics.RecordMovement(models.EntryEscrowLock, reserve)
	s.Logger.Info("task created", "task_id", task.ID, "buyer_id", actor.ID, "reserved", reserve)
	return task, nil
}

// EditTask changes the descriptive fields of a task. Quota fields are immutable.
func (s *TaskStore) EditTask(ctx context.Context, actor *models.Account, id uuid.UUID, edit models.TaskEdit) (task *models.Task, err error) {
	defer func() { observe("edit_task", err) }()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := s.Tasks.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if actor == nil || current.BuyerID != actor.ID {
		return nil, models.ErrForbidden
	}
	if edit.PayableAmount != nil || edit.RequiredWorkers != nil {
		return nil, models.ErrQuotaFieldImmutable
	}
	if current.Status() == models.TaskStatusExhausted {
		return nil, models.ErrQuotaExhausted
	}

	title, detail, info := current.Title, current.Detail, current.SubmissionInfo
	if edit.Title != nil {
		title = strings.TrimSpace(*edit.Title)
	}
	if edit.Detail != nil {
		detail = strings.TrimSpace(*edit.Detail)
	}
	if edit.SubmissionInfo != nil {
		info = strings.TrimSpace(*edit.SubmissionInfo)
	}
	if title == "" || detail == "" {
		return nil, fmt.Errorf("title and detail cannot be empty: %w", models.ErrInvalidInput)
	}

	task, err = s.Tasks.UpdateDetails(ctx, tx, id, title, detail, info)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return task, nil
}

// DeleteTask removes a task and refunds the buyer for every slot that was
// never paid out. Pending submissions are rejected first so their slots are
// part of the refund: the returned amount is (remaining + pending) × payable,
// not just the remaining count seen before the call.
func (s *TaskStore) DeleteTask(ctx context.Context, actor *models.Account, id uuid.UUID) (refund int64, err error) {
	defer func() { observe("delete_task", err) }()

	if actor == nil {
		return 0, models.ErrForbidden
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	task, err := s.Tasks.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return 0, err
	}
	if task.BuyerID != actor.ID && actor.Role != models.RoleAdmin {
		return 0, models.ErrForbidden
	}

	rejected, err := s.Submissions.RejectPendingForTask(ctx, tx, id)
	if err != nil {
		return 0, fmt.Errorf("reject pending submissions: %w", err)
	}
	remaining := task.RequiredWorkers
	for range rejected {
		if remaining, err = s.ReleaseSlot(ctx, tx, id); err != nil {
			return 0, err
		}
	}

	refund = remaining * task.PayableAmount
	if refund > 0 {
		if _, err := s.Ledger.Credit(ctx, tx, task.BuyerID, refund, models.EntryEscrowRefund, &task.ID); err != nil {
			return 0, err
		}
	}
	if err := s.Tasks.Delete(ctx, tx, id); err != nil {
		return 0, fmt.Errorf("delete task: %w", err)
	}
	for _, sub := range rejected {
		msg := fmt.Sprintf("Your submission for %q was rejected because the task was removed", task.Title)
		if err := s.Notifier.Notify(ctx, tx, sub.WorkerID, msg, "/dashboard/my-submissions"); err != nil {
			return 0, fmt.Errorf("notify worker: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	metrics.RecordMovement(models.EntryEscrowRefund, refund)
	for range rejected {
		metrics.RecordTransition("submission", models.SubmissionRejected)
	}
	s.Logger.Info("task deleted", "task_id", id, "actor_id", actor.ID, "refund", refund, "rejected_submissions", len(rejected))
	return refund, nil
}

// ConsumeSlot takes one slot from an open task. Call within a transaction.
func (s *TaskStore) ConsumeSlot(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int64, error) {
	return s.Tasks.ConsumeSlot(ctx, tx, id)
}

// ReleaseSlot gives one slot back after a rejection. Call within a transaction.
func (s *TaskStore) ReleaseSlot(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int64, error) {
	return s.Tasks.ReleaseSlot(ctx, tx, id)
}

// GetTask returns a single task.
func (s *TaskStore) GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	return s.Tasks.GetByID(ctx, id)
}

// ListAvailable returns open tasks, filtered and paginated.
func (s *TaskStore) ListAvailable(ctx context.Context, f models.TaskFilter) (models.Page[*models.Task], error) {
	if f.PageSize <= 0 {
		f.PageSize = models.DefaultTaskPageSize
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.RewardMax > 0 && f.RewardMin > f.RewardMax {
		return models.Page[*models.Task]{}, fmt.Errorf("reward_min exceeds reward_max: %w", models.ErrInvalidInput)
	}
	f.Search = strings.TrimSpace(f.Search)
	tasks, total, err := s.Tasks.ListAvailable(ctx, f)
	if err != nil {
		return models.Page[*models.Task]{}, err
	}
	return models.Page[*models.Task]{Items: tasks, Total: total, Page: f.Page, Size: f.PageSize}, nil
}

// ListByBuyer returns the actor's own tasks.
func (s *TaskStore) ListByBuyer(ctx context.Context, actor *models.Account) ([]*models.Task, error) {
	if !isRole(actor, models.RoleBuyer) {
		return nil, models.ErrForbidden
	}
	return s.Tasks.ListByBuyer(ctx, actor.ID)
}

// ListAll returns every task; admin only.
func (s *TaskStore) ListAll(ctx context.Context, actor *models.Account) ([]*models.Task, error) {
	if !isRole(actor, models.RoleAdmin) {
		return nil, models.ErrForbidden
	}
	return s.Tasks.ListAll(ctx)
}

// errTaskGone reports whether err means the task row no longer exists.
func errTaskGone(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}
