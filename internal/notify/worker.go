package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"

	"github.com/taskcoin/backend/internal/models"
)

// NotifyArgs carries one user-facing notification through the job queue.
type NotifyArgs struct {
	NotificationID uuid.UUID `json:"notification_id"`
	AccountID      uuid.UUID `json:"account_id"`
	Message        string    `json:"message"`
	ActionRoute    string    `json:"action_route"`
	CreatedAt      time.Time `json:"created_at"`
}

func (NotifyArgs) Kind() string { return "notify" }

// Store persists delivered notifications.
type Store interface {
	Insert(ctx context.Context, n *models.Notification) error
}

type NotifyWorker struct {
	river.WorkerDefaults[NotifyArgs]
	store  Store
	logger *slog.Logger
}

func NewNotifyWorker(store Store, logger *slog.Logger) *NotifyWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotifyWorker{store: store, logger: logger}
}

func (w *NotifyWorker) Work(ctx context.Context, job *river.Job[NotifyArgs]) error {
	args := job.Args
	n := &models.Notification{
		ID:          args.NotificationID,
		AccountID:   args.AccountID,
		Message:     args.Message,
		ActionRoute: args.ActionRoute,
		CreatedAt:   args.CreatedAt,
	}
	if err := w.store.Insert(ctx, n); err != nil {
		return fmt.Errorf("store notification %s: %w", args.NotificationID, err)
	}
	w.logger.Debug("notification stored", "notification_id", args.NotificationID, "account_id", args.AccountID)
	return nil
}

// InsertTxFunc enqueues a notify job within the given transaction. Provided by main using river.Client.InsertTx.
type InsertTxFunc func(ctx context.Context, tx pgx.Tx, args NotifyArgs) error

// Enqueuer turns domain events into notify jobs that are delivered only if
// the surrounding transaction commits.
type Enqueuer struct {
	insert InsertTxFunc
	now    func() time.Time
}

func NewEnqueuer(insert InsertTxFunc) *Enqueuer {
	return &Enqueuer{insert: insert, now: time.Now}
}

func (e *Enqueuer) Notify(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, message, actionRoute string) error {
	return e.insert(ctx, tx, NotifyArgs{
		NotificationID: uuid.New(),
		AccountID:      accountID,
		Message:        message,
		ActionRoute:    actionRoute,
		CreatedAt:      e.now().UTC(),
	})
}
