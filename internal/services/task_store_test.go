package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/taskcoin/backend/internal/models"
)

func newTaskInput(payable, workers int64) models.NewTask {
	return models.NewTask{Title: "Follow our page", Detail: "Follow and screenshot", SubmissionInfo: "screenshot link", PayableAmount: payable, RequiredWorkers: workers}
}

func ptr[T any](v T) *T { return &v }

// ---------------------------------------------------------------------------
// CreateTask
// ---------------------------------------------------------------------------

func TestCreateTask_InsufficientFunds(t *testing.T) {
	w := newWorld()
	buyer := w.account(models.RoleBuyer, 0)

	_, err := w.tasks.CreateTask(context.Background(), buyer, newTaskInput(10, 5))
	if !errors.Is(err, models.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	if n := len(w.db.tasks); n != 0 {
		t.Errorf("tasks = %d, want 0", n)
	}
	if got := w.db.balance(buyer.ID); got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}
	w.assertConserved(t)
}

func TestCreateTask_ReservesEscrow(t *testing.T) {
	w := newWorld()
	buyer := w.account(models.RoleBuyer, 100)

	task, err := w.tasks.CreateTask(context.Background(), buyer, newTaskInput(10, 5))
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if got := w.db.balance(buyer.ID); got != 50 {
		t.Errorf("balance = %d, want 50", got)
	}
	if task.RequiredWorkers != 5 || task.InitialWorkers != 5 || task.Status() != models.TaskStatusOpen {
		t.Errorf("unexpected task %+v", task)
	}
	locks := w.db.entriesOf(models.EntryEscrowLock)
	if len(locks) != 1 || locks[0].Amount != 50 || *locks[0].RefID != task.ID {
		t.Errorf("escrow entries = %+v", locks)
	}
	w.assertConserved(t)
}

func TestCreateTask_Validation(t *testing.T) {
	w := newWorld()
	buyer := w.account(models.RoleBuyer, 1000)
	worker := w.account(models.RoleWorker, 1000)
	ctx := context.Background()

	cases := []struct {
		name  string
		actor *models.Account
		in    models.NewTask
		want  error
	}{
		{"zero workers", buyer, newTaskInput(10, 0), models.ErrInvalidInput},
		{"zero payable", buyer, newTaskInput(0, 3), models.ErrInvalidInput},
		{"negative payable", buyer, newTaskInput(-1, 3), models.ErrInvalidInput},
		{"blank title", buyer, models.NewTask{Title: "  ", Detail: "d", PayableAmount: 1, RequiredWorkers: 1}, models.ErrInvalidInput},
		{"overflow", buyer, newTaskInput(1<<62, 4), models.ErrInvalidInput},
		{"worker cannot create", worker, newTaskInput(1, 1), models.ErrForbidden},
		{"anonymous", nil, newTaskInput(1, 1), models.ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := w.tasks.CreateTask(ctx, tc.actor, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
	if got := w.db.balance(buyer.ID); got != 1000 {
		t.Errorf("balance changed to %d", got)
	}
}

// ---------------------------------------------------------------------------
// EditTask
// ---------------------------------------------------------------------------

func TestEditTask(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	buyer := w.account(models.RoleBuyer, 100)
	other := w.account(models.RoleBuyer, 100)
	task, err := w.tasks.CreateTask(ctx, buyer, newTaskInput(10, 2))
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	updated, err := w.tasks.EditTask(ctx, buyer, task.ID, models.TaskEdit{Title: ptr("Like our page"), SubmissionInfo: ptr("profile url")})
	if err != nil {
		t.Fatalf("EditTask: %v", err)
	}
	if updated.Title != "Like our page" || updated.SubmissionInfo != "profile url" || updated.Detail != task.Detail {
		t.Errorf("unexpected edit result %+v", updated)
	}

	if _, err := w.tasks.EditTask(ctx, other, task.ID, models.TaskEdit{Title: ptr("x")}); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("non-owner edit: err = %v, want ErrForbidden", err)
	}
	if _, err := w.tasks.EditTask(ctx, buyer, task.ID, models.TaskEdit{RequiredWorkers: ptr(int64(9))}); !errors.Is(err, models.ErrQuotaFieldImmutable) {
		t.Errorf("quota edit: err = %v, want ErrQuotaFieldImmutable", err)
	}
	if _, err := w.tasks.EditTask(ctx, buyer, task.ID, models.TaskEdit{PayableAmount: ptr(int64(1))}); !errors.Is(err, models.ErrQuotaFieldImmutable) {
		t.Errorf("payable edit: err = %v, want ErrQuotaFieldImmutable", err)
	}
	if _, err := w.tasks.EditTask(ctx, buyer, task.ID, models.TaskEdit{Title: ptr(" ")}); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("blank title: err = %v, want ErrInvalidInput", err)
	}
	if _, err := w.tasks.EditTask(ctx, buyer, uuid.New(), models.TaskEdit{Title: ptr("x")}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing task: err = %v, want ErrNotFound", err)
	}
}

func TestEditTask_ExhaustedIsImmutable(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	buyer := w.account(models.RoleBuyer, 10)
	worker := w.account(models.RoleWorker, 0)
	task, _ := w.tasks.CreateTask(ctx, buyer, newTaskInput(10, 1))
	if _, err := w.submissions.Create(ctx, worker, task.ID, "done"); err != nil {
		t.Fatalf("Create submission: %v", err)
	}

	_, err := w.tasks.EditTask(ctx, buyer, task.ID, models.TaskEdit{Title: ptr("x")})
	if !errors.Is(err, models.ErrQuotaExhausted) {
		t.Fatalf("err = %v, want ErrQuotaExhausted", err)
	}
}

// ---------------------------------------------------------------------------
// DeleteTask
// ---------------------------------------------------------------------------

func TestDeleteTask_RefundsRemaining(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	buyer := w.account(models.RoleBuyer, 50)
	workerA := w.account(models.RoleWorker, 0)
	workerB := w.account(models.RoleWorker, 0)
	task, _ := w.tasks.CreateTask(ctx, buyer, newTaskInput(10, 5))

	subA, _ := w.submissions.Create(ctx, workerA, task.ID, "proof a")
	subB, _ := w.submissions.Create(ctx, workerB, task.ID, "proof b")
	if _, err := w.submissions.Approve(ctx, buyer, subA.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := w.submissions.Reject(ctx, buyer, subB.ID); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if got := w.db.task(task.ID).RequiredWorkers; got != 4 {
		t.Fatalf("remaining = %d, want 4", got)
	}

	refund, err := w.tasks.DeleteTask(ctx, buyer, task.ID)
	if err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if refund != 40 {
		t.Errorf("refund = %d, want 40", refund)
	}
	if got := w.db.balance(buyer.ID); got != 40 {
		t.Errorf("buyer balance = %d, want 40", got)
	}
	if w.db.task(task.ID) != nil {
		t.Error("task still present")
	}
	w.assertConserved(t)
}

func TestDeleteTask_RemainingThreeRefundsThirty(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	buyer := w.account(models.RoleBuyer, 30)
	task, _ := w.tasks.CreateTask(ctx, buyer, newTaskInput(10, 3))

	refund, err := w.tasks.DeleteTask(ctx, buyer, task.ID)
	if err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if refund != 30 || w.db.balance(buyer.ID) != 30 {
		t.Errorf("refund = %d balance = %d, want 30/30", refund, w.db.balance(buyer.ID))
	}
}

func TestDeleteTask_RejectsPendingSubmissions(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	buyer := w.account(models.RoleBuyer, 30)
	worker := w.account(models.RoleWorker, 0)
	task, _ := w.tasks.CreateTask(ctx, buyer, newTaskInput(10, 3))
	sub, _ := w.submissions.Create(ctx, worker, task.ID, "proof")

	refund, err := w.tasks.DeleteTask(ctx, buyer, task.ID)
	if err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if refund != 30 {
		t.Errorf("refund = %d, want 30", refund)
	}
	got, _ := memSubmissions{w.db}.GetByID(ctx, sub.ID)
	if got.Status != models.SubmissionRejected || got.TaskID != nil {
		t.Errorf("submission after delete = %+v", got)
	}
	if n := len(w.db.notificationsFor(worker.ID)); n != 1 {
		t.Errorf("worker notifications = %d, want 1", n)
	}
	if _, err := w.submissions.Approve(ctx, buyer, sub.ID); !errors.Is(err, models.ErrAlreadyFinalized) {
		t.Errorf("approve after delete: err = %v, want ErrAlreadyFinalized", err)
	}
	w.assertConserved(t)
}

func TestDeleteTask_RefundIncludesPendingSlots(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	buyer := w.account(models.RoleBuyer, 50)
	workerA := w.account(models.RoleWorker, 0)
	workerB := w.account(models.RoleWorker, 0)
	task, _ := w.tasks.CreateTask(ctx, buyer, newTaskInput(10, 5))

	subA, _ := w.submissions.Create(ctx, workerA, task.ID, "proof a")
	if _, err := w.submissions.Create(ctx, workerB, task.ID, "proof b"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := w.submissions.Approve(ctx, buyer, subA.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := w.submissions.Approve(ctx, buyer, subA.ID); !errors.Is(err, models.ErrAlreadyFinalized) {
		t.Fatalf("second approve: err = %v, want ErrAlreadyFinalized", err)
	}
	if got := w.db.balance(workerA.ID); got != 10 {
		t.Errorf("worker balance = %d, want 10", got)
	}
	if got := w.db.task(task.ID).RequiredWorkers; got != 3 {
		t.Fatalf("remaining = %d, want 3", got)
	}

	refund, err := w.tasks.DeleteTask(ctx, buyer, task.ID)
	if err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	// three open slots plus the one released by rejecting workerB
	if refund != 40 || w.db.balance(buyer.ID) != 40 {
		t.Errorf("refund = %d balance = %d, want 40/40", refund, w.db.balance(buyer.ID))
	}
	w.assertConserved(t)
}

func TestMissingTaskIsPlainNotFound(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	buyer := w.account(models.RoleBuyer, 0)
	id := uuid.New()

	_, editErr := w.tasks.EditTask(ctx, buyer, id, models.TaskEdit{Title: ptr("x")})
	_, deleteErr := w.tasks.DeleteTask(ctx, buyer, id)
	for name, err := range map[string]error{"edit": editErr, "delete": deleteErr} {
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("%s: err = %v, want ErrNotFound", name, err)
		}
		if kind := models.Kind(err); kind != "NOT_FOUND" {
			t.Errorf("%s: kind = %q, want NOT_FOUND", name, kind)
		}
	}
}

func TestDeleteTask_Authorization(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	buyer := w.account(models.RoleBuyer, 20)
	stranger := w.account(models.RoleBuyer, 0)
	admin := w.account(models.RoleAdmin, 0)
	task, _ := w.tasks.CreateTask(ctx, buyer, newTaskInput(10, 2))

	if _, err := w.tasks.DeleteTask(ctx, stranger, task.ID); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("stranger: err = %v, want ErrForbidden", err)
	}
	refund, err := w.tasks.DeleteTask(ctx, admin, task.ID)
	if err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if refund != 20 || w.db.balance(buyer.ID) != 20 {
		t.Errorf("admin delete refunded %d to buyer (balance %d)", refund, w.db.balance(buyer.ID))
	}
	if _, err := w.tasks.DeleteTask(ctx, admin, task.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// Listings
// ---------------------------------------------------------------------------

func TestListAvailable(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	buyer := w.account(models.RoleBuyer, 10000)
	worker := w.account(models.RoleWorker, 0)

	for i := 0; i < 14; i++ {
		if _, err := w.tasks.CreateTask(ctx, buyer, newTaskInput(int64(i+1), 2)); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}
	full, _ := w.tasks.CreateTask(ctx, buyer, models.NewTask{Title: "Review app", Detail: "d", PayableAmount: 5, RequiredWorkers: 1})
	if _, err := w.submissions.Create(ctx, worker, full.ID, "done"); err != nil {
		t.Fatalf("Create submission: %v", err)
	}

	page, err := w.tasks.ListAvailable(ctx, models.TaskFilter{Page: 1})
	if err != nil {
		t.Fatalf("ListAvailable: %v", err)
	}
	if page.Total != 14 || len(page.Items) != models.DefaultTaskPageSize {
		t.Errorf("page 1: total %d items %d", page.Total, len(page.Items))
	}
	page2, _ := w.tasks.ListAvailable(ctx, models.TaskFilter{Page: 2})
	if len(page2.Items) != 2 {
		t.Errorf("page 2 items = %d, want 2", len(page2.Items))
	}

	ranged, _ := w.tasks.ListAvailable(ctx, models.TaskFilter{RewardMin: 3, RewardMax: 5})
	if ranged.Total != 3 {
		t.Errorf("reward range total = %d, want 3", ranged.Total)
	}
	none, _ := w.tasks.ListAvailable(ctx, models.TaskFilter{Search: "review"})
	if none.Total != 0 {
		t.Errorf("exhausted task listed: %+v", none.Items)
	}
	if _, err := w.tasks.ListAvailable(ctx, models.TaskFilter{RewardMin: 9, RewardMax: 2}); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("inverted range: err = %v", err)
	}
}

func TestListByRole(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	buyer := w.account(models.RoleBuyer, 100)
	worker := w.account(models.RoleWorker, 0)
	admin := w.account(models.RoleAdmin, 0)
	_, _ = w.tasks.CreateTask(ctx, buyer, newTaskInput(10, 1))

	if mine, err := w.tasks.ListByBuyer(ctx, buyer); err != nil || len(mine) != 1 {
		t.Errorf("ListByBuyer = %d, %v", len(mine), err)
	}
	if _, err := w.tasks.ListByBuyer(ctx, worker); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("worker ListByBuyer: err = %v", err)
	}
	if all, err := w.tasks.ListAll(ctx, admin); err != nil || len(all) != 1 {
		t.Errorf("ListAll = %d, %v", len(all), err)
	}
	if _, err := w.tasks.ListAll(ctx, buyer); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("buyer ListAll: err = %v", err)
	}
}
