package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/taskcoin/backend/internal/middleware"
	"github.com/taskcoin/backend/internal/models"
	"github.com/taskcoin/backend/internal/services"
)

// TaskService is the subset of the task store the handler needs.
type TaskService interface {
	CreateTask(ctx context.Context, actor *models.Account, in models.NewTask) (*models.Task, error)
	EditTask(ctx context.Context, actor *models.Account, id uuid.UUID, edit models.TaskEdit) (*models.Task, error)
	DeleteTask(ctx context.Context, actor *models.Account, id uuid.UUID) (int64, error)
	GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error)
	ListAvailable(ctx context.Context, f models.TaskFilter) (models.Page[*models.Task], error)
	ListByBuyer(ctx context.Context, actor *models.Account) ([]*models.Task, error)
	ListAll(ctx context.Context, actor *models.Account) ([]*models.Task, error)
}

// TaskHandler serves /api/v1/tasks endpoints.
type TaskHandler struct {
	Tasks     TaskService
	Validator BodyValidator
	Logger    *slog.Logger
}

type deleteTaskResponse struct {
	TaskID string `json:"task_id"`
	Refund int64  `json:"refund"`
}

// --- POST /api/v1/tasks ---

// CreateTask reserves the task budget from the buyer and returns the new task.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var in models.NewTask
	if err := DecodeBody(r, h.Validator, services.SchemaCreateTask, &in); err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	task, err := h.Tasks.CreateTask(r.Context(), middleware.AccountFromCtx(r.Context()), in)
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, task)
}

// --- PATCH /api/v1/tasks/{id} ---

func (h *TaskHandler) EditTask(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	var edit models.TaskEdit
	if err := DecodeBody(r, h.Validator, services.SchemaEditTask, &edit); err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	task, err := h.Tasks.EditTask(r.Context(), middleware.AccountFromCtx(r.Context()), id, edit)
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, task)
}

// --- DELETE /api/v1/tasks/{id} ---

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	refund, err := h.Tasks.DeleteTask(r.Context(), middleware.AccountFromCtx(r.Context()), id)
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, deleteTaskResponse{TaskID: id.String(), Refund: refund})
}

// --- GET /api/v1/tasks ---

// ListAvailable accepts ?search=&reward_min=&reward_max=&page=&size=.
func (h *TaskHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	f := models.TaskFilter{Search: r.URL.Query().Get("search")}
	var err error
	if f.RewardMin, err = queryInt64(r, "reward_min"); err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	if f.RewardMax, err = queryInt64(r, "reward_max"); err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	if f.Page, err = queryInt(r, "page", 1); err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	if f.PageSize, err = queryInt(r, "size", models.DefaultTaskPageSize); err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	page, err := h.Tasks.ListAvailable(r.Context(), f)
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	page.Items = nonNil(page.Items)
	WriteJSON(w, http.StatusOK, page)
}

// --- GET /api/v1/tasks/{id} ---

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	task, err := h.Tasks.GetTask(r.Context(), id)
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, task)
}

// --- GET /api/v1/tasks/buyer/mine ---

func (h *TaskHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Tasks.ListByBuyer(r.Context(), middleware.AccountFromCtx(r.Context()))
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, nonNil(tasks))
}

// --- GET /api/v1/tasks/admin/all ---

func (h *TaskHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Tasks.ListAll(r.Context(), middleware.AccountFromCtx(r.Context()))
	if err != nil {
		WriteError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, nonNil(tasks))
}

// nonNil makes empty listings encode as [] rather than null.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
