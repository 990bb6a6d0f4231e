package models

import (
	"time"

	"github.com/google/uuid"
)

// Derived task status.
const (
	TaskStatusOpen      = "open"
	TaskStatusExhausted = "exhausted"
)

type Task struct {
	ID              uuid.UUID  `json:"id"`
	BuyerID         uuid.UUID  `json:"buyer_id"`
	Title           string     `json:"title"`
	Detail          string     `json:"detail"`
	SubmissionInfo  string     `json:"submission_info"`
	ImageURL        string     `json:"image_url,omitempty"`
	PayableAmount   int64      `json:"payable_amount"`
	RequiredWorkers int64      `json:"required_workers"`
	InitialWorkers  int64      `json:"initial_workers"`
	CompletionDate  *time.Time `json:"completion_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Status is open while slots remain and exhausted once required_workers reaches zero.
func (t *Task) Status() string {
	if t.RequiredWorkers > 0 {
		return TaskStatusOpen
	}
	return TaskStatusExhausted
}

// Reserved is the coin amount still escrowed for unconsumed slots.
func (t *Task) Reserved() int64 {
	return t.RequiredWorkers * t.PayableAmount
}

// NewTask is the buyer input for task creation.
type NewTask struct {
	Title           string     `json:"title"`
	Detail          string     `json:"detail"`
	SubmissionInfo  string     `json:"submission_info"`
	ImageURL        string     `json:"image_url"`
	PayableAmount   int64      `json:"payable_amount"`
	RequiredWorkers int64      `json:"required_workers"`
	CompletionDate  *time.Time `json:"completion_date"`
}

// TaskEdit carries the fields a buyer sent in an edit request. Quota fields are
// present only so that their presence can be rejected.
type TaskEdit struct {
	Title           *string `json:"title"`
	Detail          *string `json:"detail"`
	SubmissionInfo  *string `json:"submission_info"`
	PayableAmount   *int64  `json:"payable_amount"`
	RequiredWorkers *int64  `json:"required_workers"`
}

// TaskFilter narrows the list of tasks open to workers.
type TaskFilter struct {
	Search    string
	RewardMin int64
	RewardMax int64
	Page      int
	PageSize  int
}

// DefaultTaskPageSize is the page size of the available-task listing.
const DefaultTaskPageSize = 12
