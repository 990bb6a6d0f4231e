package models

import (
	"time"

	"github.com/google/uuid"
)

// Submission statuses.
const (
	SubmissionPending  = "pending"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"
)

// Submission snapshots buyer, title and payable amount from its task so it
// stays meaningful after the task is deleted.
type Submission struct {
	ID            uuid.UUID  `json:"id"`
	TaskID        *uuid.UUID `json:"task_id,omitempty"`
	TaskTitle     string     `json:"task_title"`
	BuyerID       uuid.UUID  `json:"buyer_id"`
	WorkerID      uuid.UUID  `json:"worker_id"`
	WorkerName    string     `json:"worker_name,omitempty"`
	Details       string     `json:"details"`
	PayableAmount int64      `json:"payable_amount"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Page is a window over a larger ordered result.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
}
