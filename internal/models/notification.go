package models

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID          uuid.UUID `json:"id"`
	AccountID   uuid.UUID `json:"account_id"`
	Message     string    `json:"message"`
	ActionRoute string    `json:"action_route"`
	CreatedAt   time.Time `json:"created_at"`
}
