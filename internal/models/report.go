package models

import (
	"time"

	"github.com/google/uuid"
)

// Report statuses.
const (
	ReportOpen     = "open"
	ReportResolved = "resolved"
)

type Report struct {
	ID           uuid.UUID  `json:"id"`
	SubmissionID uuid.UUID  `json:"submission_id"`
	ReporterID   uuid.UUID  `json:"reporter_id"`
	Reason       string     `json:"reason"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}
