package projects

import (
	"errors"
	"time"

	"github.com/calicode24/calicode/internal/domain/compliance"
)

// Status is the lifecycle state of a project
type Status string

const (
	StatusDraft      Status = "draft"
	StatusProcessing Status = "processing"
	StatusCompliant  Status = "compliant"
	StatusFailed     Status = "failed"
)

// ErrQuotaReached is returned when the owner's tier allows no more projects this month.
var ErrQuotaReached = errors.New("monthly project limit reached")

// Project is a contractor's compliance job
type Project struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description" db:"description"`
	Status      Status    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// StatusFor maps a verdict to the project status it produces
func StatusFor(s compliance.Status) Status {
	if s == compliance.StatusPass {
		return StatusCompliant
	}
	return StatusFailed
}

// MonthStart returns midnight on the first day of now's month, in now's location.
func MonthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}
