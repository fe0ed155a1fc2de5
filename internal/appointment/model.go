package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// BookedSlot is one committed appointment occupying one unit of a schedule
// rule's daily capacity. Rows are never deleted; cancellation is a status
// change so the ledger keeps its history. Scheduled and Completed rows count
// against capacity, Cancelled rows do not.
type BookedSlot struct {
	ID         uuid.UUID
	DoctorID   *uuid.UUID // nil for specialty-only bookings not yet assigned to a doctor
	PatientID  uuid.UUID
	Specialty  string
	Date       time.Time // calendar day, midnight UTC
	TimeMin    int       // minutes since midnight
	Status     Status
	Reason     string
	CancelNote *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CountsAgainstCapacity reports whether the slot occupies capacity for
// availability purposes. Only cancellation releases a slot.
func (s Status) CountsAgainstCapacity() bool {
	return s == StatusScheduled || s == StatusInProgress || s == StatusCompleted
}
