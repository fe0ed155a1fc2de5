package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrAppointmentNotFound = errors.New("appointment not found")

// Repository contains all DB interactions needed by the availability engine
// and the lifecycle service.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*BookedSlot, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]BookedSlot, error)

	// Capacity reads for the availability engine. Both consider only
	// statuses that count against capacity.
	CountOccupied(ctx context.Context, doctorID uuid.UUID, date time.Time, specialty string) (int, error)
	OccupiedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time, specialty string) ([]int, error)

	// Duplicate-specialty guard.
	HasScheduledInSpecialty(ctx context.Context, patientID uuid.UUID, specialty string) (bool, error)

	// InsertScheduled commits a new booking with status scheduled.
	InsertScheduled(ctx context.Context, slot *BookedSlot) (*BookedSlot, error)

	// UpdateStatus is a compare-and-set: it only transitions rows whose
	// current status matches from, and reports ErrAppointmentNotFound when
	// no row matched.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, note *string) (*BookedSlot, error)

	// FindOverdueScheduled feeds the no-show sweep: scheduled slots whose
	// date is on or before the cutoff day.
	FindOverdueScheduled(ctx context.Context, cutoff time.Time) ([]BookedSlot, error)
}
