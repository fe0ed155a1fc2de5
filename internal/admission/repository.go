package admission

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAdmissionNotFound  = errors.New("admission not found")
	ErrAssessmentNotFound = errors.New("emergency assessment not found")
)

// Repository contains all DB interactions needed by the lifecycle service
// and the emergency handoff.
type Repository interface {
	Create(ctx context.Context, a *Admission) (*Admission, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Admission, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Admission, error)

	// UpdateStatus is a compare-and-set on the status column; it reports
	// ErrAdmissionNotFound when no row in the from state matched.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Admission, error)

	// Discharge closes an active admission, persisting the discharge
	// moment, kind, and computed length of stay.
	Discharge(ctx context.Context, id uuid.UUID, at time.Time, kind string, lengthOfStayDays int) (*Admission, error)

	// HasActiveOfTypes reports whether the patient holds an active
	// admission of any of the given types. The bed-occupancy guards pass
	// different type sets: all bed types on creation/activation, the
	// inpatient types only during promotion.
	HasActiveOfTypes(ctx context.Context, patientID uuid.UUID, types []Type) (bool, error)

	UpsertAssessment(ctx context.Context, a *Assessment) (*Assessment, error)
	GetAssessment(ctx context.Context, admissionID uuid.UUID) (*Assessment, error)

	// ListPendingHospitalization returns the handoff worklist, oldest
	// admission first.
	ListPendingHospitalization(ctx context.Context) ([]PendingCase, error)
}

// BedTypes is every admission type that reserves a bed.
var BedTypes = []Type{TypeEmergency, TypeHospitalization, TypeICU, TypeSurgery}

// InpatientTypes excludes Emergency: a promoted emergency case keeps its
// source record active, so the promotion guard only looks for an existing
// inpatient stay.
var InpatientTypes = []Type{TypeHospitalization, TypeICU, TypeSurgery}
