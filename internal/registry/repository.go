package registry

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrDoctorNotFound  = errors.New("doctor not found")
)

// Directory is the boundary the flow engine consults before creating
// records that reference a patient or doctor.
type Directory interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error)
	// DoctorSpecialty defaults an appointment's routing when the request
	// names a doctor but no specialty.
	DoctorSpecialty(ctx context.Context, id uuid.UUID) (string, error)
}
