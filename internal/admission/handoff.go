package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carewise/patient-flow/internal/audit"
	redisclient "github.com/carewise/patient-flow/internal/redis"
)

var (
	ErrNotEmergency       = errors.New("admission is not an emergency case")
	ErrEmergencyNotActive = errors.New("emergency admission is not active")
	ErrNotEligible        = errors.New("emergency assessment does not call for hospitalization")
)

// ListPendingHospitalization returns the handoff worklist: active emergency
// cases assessed as needing a bed and not yet hospitalized. Longest-waiting
// cases come first.
func (s *Service) ListPendingHospitalization(ctx context.Context) ([]PendingCase, error) {
	return s.repo.ListPendingHospitalization(ctx)
}

type PromoteRequest struct {
	Service string
	Room    *string
	Bed     *string
}

// PromoteToHospitalization converts an eligible emergency case into a new
// active hospitalization admission. The source emergency record is left
// untouched: emergency and hospitalization describe the same physical stay
// from two administrative perspectives. Each precondition fails with its own
// reason, and the occupancy re-check runs under the per-patient lock so two
// emergency cases cannot race into two hospitalizations.
func (s *Service) PromoteToHospitalization(ctx context.Context, emergencyID uuid.UUID, req PromoteRequest) (*Admission, error) {
	source, err := s.repo.GetByID(ctx, emergencyID)
	if err != nil {
		return nil, err
	}
	if source.Type != TypeEmergency {
		return nil, ErrNotEmergency
	}
	if source.Status != StatusActive {
		return nil, ErrEmergencyNotActive
	}

	assessment, err := s.repo.GetAssessment(ctx, emergencyID)
	if err != nil {
		if errors.Is(err, ErrAssessmentNotFound) {
			return nil, ErrNotEligible
		}
		return nil, fmt.Errorf("load assessment: %w", err)
	}
	if !assessment.RequiresHospitalization {
		return nil, ErrNotEligible
	}

	var created *Admission
	err = s.locker.WithLock(ctx, redisclient.PatientAdmissionKey(source.PatientID), func(lockCtx context.Context) error {
		// The worklist snapshot may be stale; re-check before inserting.
		occupied, err := s.repo.HasActiveOfTypes(lockCtx, source.PatientID, InpatientTypes)
		if err != nil {
			return fmt.Errorf("bed occupancy check: %w", err)
		}
		if occupied {
			return ErrAlreadyHospitalized
		}

		created, err = s.repo.Create(lockCtx, &Admission{
			PatientID:  source.PatientID,
			Type:       TypeHospitalization,
			Status:     StatusActive,
			Service:    req.Service,
			Room:       req.Room,
			Bed:        req.Bed,
			AdmittedAt: time.Now().UTC(),
		})
		return err
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrAdmissionBusy
		}
		return nil, err
	}

	s.audit.Record(ctx, audit.Event{
		Type:      audit.EventAdmissionPromoted,
		PatientID: &created.PatientID,
		SubjectID: &created.ID,
		Payload: map[string]any{
			"emergency_admission_id": emergencyID.String(),
			"service":                req.Service,
		},
	})

	return created, nil
}
