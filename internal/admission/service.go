package admission

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carewise/patient-flow/internal/audit"
	"github.com/carewise/patient-flow/internal/registry"
	redisclient "github.com/carewise/patient-flow/internal/redis"
)

var (
	ErrInvalidType              = errors.New("invalid admission type")
	ErrAlreadyActive            = errors.New("admission is already active")
	ErrAlreadyDischarged        = errors.New("admission is already discharged")
	ErrNotActive                = errors.New("admission is not active")
	ErrAlreadyHospitalized      = errors.New("patient already has an active bed-occupying admission")
	ErrDischargeBeforeAdmission = errors.New("discharge date precedes admission date")
	ErrAdmissionBusy            = errors.New("another admission change for this patient is in flight, please retry")
)

// PatientChecker is the slice of the registry the lifecycle consults.
type PatientChecker interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	repo     Repository
	patients PatientChecker
	locker   redisclient.Locker
	audit    audit.Recorder
	log      zerolog.Logger
}

func NewService(repo Repository, patients PatientChecker, locker redisclient.Locker, rec audit.Recorder, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		locker:   locker,
		audit:    rec,
		log:      log,
	}
}

type CreateRequest struct {
	PatientID uuid.UUID
	Type      Type
	Service   string
	Room      *string
	Bed       *string
	// Staged creates a bed-occupying admission in the waiting state, for
	// pre-admissions without an immediate bed assignment.
	Staged bool
}

// CreateAdmission registers a new care episode. Bed-occupying admissions
// created directly active are guarded by the single-active-bed invariant
// under the per-patient lock; outpatient registrations skip both the bed
// guard and the waiting state.
func (s *Service) CreateAdmission(ctx context.Context, req CreateRequest) (*Admission, error) {
	if !req.Type.Valid() {
		return nil, ErrInvalidType
	}

	ok, err := s.patients.PatientExists(ctx, req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("check patient: %w", err)
	}
	if !ok {
		return nil, registry.ErrPatientNotFound
	}

	status := StatusActive
	if req.Staged && req.Type.OccupiesBed() {
		status = StatusWaiting
	}

	record := &Admission{
		PatientID:  req.PatientID,
		Type:       req.Type,
		Status:     status,
		Service:    req.Service,
		Room:       req.Room,
		Bed:        req.Bed,
		AdmittedAt: time.Now().UTC(),
	}

	// Waiting and outpatient admissions do not hold a bed, so only a
	// directly-active bed admission needs the occupancy guard.
	if status == StatusActive && req.Type.OccupiesBed() {
		var created *Admission
		err = s.locker.WithLock(ctx, redisclient.PatientAdmissionKey(req.PatientID), func(lockCtx context.Context) error {
			occupied, err := s.repo.HasActiveOfTypes(lockCtx, req.PatientID, BedTypes)
			if err != nil {
				return fmt.Errorf("bed occupancy check: %w", err)
			}
			if occupied {
				return ErrAlreadyHospitalized
			}
			created, err = s.repo.Create(lockCtx, record)
			return err
		})
		if err != nil {
			if errors.Is(err, redisclient.ErrLockNotAcquired) {
				return nil, ErrAdmissionBusy
			}
			return nil, err
		}
		s.recordEvent(ctx, audit.EventAdmissionCreated, created)
		return created, nil
	}

	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("create admission: %w", err)
	}
	s.recordEvent(ctx, audit.EventAdmissionCreated, created)
	return created, nil
}

// ActivateAdmission moves a waiting admission to active. Already-active and
// already-discharged records are distinct, user-facing rejections.
func (s *Service) ActivateAdmission(ctx context.Context, id uuid.UUID) (*Admission, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch current.Status {
	case StatusActive:
		return nil, ErrAlreadyActive
	case StatusDischarged:
		return nil, ErrAlreadyDischarged
	}

	var activated *Admission
	err = s.locker.WithLock(ctx, redisclient.PatientAdmissionKey(current.PatientID), func(lockCtx context.Context) error {
		if current.Type.OccupiesBed() {
			occupied, err := s.repo.HasActiveOfTypes(lockCtx, current.PatientID, BedTypes)
			if err != nil {
				return fmt.Errorf("bed occupancy check: %w", err)
			}
			if occupied {
				return ErrAlreadyHospitalized
			}
		}

		activated, err = s.repo.UpdateStatus(lockCtx, id, StatusWaiting, StatusActive)
		if errors.Is(err, ErrAdmissionNotFound) {
			// The row moved out of waiting between the read and the CAS.
			return ErrAlreadyActive
		}
		return err
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrAdmissionBusy
		}
		return nil, err
	}

	s.recordEvent(ctx, audit.EventAdmissionActivated, activated)
	return activated, nil
}

// DischargeAdmission closes an active admission, computing the length of
// stay in whole days. A negative stay is a data error, never clamped.
func (s *Service) DischargeAdmission(ctx context.Context, id uuid.UUID, dischargeDate time.Time, kind string) (*Admission, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch current.Status {
	case StatusWaiting:
		return nil, ErrNotActive
	case StatusDischarged:
		return nil, ErrAlreadyDischarged
	}

	los := lengthOfStayDays(current.AdmittedAt, dischargeDate)
	if los < 0 {
		return nil, ErrDischargeBeforeAdmission
	}

	discharged, err := s.repo.Discharge(ctx, id, dischargeDate, kind, los)
	if err != nil {
		if errors.Is(err, ErrAdmissionNotFound) {
			return nil, ErrAlreadyDischarged
		}
		return nil, fmt.Errorf("discharge admission: %w", err)
	}

	s.recordEvent(ctx, audit.EventAdmissionDischarged, discharged)
	return discharged, nil
}

// lengthOfStayDays is ceil((discharge − admitted) / 1 day); negative when
// the discharge date precedes admission.
func lengthOfStayDays(admittedAt, dischargeDate time.Time) int {
	return int(math.Ceil(dischargeDate.Sub(admittedAt).Hours() / 24))
}

// RecordAssessment upserts the clinician's emergency evaluation. Only
// emergency admissions carry one.
func (s *Service) RecordAssessment(ctx context.Context, admissionID uuid.UUID, requiresHospitalization bool, notes *string) (*Assessment, error) {
	current, err := s.repo.GetByID(ctx, admissionID)
	if err != nil {
		return nil, err
	}
	if current.Type != TypeEmergency {
		return nil, ErrNotEmergency
	}

	return s.repo.UpsertAssessment(ctx, &Assessment{
		AdmissionID:             admissionID,
		RequiresHospitalization: requiresHospitalization,
		Notes:                   notes,
	})
}

func (s *Service) GetAdmission(ctx context.Context, id uuid.UUID) (*Admission, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListAdmissionsByPatient(ctx context.Context, patientID uuid.UUID) ([]Admission, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) recordEvent(ctx context.Context, eventType string, a *Admission) {
	s.audit.Record(ctx, audit.Event{
		Type:      eventType,
		PatientID: &a.PatientID,
		SubjectID: &a.ID,
		Payload: map[string]any{
			"type":   string(a.Type),
			"status": string(a.Status),
		},
	})
}
