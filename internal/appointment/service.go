package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/carewise/patient-flow/internal/audit"
	"github.com/carewise/patient-flow/internal/config"
	"github.com/carewise/patient-flow/internal/registry"
	redisclient "github.com/carewise/patient-flow/internal/redis"
)

var (
	ErrReasonRequired     = errors.New("booking reason is required")
	ErrSpecialtyRequired  = errors.New("specialty or doctor is required")
	ErrDuplicateSpecialty = errors.New("patient already has a scheduled appointment in this specialty")
	ErrNotAvailable       = errors.New("requested slot is not available")
	ErrBookingInProgress  = errors.New("slot group is currently being booked, please retry")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrStorageUnavailable = errors.New("storage temporarily unavailable")
)

// Directory is the slice of the registry the lifecycle consults.
type Directory interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
	DoctorSpecialty(ctx context.Context, id uuid.UUID) (string, error)
}

type Service struct {
	repo      Repository
	engine    *Engine
	directory Directory
	locker    redisclient.Locker
	audit     audit.Recorder
	cfg       config.Config
	log       zerolog.Logger
}

func NewService(repo Repository, engine *Engine, directory Directory, locker redisclient.Locker, rec audit.Recorder, cfg config.Config, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		engine:    engine,
		directory: directory,
		locker:    locker,
		audit:     rec,
		cfg:       cfg,
		log:       log,
	}
}

type CreateRequest struct {
	PatientID uuid.UUID
	DoctorID  *uuid.UUID
	Specialty string
	Date      time.Time
	TimeMin   int
	Reason    string
}

// CreateAppointment admits or rejects a booking request. On an availability
// rejection it returns ErrNotAvailable together with the engine's decision,
// alternatives attached, and creates nothing. The capacity re-count and the
// insert run under a distributed lock keyed by the doctor/day/specialty
// group so concurrent requests cannot both pass the check.
func (s *Service) CreateAppointment(ctx context.Context, req CreateRequest) (*BookedSlot, *Decision, error) {
	if req.Reason == "" {
		return nil, nil, ErrReasonRequired
	}

	ok, err := s.directory.PatientExists(ctx, req.PatientID)
	if err != nil {
		return nil, nil, fmt.Errorf("check patient: %w", err)
	}
	if !ok {
		return nil, nil, registry.ErrPatientNotFound
	}

	if req.Specialty == "" {
		if req.DoctorID == nil {
			return nil, nil, ErrSpecialtyRequired
		}
		specialty, err := s.directory.DoctorSpecialty(ctx, *req.DoctorID)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve doctor specialty: %w", err)
		}
		req.Specialty = specialty
	}

	// Patient-specific and cheap, so evaluated before availability.
	dup, err := s.repo.HasScheduledInSpecialty(ctx, req.PatientID, req.Specialty)
	if err != nil {
		return nil, nil, fmt.Errorf("duplicate specialty check: %w", err)
	}
	if dup {
		return nil, nil, ErrDuplicateSpecialty
	}

	if req.DoctorID != nil {
		decision, err := s.engine.Check(ctx, *req.DoctorID, req.Specialty, req.Date, &req.TimeMin)
		if err != nil {
			return nil, nil, err
		}
		if !decision.Available {
			return nil, &decision, ErrNotAvailable
		}
	}

	var (
		created  *BookedSlot
		rejected *Decision
	)

	err = s.locker.WithLock(ctx, s.bookingLockKey(req), func(lockCtx context.Context) error {
		// Re-check both guards inside the critical section; time may have
		// passed since the optimistic checks above.
		dup, err := s.repo.HasScheduledInSpecialty(lockCtx, req.PatientID, req.Specialty)
		if err != nil {
			return fmt.Errorf("duplicate specialty re-check: %w", err)
		}
		if dup {
			return ErrDuplicateSpecialty
		}

		if req.DoctorID != nil {
			decision, err := s.engine.Check(lockCtx, *req.DoctorID, req.Specialty, req.Date, &req.TimeMin)
			if err != nil {
				return err
			}
			if !decision.Available {
				rejected = &decision
				return ErrNotAvailable
			}
		}

		slot, err := s.insertWithRetry(lockCtx, &BookedSlot{
			DoctorID:  req.DoctorID,
			PatientID: req.PatientID,
			Specialty: req.Specialty,
			Date:      req.Date,
			TimeMin:   req.TimeMin,
			Reason:    req.Reason,
		})
		if err != nil {
			return err
		}

		created = slot

		s.audit.Record(lockCtx, audit.Event{
			Type:      audit.EventAppointmentBooked,
			PatientID: &slot.PatientID,
			SubjectID: &slot.ID,
			Payload: map[string]any{
				"specialty": slot.Specialty,
				"date":      slot.Date.Format("2006-01-02"),
				"time_min":  slot.TimeMin,
			},
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, nil, ErrBookingInProgress
		}
		return nil, rejected, err
	}

	return created, nil, nil
}

// bookingLockKey serializes the capacity pool when a doctor is named, and
// the patient's specialty guard for specialty-only bookings.
func (s *Service) bookingLockKey(req CreateRequest) string {
	if req.DoctorID != nil {
		return redisclient.BookingKey(*req.DoctorID, req.Date, req.Specialty)
	}
	return fmt.Sprintf("lock:booking:patient:%s:%s", req.PatientID, req.Specialty)
}

// insertWithRetry retries the commit once on a transient storage failure,
// then surfaces an infrastructure error distinct from the business
// taxonomy.
func (s *Service) insertWithRetry(ctx context.Context, slot *BookedSlot) (*BookedSlot, error) {
	created, err := s.repo.InsertScheduled(ctx, slot)
	if err == nil {
		return created, nil
	}
	if uniqueViolation(err) {
		// A concurrent booking for the same patient and specialty on a
		// different doctor or day holds a different lock key, so both pass
		// the in-lock re-check and the loser lands on the partial unique
		// index. That loser gets the business rejection.
		return nil, ErrDuplicateSpecialty
	}
	if !transient(err) {
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	s.log.Warn().Err(err).Msg("transient failure inserting booking, retrying once")

	created, err = s.repo.InsertScheduled(ctx, slot)
	if err != nil {
		if uniqueViolation(err) {
			return nil, ErrDuplicateSpecialty
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return created, nil
}

// uniqueViolation reports SQLSTATE 23505. The only unique index an insert
// into booked_slots can hit is the one-scheduled-per-specialty backstop.
func uniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func transient(err error) bool {
	if pgconn.Timeout(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03": // serialization failure, deadlock, lock timeout
			return true
		}
	}
	return false
}

// CheckAvailability exposes the engine directly for query callers.
func (s *Service) CheckAvailability(ctx context.Context, doctorID uuid.UUID, specialty string, date time.Time, timeMin *int) (Decision, error) {
	if specialty == "" {
		resolved, err := s.directory.DoctorSpecialty(ctx, doctorID)
		if err != nil {
			return Decision{}, fmt.Errorf("resolve doctor specialty: %w", err)
		}
		specialty = resolved
	}
	return s.engine.Check(ctx, doctorID, specialty, date, timeMin)
}

// StartAppointment moves a scheduled appointment to in progress.
func (s *Service) StartAppointment(ctx context.Context, id uuid.UUID) (*BookedSlot, error) {
	slot, err := s.transition(ctx, id, StatusScheduled, StatusInProgress, nil)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.Event{Type: audit.EventAppointmentStarted, PatientID: &slot.PatientID, SubjectID: &slot.ID})
	return slot, nil
}

// CompleteAppointment moves an in-progress appointment to completed.
func (s *Service) CompleteAppointment(ctx context.Context, id uuid.UUID) (*BookedSlot, error) {
	slot, err := s.transition(ctx, id, StatusInProgress, StatusCompleted, nil)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.Event{Type: audit.EventAppointmentCompleted, PatientID: &slot.PatientID, SubjectID: &slot.ID})
	return slot, nil
}

// CancelAppointment releases a scheduled slot. The row survives with status
// cancelled so the ledger keeps its history.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID, note *string) (*BookedSlot, error) {
	slot, err := s.transition(ctx, id, StatusScheduled, StatusCancelled, note)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.Event{Type: audit.EventAppointmentCancelled, PatientID: &slot.PatientID, SubjectID: &slot.ID})
	return slot, nil
}

// transition runs the compare-and-set and, when it misses, distinguishes a
// missing row from an illegal source state.
func (s *Service) transition(ctx context.Context, id uuid.UUID, from, to Status, note *string) (*BookedSlot, error) {
	slot, err := s.repo.UpdateStatus(ctx, id, from, to, note)
	if err == nil {
		return slot, nil
	}
	if !errors.Is(err, ErrAppointmentNotFound) {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	current, getErr := s.repo.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("%w: cannot move %s appointment to %s", ErrInvalidTransition, current.Status, to)
}

// SweepOverdue cancels scheduled appointments whose date fell past the grace
// window without being started. Called periodically by the sweep worker.
func (s *Service) SweepOverdue(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.cfg.SweepGrace).Truncate(24 * time.Hour)

	overdue, err := s.repo.FindOverdueScheduled(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("find overdue appointments: %w", err)
	}

	note := "cancelled by no-show sweep"
	swept := 0
	for _, slot := range overdue {
		_, err := s.repo.UpdateStatus(ctx, slot.ID, StatusScheduled, StatusCancelled, &note)
		if err != nil {
			if !errors.Is(err, ErrAppointmentNotFound) {
				s.log.Warn().Err(err).Stringer("appointment_id", slot.ID).Msg("sweep cancel failed")
			}
			continue
		}
		swept++
		s.audit.Record(ctx, audit.Event{
			Type:      audit.EventAppointmentNoShow,
			PatientID: &slot.PatientID,
			SubjectID: &slot.ID,
			Payload:   map[string]any{"date": slot.Date.Format("2006-01-02")},
		})
	}

	return swept, nil
}

// GetAppointment retrieves a booking by id.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*BookedSlot, error) {
	return s.repo.GetByID(ctx, id)
}

// ListAppointmentsByPatient retrieves a patient's bookings, newest first.
func (s *Service) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]BookedSlot, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}
