package schedule

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/carewise/patient-flow/internal/audit"
)

var (
	ErrSpecialtyRequired = errors.New("specialty is required")
	ErrInvalidWeekday    = errors.New("weekday must be between 0 (Sunday) and 6 (Saturday)")
	ErrInvalidWindow     = errors.New("start time must be before end time")
	ErrInvalidCapacity   = errors.New("daily capacity must be positive")
)

type Service struct {
	repo  Repository
	audit audit.Recorder
}

func NewService(repo Repository, rec audit.Recorder) *Service {
	return &Service{repo: repo, audit: rec}
}

// CreateRule adds a recurring weekly availability window for a doctor.
func (s *Service) CreateRule(ctx context.Context, rule Rule) (*Rule, error) {
	if rule.DoctorID == uuid.Nil {
		return nil, errors.New("doctor_id is required")
	}
	if rule.Specialty == "" {
		return nil, ErrSpecialtyRequired
	}
	if rule.Weekday < 0 || rule.Weekday > 6 {
		return nil, ErrInvalidWeekday
	}
	if rule.StartMin < 0 || rule.EndMin > 24*60 || rule.StartMin >= rule.EndMin {
		return nil, ErrInvalidWindow
	}
	if rule.DailyCapacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	created, err := s.repo.Create(ctx, &rule)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Event{
		Type:      audit.EventRuleCreated,
		SubjectID: &created.ID,
		Payload: map[string]any{
			"doctor_id": created.DoctorID.String(),
			"specialty": created.Specialty,
			"weekday":   int(created.Weekday),
			"window":    FormatClock(created.StartMin) + "-" + FormatClock(created.EndMin),
		},
	})

	return created, nil
}

// DeactivateRule retires a window without deleting it.
func (s *Service) DeactivateRule(ctx context.Context, id uuid.UUID) (*Rule, error) {
	rule, err := s.repo.Deactivate(ctx, id)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Event{
		Type:      audit.EventRuleDeactivated,
		SubjectID: &rule.ID,
		Payload: map[string]any{
			"doctor_id": rule.DoctorID.String(),
			"specialty": rule.Specialty,
		},
	})

	return rule, nil
}

func (s *Service) ListRulesByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Rule, error) {
	return s.repo.ListByDoctor(ctx, doctorID)
}
