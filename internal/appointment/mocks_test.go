package appointment

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/carewise/patient-flow/internal/audit"
	"github.com/carewise/patient-flow/internal/registry"
	"github.com/carewise/patient-flow/internal/schedule"
)

type stubRules struct {
	rules []schedule.Rule
}

func (s *stubRules) ActiveRulesFor(_ context.Context, doctorID uuid.UUID, specialty string, weekday time.Weekday) ([]schedule.Rule, error) {
	var out []schedule.Rule
	for _, r := range s.rules {
		if r.DoctorID == doctorID && r.Specialty == specialty && r.Weekday == weekday && r.Active {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartMin < out[j].StartMin })
	return out, nil
}

type memLedger struct {
	slots map[uuid.UUID]*BookedSlot
}

func newMemLedger() *memLedger {
	return &memLedger{slots: make(map[uuid.UUID]*BookedSlot)}
}

func (m *memLedger) GetByID(_ context.Context, id uuid.UUID) (*BookedSlot, error) {
	s, ok := m.slots[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memLedger) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]BookedSlot, error) {
	var out []BookedSlot
	for _, s := range m.slots {
		if s.PatientID == patientID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memLedger) CountOccupied(_ context.Context, doctorID uuid.UUID, date time.Time, specialty string) (int, error) {
	count := 0
	for _, s := range m.slots {
		if s.DoctorID != nil && *s.DoctorID == doctorID && s.Date.Equal(date) && s.Specialty == specialty && s.Status.CountsAgainstCapacity() {
			count++
		}
	}
	return count, nil
}

func (m *memLedger) OccupiedTimes(_ context.Context, doctorID uuid.UUID, date time.Time, specialty string) ([]int, error) {
	var times []int
	for _, s := range m.slots {
		if s.DoctorID != nil && *s.DoctorID == doctorID && s.Date.Equal(date) && s.Specialty == specialty && s.Status.CountsAgainstCapacity() {
			times = append(times, s.TimeMin)
		}
	}
	sort.Ints(times)
	return times, nil
}

func (m *memLedger) HasScheduledInSpecialty(_ context.Context, patientID uuid.UUID, specialty string) (bool, error) {
	for _, s := range m.slots {
		if s.PatientID == patientID && s.Specialty == specialty && s.Status == StatusScheduled {
			return true, nil
		}
	}
	return false, nil
}

func (m *memLedger) InsertScheduled(_ context.Context, slot *BookedSlot) (*BookedSlot, error) {
	cp := *slot
	cp.ID = uuid.New()
	cp.Status = StatusScheduled
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.slots[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memLedger) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status, note *string) (*BookedSlot, error) {
	s, ok := m.slots[id]
	if !ok || s.Status != from {
		return nil, ErrAppointmentNotFound
	}
	s.Status = to
	if note != nil {
		s.CancelNote = note
	}
	s.UpdatedAt = time.Now()
	cp := *s
	return &cp, nil
}

func (m *memLedger) FindOverdueScheduled(_ context.Context, cutoff time.Time) ([]BookedSlot, error) {
	var out []BookedSlot
	for _, s := range m.slots {
		if s.Status == StatusScheduled && !s.Date.After(cutoff) {
			out = append(out, *s)
		}
	}
	return out, nil
}

type passLocker struct{}

func (passLocker) WithLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type captureAudit struct {
	events []audit.Event
}

func (c *captureAudit) Record(_ context.Context, ev audit.Event) {
	c.events = append(c.events, ev)
}

func (c *captureAudit) types() []string {
	var out []string
	for _, ev := range c.events {
		out = append(out, ev.Type)
	}
	return out
}

type stubDirectory struct {
	patients    map[uuid.UUID]bool
	specialties map[uuid.UUID]string
}

func (d *stubDirectory) PatientExists(_ context.Context, id uuid.UUID) (bool, error) {
	return d.patients[id], nil
}

func (d *stubDirectory) DoctorSpecialty(_ context.Context, id uuid.UUID) (string, error) {
	s, ok := d.specialties[id]
	if !ok {
		return "", registry.ErrDoctorNotFound
	}
	return s, nil
}
