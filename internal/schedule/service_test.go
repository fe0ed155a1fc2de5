package schedule

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carewise/patient-flow/internal/audit"
)

type captureAudit struct {
	events []audit.Event
}

func (c *captureAudit) Record(_ context.Context, ev audit.Event) {
	c.events = append(c.events, ev)
}

type memRules struct {
	rules map[uuid.UUID]*Rule
}

func newMemRules() *memRules {
	return &memRules{rules: make(map[uuid.UUID]*Rule)}
}

func (m *memRules) Create(_ context.Context, r *Rule) (*Rule, error) {
	cp := *r
	cp.ID = uuid.New()
	cp.Active = true
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.rules[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memRules) GetByID(_ context.Context, id uuid.UUID) (*Rule, error) {
	r, ok := m.rules[id]
	if !ok {
		return nil, ErrRuleNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRules) Deactivate(_ context.Context, id uuid.UUID) (*Rule, error) {
	r, ok := m.rules[id]
	if !ok {
		return nil, ErrRuleNotFound
	}
	r.Active = false
	r.UpdatedAt = time.Now()
	cp := *r
	return &cp, nil
}

func (m *memRules) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]Rule, error) {
	var out []Rule
	for _, r := range m.rules {
		if r.DoctorID == doctorID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weekday != out[j].Weekday {
			return out[i].Weekday < out[j].Weekday
		}
		return out[i].StartMin < out[j].StartMin
	})
	return out, nil
}

func (m *memRules) ActiveRulesFor(_ context.Context, doctorID uuid.UUID, specialty string, weekday time.Weekday) ([]Rule, error) {
	var out []Rule
	for _, r := range m.rules {
		if r.DoctorID == doctorID && r.Specialty == specialty && r.Weekday == weekday && r.Active {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartMin < out[j].StartMin })
	return out, nil
}

func validRule(doctorID uuid.UUID) Rule {
	return Rule{
		DoctorID:      doctorID,
		Specialty:     "Cardiology",
		Weekday:       time.Monday,
		StartMin:      8 * 60,
		EndMin:        12 * 60,
		DailyCapacity: 4,
	}
}

func TestCreateRule(t *testing.T) {
	rec := &captureAudit{}
	svc := NewService(newMemRules(), rec)
	doctorID := uuid.New()

	created, err := svc.CreateRule(context.Background(), validRule(doctorID))

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.True(t, created.Active)

	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.EventRuleCreated, rec.events[0].Type)
	require.NotNil(t, rec.events[0].SubjectID)
	assert.Equal(t, created.ID, *rec.events[0].SubjectID)
}

func TestCreateRuleValidation(t *testing.T) {
	doctorID := uuid.New()

	tests := []struct {
		name    string
		mutate  func(*Rule)
		wantErr error
	}{
		{"missing specialty", func(r *Rule) { r.Specialty = "" }, ErrSpecialtyRequired},
		{"weekday too high", func(r *Rule) { r.Weekday = 7 }, ErrInvalidWeekday},
		{"negative weekday", func(r *Rule) { r.Weekday = -1 }, ErrInvalidWeekday},
		{"inverted window", func(r *Rule) { r.StartMin, r.EndMin = r.EndMin, r.StartMin }, ErrInvalidWindow},
		{"empty window", func(r *Rule) { r.EndMin = r.StartMin }, ErrInvalidWindow},
		{"window past midnight", func(r *Rule) { r.EndMin = 25 * 60 }, ErrInvalidWindow},
		{"zero capacity", func(r *Rule) { r.DailyCapacity = 0 }, ErrInvalidCapacity},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &captureAudit{}
			svc := NewService(newMemRules(), rec)
			rule := validRule(doctorID)
			tc.mutate(&rule)

			_, err := svc.CreateRule(context.Background(), rule)

			assert.ErrorIs(t, err, tc.wantErr)
			assert.Empty(t, rec.events)
		})
	}
}

func TestDeactivateRuleHidesItFromEngine(t *testing.T) {
	repo := newMemRules()
	rec := &captureAudit{}
	svc := NewService(repo, rec)
	doctorID := uuid.New()
	ctx := context.Background()

	created, err := svc.CreateRule(ctx, validRule(doctorID))
	require.NoError(t, err)

	_, err = svc.DeactivateRule(ctx, created.ID)
	require.NoError(t, err)

	require.Len(t, rec.events, 2)
	assert.Equal(t, audit.EventRuleDeactivated, rec.events[1].Type)

	active, err := repo.ActiveRulesFor(ctx, doctorID, "Cardiology", time.Monday)
	require.NoError(t, err)
	assert.Empty(t, active)

	// The rule itself survives for historical reference.
	all, err := svc.ListRulesByDoctor(ctx, doctorID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Active)
}

func TestDeactivateUnknownRule(t *testing.T) {
	svc := NewService(newMemRules(), &captureAudit{})

	_, err := svc.DeactivateRule(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "08:00", FormatClock(8*60))
	assert.Equal(t, "14:30", FormatClock(14*60+30))
	assert.Equal(t, "00:00", FormatClock(0))
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("09:15")
	require.NoError(t, err)
	assert.Equal(t, 9*60+15, m)

	_, err = ParseClock("9am")
	assert.Error(t, err)

	_, err = ParseClock("25:00")
	assert.Error(t, err)
}
