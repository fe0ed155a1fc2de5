package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carewise/patient-flow/internal/audit"
	"github.com/carewise/patient-flow/internal/config"
	redisclient "github.com/carewise/patient-flow/internal/redis"
	"github.com/carewise/patient-flow/internal/registry"
	"github.com/carewise/patient-flow/internal/schedule"
)

type serviceFixture struct {
	svc       *Service
	ledger    *memLedger
	audit     *captureAudit
	doctorID  uuid.UUID
	patientID uuid.UUID
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	doctorID := uuid.New()
	patientID := uuid.New()

	ledger := newMemLedger()
	rules := &stubRules{rules: []schedule.Rule{
		mondayRule(doctorID, "Cardiology", clock(8, 0), clock(12, 0), 4),
	}}
	engine := NewEngine(rules, ledger, time.Hour, 7, 3)

	directory := &stubDirectory{
		patients:    map[uuid.UUID]bool{patientID: true},
		specialties: map[uuid.UUID]string{doctorID: "Cardiology"},
	}

	rec := &captureAudit{}
	cfg := config.Config{SweepGrace: 24 * time.Hour}

	svc := NewService(ledger, engine, directory, passLocker{}, rec, cfg, zerolog.Nop())

	return &serviceFixture{
		svc:       svc,
		ledger:    ledger,
		audit:     rec,
		doctorID:  doctorID,
		patientID: patientID,
	}
}

func (f *serviceFixture) createRequest() CreateRequest {
	return CreateRequest{
		PatientID: f.patientID,
		DoctorID:  &f.doctorID,
		Specialty: "Cardiology",
		Date:      monday,
		TimeMin:   clock(9, 0),
		Reason:    "chest pain follow-up",
	}
}

func TestCreateAppointmentRequiresReason(t *testing.T) {
	f := newServiceFixture(t)
	req := f.createRequest()
	req.Reason = ""

	_, _, err := f.svc.CreateAppointment(context.Background(), req)

	assert.ErrorIs(t, err, ErrReasonRequired)
	assert.Empty(t, f.ledger.slots)
}

func TestCreateAppointmentUnknownPatient(t *testing.T) {
	f := newServiceFixture(t)
	req := f.createRequest()
	req.PatientID = uuid.New()

	_, _, err := f.svc.CreateAppointment(context.Background(), req)

	assert.ErrorIs(t, err, registry.ErrPatientNotFound)
}

func TestCreateAppointmentSucceeds(t *testing.T) {
	f := newServiceFixture(t)

	slot, decision, err := f.svc.CreateAppointment(context.Background(), f.createRequest())

	require.NoError(t, err)
	assert.Nil(t, decision)
	require.NotNil(t, slot)
	assert.Equal(t, StatusScheduled, slot.Status)
	assert.Equal(t, "Cardiology", slot.Specialty)
	assert.Equal(t, clock(9, 0), slot.TimeMin)
	assert.Equal(t, []string{audit.EventAppointmentBooked}, f.audit.types())
}

func TestCreateAppointmentDefaultsSpecialtyFromDoctor(t *testing.T) {
	f := newServiceFixture(t)
	req := f.createRequest()
	req.Specialty = ""

	slot, _, err := f.svc.CreateAppointment(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "Cardiology", slot.Specialty)
}

func TestCreateAppointmentWithoutDoctorOrSpecialty(t *testing.T) {
	f := newServiceFixture(t)
	req := f.createRequest()
	req.DoctorID = nil
	req.Specialty = ""

	_, _, err := f.svc.CreateAppointment(context.Background(), req)

	assert.ErrorIs(t, err, ErrSpecialtyRequired)
}

func TestCreateAppointmentRejectsDuplicateSpecialty(t *testing.T) {
	f := newServiceFixture(t)

	_, _, err := f.svc.CreateAppointment(context.Background(), f.createRequest())
	require.NoError(t, err)

	req := f.createRequest()
	req.TimeMin = clock(10, 0)
	_, _, err = f.svc.CreateAppointment(context.Background(), req)

	assert.ErrorIs(t, err, ErrDuplicateSpecialty)
	assert.Len(t, f.ledger.slots, 1)
}

func TestCreateAppointmentDuplicateClearedByCancellation(t *testing.T) {
	f := newServiceFixture(t)

	first, _, err := f.svc.CreateAppointment(context.Background(), f.createRequest())
	require.NoError(t, err)
	_, err = f.svc.CancelAppointment(context.Background(), first.ID, nil)
	require.NoError(t, err)

	req := f.createRequest()
	req.TimeMin = clock(10, 0)
	_, _, err = f.svc.CreateAppointment(context.Background(), req)

	assert.NoError(t, err)
}

func TestCreateAppointmentRejectedWithAlternatives(t *testing.T) {
	f := newServiceFixture(t)
	req := f.createRequest()
	req.TimeMin = clock(13, 0)

	slot, decision, err := f.svc.CreateAppointment(context.Background(), req)

	assert.ErrorIs(t, err, ErrNotAvailable)
	assert.Nil(t, slot)
	require.NotNil(t, decision)
	assert.Equal(t, ReasonOutsideHours, decision.ReasonCode)
	assert.Empty(t, f.ledger.slots)
}

func TestCreateAppointmentSpecialtyOnly(t *testing.T) {
	f := newServiceFixture(t)
	req := f.createRequest()
	req.DoctorID = nil
	req.Specialty = "Dermatology"

	slot, _, err := f.svc.CreateAppointment(context.Background(), req)

	require.NoError(t, err)
	assert.Nil(t, slot.DoctorID)
	assert.Equal(t, "Dermatology", slot.Specialty)
}

func TestCreateAppointmentLockContention(t *testing.T) {
	f := newServiceFixture(t)
	f.svc.locker = contendedLocker{}

	_, _, err := f.svc.CreateAppointment(context.Background(), f.createRequest())

	assert.ErrorIs(t, err, ErrBookingInProgress)
}

func TestCreateAppointmentRetriesTransientInsert(t *testing.T) {
	f := newServiceFixture(t)
	flaky := &flakyLedger{memLedger: f.ledger, failures: 1}
	f.svc.repo = flaky
	f.svc.engine.ledger = flaky

	slot, _, err := f.svc.CreateAppointment(context.Background(), f.createRequest())

	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.Equal(t, 2, flaky.attempts)
}

func TestCreateAppointmentGivesUpAfterRetry(t *testing.T) {
	f := newServiceFixture(t)
	flaky := &flakyLedger{memLedger: f.ledger, failures: 2}
	f.svc.repo = flaky
	f.svc.engine.ledger = flaky

	_, _, err := f.svc.CreateAppointment(context.Background(), f.createRequest())

	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Empty(t, f.ledger.slots)
}

func TestCreateAppointmentConcurrentDuplicateHitsIndexBackstop(t *testing.T) {
	// A racer for the same patient+specialty on another doctor or day holds
	// a different lock key, so the duplicate re-check passes and the insert
	// lands on the partial unique index instead.
	f := newServiceFixture(t)
	racing := &racingLedger{memLedger: f.ledger}
	f.svc.repo = racing
	f.svc.engine.ledger = racing

	_, _, err := f.svc.CreateAppointment(context.Background(), f.createRequest())

	assert.ErrorIs(t, err, ErrDuplicateSpecialty)
	assert.Empty(t, f.ledger.slots)
}

func TestAppointmentLifecycleTransitions(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	slot, _, err := f.svc.CreateAppointment(ctx, f.createRequest())
	require.NoError(t, err)

	started, err := f.svc.StartAppointment(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, started.Status)

	completed, err := f.svc.CompleteAppointment(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)

	assert.Equal(t, []string{
		audit.EventAppointmentBooked,
		audit.EventAppointmentStarted,
		audit.EventAppointmentCompleted,
	}, f.audit.types())
}

func TestCancelCompletedAppointmentRejected(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	slot, _, err := f.svc.CreateAppointment(ctx, f.createRequest())
	require.NoError(t, err)
	_, err = f.svc.StartAppointment(ctx, slot.ID)
	require.NoError(t, err)
	_, err = f.svc.CompleteAppointment(ctx, slot.ID)
	require.NoError(t, err)

	_, err = f.svc.CancelAppointment(ctx, slot.ID, nil)

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStartUnknownAppointment(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.StartAppointment(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestCancelRecordsNote(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	slot, _, err := f.svc.CreateAppointment(ctx, f.createRequest())
	require.NoError(t, err)

	note := "patient requested"
	cancelled, err := f.svc.CancelAppointment(ctx, slot.ID, &note)

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelNote)
	assert.Equal(t, note, *cancelled.CancelNote)
}

func TestSweepOverdueCancelsStaleScheduled(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	stale, _, err := f.svc.CreateAppointment(ctx, f.createRequest())
	require.NoError(t, err)

	fresh := f.createRequest()
	fresh.PatientID = uuid.New()
	freshDir := f.svc.directory.(*stubDirectory)
	freshDir.patients[fresh.PatientID] = true
	fresh.Date = monday.AddDate(0, 0, 7)
	fresh.TimeMin = clock(10, 0)
	kept, _, err := f.svc.CreateAppointment(ctx, fresh)
	require.NoError(t, err)

	swept, err := f.svc.SweepOverdue(ctx, monday.AddDate(0, 0, 3))

	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	got, err := f.svc.GetAppointment(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)

	got, err = f.svc.GetAppointment(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, got.Status)
}

func TestListAppointmentsClampsLimit(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.CreateAppointment(ctx, f.createRequest())
	require.NoError(t, err)

	out, err := f.svc.ListAppointmentsByPatient(ctx, f.patientID, -5, -1)

	require.NoError(t, err)
	assert.Len(t, out, 1)
}

type contendedLocker struct{}

func (contendedLocker) WithLock(context.Context, string, func(ctx context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

// flakyLedger fails the first N inserts with a serialization failure, the
// shape pgx surfaces for retryable commit errors.
type flakyLedger struct {
	*memLedger
	failures int
	attempts int
}

func (f *flakyLedger) InsertScheduled(ctx context.Context, slot *BookedSlot) (*BookedSlot, error) {
	f.attempts++
	if f.failures > 0 {
		f.failures--
		return nil, &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
	}
	return f.memLedger.InsertScheduled(ctx, slot)
}

// racingLedger simulates losing the duplicate-specialty race to a concurrent
// insert that committed under a different booking lock.
type racingLedger struct {
	*memLedger
}

func (r *racingLedger) InsertScheduled(context.Context, *BookedSlot) (*BookedSlot, error) {
	return nil, &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "idx_booked_slots_one_scheduled_per_specialty",
		Message:        "duplicate key value violates unique constraint",
	}
}
