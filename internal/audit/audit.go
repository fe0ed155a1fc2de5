// Package audit emits one event per state transition in the flow engine.
// Recording is fire-and-forget: a transition must never block or fail
// because the sink is unavailable.
package audit

import (
	"context"

	"github.com/google/uuid"
)

const (
	EventAppointmentBooked    = "APPOINTMENT_BOOKED"
	EventAppointmentStarted   = "APPOINTMENT_STARTED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentNoShow    = "APPOINTMENT_NO_SHOW"
	EventAdmissionCreated     = "ADMISSION_CREATED"
	EventAdmissionActivated   = "ADMISSION_ACTIVATED"
	EventAdmissionDischarged  = "ADMISSION_DISCHARGED"
	EventAdmissionPromoted    = "ADMISSION_PROMOTED"
	EventRuleCreated          = "SCHEDULE_RULE_CREATED"
	EventRuleDeactivated      = "SCHEDULE_RULE_DEACTIVATED"
)

type Event struct {
	Type      string
	PatientID *uuid.UUID
	SubjectID *uuid.UUID // appointment, admission, or rule id
	Payload   map[string]any
}

// Recorder is implemented by the Postgres sink and by test doubles.
type Recorder interface {
	Record(ctx context.Context, ev Event)
}
