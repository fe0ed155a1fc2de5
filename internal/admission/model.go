package admission

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeEmergency       Type = "emergency"
	TypeHospitalization Type = "hospitalization"
	TypeICU             Type = "icu"
	TypeSurgery         Type = "surgery"
	TypeOutpatient      Type = "outpatient_registration"
)

// OccupiesBed is the single derivation point for the bed-occupancy property.
// Outpatient registrations never reserve a bed.
func (t Type) OccupiesBed() bool {
	switch t {
	case TypeEmergency, TypeHospitalization, TypeICU, TypeSurgery:
		return true
	}
	return false
}

func (t Type) Valid() bool {
	switch t {
	case TypeEmergency, TypeHospitalization, TypeICU, TypeSurgery, TypeOutpatient:
		return true
	}
	return false
}

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusActive     Status = "active"
	StatusDischarged Status = "discharged"
)

// Admission is the administrative record of one care episode. Rows are never
// deleted; discharge is a status change and the record keeps its history.
type Admission struct {
	ID               uuid.UUID
	PatientID        uuid.UUID
	Type             Type
	Status           Status
	Service          string
	Room             *string
	Bed              *string
	AdmittedAt       time.Time
	DischargedAt     *time.Time
	DischargeKind    *string
	LengthOfStayDays *int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Assessment is the clinician's emergency evaluation, one per emergency
// admission. The handoff reads RequiresHospitalization to decide
// eligibility; the clinical content itself lives elsewhere.
type Assessment struct {
	AdmissionID             uuid.UUID
	RequiresHospitalization bool
	Notes                   *string
	UpdatedAt               time.Time
}

// PendingCase is one entry in the hospitalization worklist: an active
// emergency admission whose assessment calls for a bed.
type PendingCase struct {
	Admission  Admission
	Assessment Assessment
}
