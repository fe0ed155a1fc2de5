package admission

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/carewise/patient-flow/internal/audit"
)

type memStore struct {
	admissions  map[uuid.UUID]*Admission
	assessments map[uuid.UUID]*Assessment
}

func newMemStore() *memStore {
	return &memStore{
		admissions:  make(map[uuid.UUID]*Admission),
		assessments: make(map[uuid.UUID]*Assessment),
	}
}

func (m *memStore) Create(_ context.Context, a *Admission) (*Admission, error) {
	cp := *a
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.admissions[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*Admission, error) {
	a, ok := m.admissions[id]
	if !ok {
		return nil, ErrAdmissionNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) ListByPatient(_ context.Context, patientID uuid.UUID) ([]Admission, error) {
	var out []Admission
	for _, a := range m.admissions {
		if a.PatientID == patientID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AdmittedAt.After(out[j].AdmittedAt) })
	return out, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status) (*Admission, error) {
	a, ok := m.admissions[id]
	if !ok || a.Status != from {
		return nil, ErrAdmissionNotFound
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (m *memStore) Discharge(_ context.Context, id uuid.UUID, at time.Time, kind string, lengthOfStayDays int) (*Admission, error) {
	a, ok := m.admissions[id]
	if !ok || a.Status != StatusActive {
		return nil, ErrAdmissionNotFound
	}
	a.Status = StatusDischarged
	a.DischargedAt = &at
	a.DischargeKind = &kind
	a.LengthOfStayDays = &lengthOfStayDays
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (m *memStore) HasActiveOfTypes(_ context.Context, patientID uuid.UUID, types []Type) (bool, error) {
	for _, a := range m.admissions {
		if a.PatientID != patientID || a.Status != StatusActive {
			continue
		}
		for _, t := range types {
			if a.Type == t {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *memStore) UpsertAssessment(_ context.Context, a *Assessment) (*Assessment, error) {
	cp := *a
	cp.UpdatedAt = time.Now()
	m.assessments[cp.AdmissionID] = &cp
	out := cp
	return &out, nil
}

func (m *memStore) GetAssessment(_ context.Context, admissionID uuid.UUID) (*Assessment, error) {
	a, ok := m.assessments[admissionID]
	if !ok {
		return nil, ErrAssessmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) ListPendingHospitalization(_ context.Context) ([]PendingCase, error) {
	var out []PendingCase
	for _, a := range m.admissions {
		if a.Type != TypeEmergency || a.Status != StatusActive {
			continue
		}
		assessment, ok := m.assessments[a.ID]
		if !ok || !assessment.RequiresHospitalization {
			continue
		}
		hospitalized, _ := m.HasActiveOfTypes(context.Background(), a.PatientID, InpatientTypes)
		if hospitalized {
			continue
		}
		out = append(out, PendingCase{Admission: *a, Assessment: *assessment})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Admission.AdmittedAt.Before(out[j].Admission.AdmittedAt)
	})
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

type stubPatients struct {
	known map[uuid.UUID]bool
}

func (s *stubPatients) PatientExists(_ context.Context, id uuid.UUID) (bool, error) {
	return s.known[id], nil
}
