package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/carewise/patient-flow/internal/admission"
	"github.com/carewise/patient-flow/internal/appointment"
	"github.com/carewise/patient-flow/internal/registry"
	"github.com/carewise/patient-flow/internal/schedule"
)

type CreateRuleRequest struct {
	DoctorID      string `json:"doctor_id"`
	Specialty     string `json:"specialty"`
	Weekday       int    `json:"weekday"`
	StartTime     string `json:"start_time"` // "08:00"
	EndTime       string `json:"end_time"`   // "12:00"
	DailyCapacity int    `json:"daily_capacity"`
}

type RuleResponse struct {
	ID            uuid.UUID `json:"id"`
	DoctorID      uuid.UUID `json:"doctor_id"`
	Specialty     string    `json:"specialty"`
	Weekday       int       `json:"weekday"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	DailyCapacity int       `json:"daily_capacity"`
	Active        bool      `json:"active"`
}

func toRuleResponse(r *schedule.Rule) RuleResponse {
	return RuleResponse{
		ID:            r.ID,
		DoctorID:      r.DoctorID,
		Specialty:     r.Specialty,
		Weekday:       int(r.Weekday),
		StartTime:     schedule.FormatClock(r.StartMin),
		EndTime:       schedule.FormatClock(r.EndMin),
		DailyCapacity: r.DailyCapacity,
		Active:        r.Active,
	}
}

type CreateAppointmentRequest struct {
	PatientID string `json:"patient_id"`
	DoctorID  string `json:"doctor_id,omitempty"`
	Specialty string `json:"specialty,omitempty"`
	Date      string `json:"date"` // "2006-01-02"
	Time      string `json:"time"` // "15:04"
	Reason    string `json:"reason"`
}

type CancelAppointmentRequest struct {
	Note string `json:"note,omitempty"`
}

type AppointmentResponse struct {
	ID        uuid.UUID  `json:"id"`
	DoctorID  *uuid.UUID `json:"doctor_id,omitempty"`
	PatientID uuid.UUID  `json:"patient_id"`
	Specialty string     `json:"specialty"`
	Date      string     `json:"date"`
	Time      string     `json:"time"`
	Status    string     `json:"status"`
	Reason    string     `json:"reason"`
}

func toAppointmentResponse(s *appointment.BookedSlot) AppointmentResponse {
	return AppointmentResponse{
		ID:        s.ID,
		DoctorID:  s.DoctorID,
		PatientID: s.PatientID,
		Specialty: s.Specialty,
		Date:      s.Date.Format("2006-01-02"),
		Time:      schedule.FormatClock(s.TimeMin),
		Status:    string(s.Status),
		Reason:    s.Reason,
	}
}

type AlternativeResponse struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type AvailabilityResponse struct {
	Available    bool                  `json:"available"`
	Reason       string                `json:"reason,omitempty"`
	ReasonCode   string                `json:"reason_code,omitempty"`
	FreeTimes    []string              `json:"free_times,omitempty"`
	Alternatives []AlternativeResponse `json:"alternatives,omitempty"`
}

func toAvailabilityResponse(d appointment.Decision) AvailabilityResponse {
	resp := AvailabilityResponse{
		Available:  d.Available,
		Reason:     d.Reason,
		ReasonCode: d.ReasonCode,
	}
	for _, t := range d.FreeTimes {
		resp.FreeTimes = append(resp.FreeTimes, schedule.FormatClock(t))
	}
	for _, a := range d.Alternatives {
		resp.Alternatives = append(resp.Alternatives, AlternativeResponse{
			Date: a.Date.Format("2006-01-02"),
			Time: schedule.FormatClock(a.TimeMin),
		})
	}
	return resp
}

type CreateAdmissionRequest struct {
	PatientID string  `json:"patient_id"`
	Type      string  `json:"type"`
	Service   string  `json:"service,omitempty"`
	Room      *string `json:"room,omitempty"`
	Bed       *string `json:"bed,omitempty"`
	Staged    bool    `json:"staged,omitempty"`
}

type DischargeRequest struct {
	DischargeDate string `json:"discharge_date"` // "2006-01-02"
	Kind          string `json:"kind"`
}

type AssessmentRequest struct {
	RequiresHospitalization bool    `json:"requires_hospitalization"`
	Notes                   *string `json:"notes,omitempty"`
}

type PromoteRequest struct {
	Service string  `json:"service"`
	Room    *string `json:"room,omitempty"`
	Bed     *string `json:"bed,omitempty"`
}

type AdmissionResponse struct {
	ID               uuid.UUID  `json:"id"`
	PatientID        uuid.UUID  `json:"patient_id"`
	Type             string     `json:"type"`
	Status           string     `json:"status"`
	Service          string     `json:"service,omitempty"`
	Room             *string    `json:"room,omitempty"`
	Bed              *string    `json:"bed,omitempty"`
	OccupiesBed      bool       `json:"occupies_bed"`
	AdmittedAt       time.Time  `json:"admitted_at"`
	DischargedAt     *time.Time `json:"discharged_at,omitempty"`
	DischargeKind    *string    `json:"discharge_kind,omitempty"`
	LengthOfStayDays *int       `json:"length_of_stay_days,omitempty"`
}

func toAdmissionResponse(a *admission.Admission) AdmissionResponse {
	return AdmissionResponse{
		ID:               a.ID,
		PatientID:        a.PatientID,
		Type:             string(a.Type),
		Status:           string(a.Status),
		Service:          a.Service,
		Room:             a.Room,
		Bed:              a.Bed,
		OccupiesBed:      a.Type.OccupiesBed(),
		AdmittedAt:       a.AdmittedAt,
		DischargedAt:     a.DischargedAt,
		DischargeKind:    a.DischargeKind,
		LengthOfStayDays: a.LengthOfStayDays,
	}
}

type PendingCaseResponse struct {
	Admission               AdmissionResponse `json:"admission"`
	RequiresHospitalization bool              `json:"requires_hospitalization"`
	Notes                   *string           `json:"notes,omitempty"`
}

type PatientResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email *string   `json:"email,omitempty"`
}

func toPatientResponse(p *registry.Patient) PatientResponse {
	return PatientResponse{
		ID:    p.ID,
		Name:  p.Name,
		Email: p.Email,
	}
}

type DoctorResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Specialty string    `json:"specialty"`
}

func toDoctorResponse(d *registry.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:        d.ID,
		Name:      d.Name,
		Specialty: d.Specialty,
	}
}

type ErrorResponse struct {
	Error        string                `json:"error"`
	Details      string                `json:"details,omitempty"`
	Alternatives []AlternativeResponse `json:"alternatives,omitempty"`
}
