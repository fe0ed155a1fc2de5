package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carewise/patient-flow/internal/appointment"
	"github.com/carewise/patient-flow/internal/schedule"
)

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}

func createAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "patient_id must be a valid UUID")
			return
		}

		var doctorID *uuid.UUID
		if req.DoctorID != "" {
			id, err := uuid.Parse(req.DoctorID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "doctor_id must be a valid UUID")
				return
			}
			doctorID = &id
		}

		date, err := parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "date must be formatted as 2006-01-02")
			return
		}

		timeMin, err := schedule.ParseClock(req.Time)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "time must be formatted as 15:04")
			return
		}

		slot, decision, err := svc.CreateAppointment(r.Context(), appointment.CreateRequest{
			PatientID: patientID,
			DoctorID:  doctorID,
			Specialty: req.Specialty,
			Date:      date,
			TimeMin:   timeMin,
			Reason:    req.Reason,
		})
		if err != nil {
			if errors.Is(err, appointment.ErrNotAvailable) && decision != nil {
				resp := ErrorResponse{Error: decision.ReasonCode, Details: decision.Reason}
				for _, a := range decision.Alternatives {
					resp.Alternatives = append(resp.Alternatives, AlternativeResponse{
						Date: a.Date.Format("2006-01-02"),
						Time: schedule.FormatClock(a.TimeMin),
					})
				}
				writeJSON(w, http.StatusConflict, resp)
				return
			}
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(slot))
	}
}

func availabilityHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		doctorID, err := uuid.Parse(q.Get("doctor_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "doctor_id must be a valid UUID")
			return
		}

		date, err := parseDate(q.Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "date must be formatted as 2006-01-02")
			return
		}

		var timeMin *int
		if t := q.Get("time"); t != "" {
			m, err := schedule.ParseClock(t)
			if err != nil {
				writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "time must be formatted as 15:04")
				return
			}
			timeMin = &m
		}

		decision, err := svc.CheckAvailability(r.Context(), doctorID, q.Get("specialty"), date, timeMin)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAvailabilityResponse(decision))
	}
}

func appointmentTransitionHandler(apply func(*http.Request, uuid.UUID) (*appointment.BookedSlot, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "id must be a valid UUID")
			return
		}

		slot, err := apply(r, id)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(slot))
	}
}

func startAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return appointmentTransitionHandler(func(r *http.Request, id uuid.UUID) (*appointment.BookedSlot, error) {
		return svc.StartAppointment(r.Context(), id)
	})
}

func completeAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return appointmentTransitionHandler(func(r *http.Request, id uuid.UUID) (*appointment.BookedSlot, error) {
		return svc.CompleteAppointment(r.Context(), id)
	})
}

func cancelAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return appointmentTransitionHandler(func(r *http.Request, id uuid.UUID) (*appointment.BookedSlot, error) {
		var req CancelAppointmentRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		var note *string
		if req.Note != "" {
			note = &req.Note
		}
		return svc.CancelAppointment(r.Context(), id, note)
	})
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "id must be a valid UUID")
			return
		}

		slot, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(slot))
	}
}

func listAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		patientID, err := uuid.Parse(q.Get("patient_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "patient_id must be a valid UUID")
			return
		}

		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))

		slots, err := svc.ListAppointmentsByPatient(r.Context(), patientID, limit, offset)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		resp := make([]AppointmentResponse, 0, len(slots))
		for i := range slots {
			resp = append(resp, toAppointmentResponse(&slots[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
