package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/carewise/patient-flow/internal/admission"
	"github.com/carewise/patient-flow/internal/appointment"
	"github.com/carewise/patient-flow/internal/registry"
	"github.com/carewise/patient-flow/internal/schedule"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// handleAppointmentError maps lifecycle sentinels to their reason codes. The
// code, not the HTTP status, is the caller contract.
func handleAppointmentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointment.ErrReasonRequired),
		errors.Is(err, appointment.ErrSpecialtyRequired):
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
	case errors.Is(err, registry.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "PATIENT_NOT_FOUND", err.Error())
	case errors.Is(err, registry.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "DOCTOR_NOT_FOUND", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "APPOINTMENT_NOT_FOUND", err.Error())
	case errors.Is(err, appointment.ErrDuplicateSpecialty):
		writeError(w, http.StatusConflict, "DUPLICATE_SPECIALTY", err.Error())
	case errors.Is(err, appointment.ErrBookingInProgress):
		writeError(w, http.StatusConflict, "BOOKING_IN_PROGRESS", "slot group is currently being booked, please retry shortly")
	case errors.Is(err, appointment.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, appointment.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

func handleAdmissionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, admission.ErrInvalidType):
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
	case errors.Is(err, registry.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "PATIENT_NOT_FOUND", err.Error())
	case errors.Is(err, admission.ErrAdmissionNotFound):
		writeError(w, http.StatusNotFound, "ADMISSION_NOT_FOUND", err.Error())
	case errors.Is(err, admission.ErrAlreadyActive):
		writeError(w, http.StatusConflict, "ALREADY_ACTIVE", err.Error())
	case errors.Is(err, admission.ErrAlreadyDischarged):
		writeError(w, http.StatusConflict, "ALREADY_DISCHARGED", err.Error())
	case errors.Is(err, admission.ErrNotActive):
		writeError(w, http.StatusConflict, "NOT_ACTIVE", err.Error())
	case errors.Is(err, admission.ErrAlreadyHospitalized):
		writeError(w, http.StatusConflict, "ALREADY_HOSPITALIZED", err.Error())
	case errors.Is(err, admission.ErrDischargeBeforeAdmission):
		writeError(w, http.StatusUnprocessableEntity, "DISCHARGE_BEFORE_ADMISSION", err.Error())
	case errors.Is(err, admission.ErrNotEmergency):
		writeError(w, http.StatusConflict, "NOT_ELIGIBLE_FOR_HOSPITALIZATION", err.Error())
	case errors.Is(err, admission.ErrEmergencyNotActive):
		writeError(w, http.StatusConflict, "NOT_ELIGIBLE_FOR_HOSPITALIZATION", err.Error())
	case errors.Is(err, admission.ErrNotEligible):
		writeError(w, http.StatusConflict, "NOT_ELIGIBLE_FOR_HOSPITALIZATION", err.Error())
	case errors.Is(err, admission.ErrAdmissionBusy):
		writeError(w, http.StatusConflict, "ADMISSION_IN_PROGRESS", "please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

func handleRuleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrRuleNotFound):
		writeError(w, http.StatusNotFound, "RULE_NOT_FOUND", err.Error())
	case errors.Is(err, schedule.ErrSpecialtyRequired),
		errors.Is(err, schedule.ErrInvalidWeekday),
		errors.Is(err, schedule.ErrInvalidWindow),
		errors.Is(err, schedule.ErrInvalidCapacity):
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}
