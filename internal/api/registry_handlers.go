package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carewise/patient-flow/internal/registry"
)

func getPatientHandler(dir registry.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "id must be a valid UUID")
			return
		}

		patient, err := dir.GetPatient(r.Context(), id)
		if err != nil {
			handleRegistryError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPatientResponse(patient))
	}
}

func getDoctorHandler(dir registry.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "id must be a valid UUID")
			return
		}

		doctor, err := dir.GetDoctor(r.Context(), id)
		if err != nil {
			handleRegistryError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toDoctorResponse(doctor))
	}
}

func handleRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "PATIENT_NOT_FOUND", err.Error())
	case errors.Is(err, registry.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "DOCTOR_NOT_FOUND", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}
