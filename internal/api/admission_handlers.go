package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carewise/patient-flow/internal/admission"
)

func createAdmissionHandler(svc *admission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAdmissionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "patient_id must be a valid UUID")
			return
		}

		created, err := svc.CreateAdmission(r.Context(), admission.CreateRequest{
			PatientID: patientID,
			Type:      admission.Type(req.Type),
			Service:   req.Service,
			Room:      req.Room,
			Bed:       req.Bed,
			Staged:    req.Staged,
		})
		if err != nil {
			handleAdmissionError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAdmissionResponse(created))
	}
}

func activateAdmissionHandler(svc *admission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "id must be a valid UUID")
			return
		}

		activated, err := svc.ActivateAdmission(r.Context(), id)
		if err != nil {
			handleAdmissionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAdmissionResponse(activated))
	}
}

func dischargeAdmissionHandler(svc *admission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "id must be a valid UUID")
			return
		}

		var req DischargeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "could not parse JSON")
			return
		}

		date, err := parseDate(req.DischargeDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "discharge_date must be formatted as 2006-01-02")
			return
		}

		discharged, err := svc.DischargeAdmission(r.Context(), id, date, req.Kind)
		if err != nil {
			handleAdmissionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAdmissionResponse(discharged))
	}
}

func recordAssessmentHandler(svc *admission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "id must be a valid UUID")
			return
		}

		var req AssessmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "could not parse JSON")
			return
		}

		assessment, err := svc.RecordAssessment(r.Context(), id, req.RequiresHospitalization, req.Notes)
		if err != nil {
			handleAdmissionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"admission_id":             assessment.AdmissionID,
			"requires_hospitalization": assessment.RequiresHospitalization,
			"notes":                    assessment.Notes,
		})
	}
}

func listPendingHospitalizationHandler(svc *admission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cases, err := svc.ListPendingHospitalization(r.Context())
		if err != nil {
			handleAdmissionError(w, err)
			return
		}

		resp := make([]PendingCaseResponse, 0, len(cases))
		for i := range cases {
			resp = append(resp, PendingCaseResponse{
				Admission:               toAdmissionResponse(&cases[i].Admission),
				RequiresHospitalization: cases[i].Assessment.RequiresHospitalization,
				Notes:                   cases[i].Assessment.Notes,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func promoteAdmissionHandler(svc *admission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "id must be a valid UUID")
			return
		}

		var req PromoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "could not parse JSON")
			return
		}

		created, err := svc.PromoteToHospitalization(r.Context(), id, admission.PromoteRequest{
			Service: req.Service,
			Room:    req.Room,
			Bed:     req.Bed,
		})
		if err != nil {
			handleAdmissionError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAdmissionResponse(created))
	}
}

func getAdmissionHandler(svc *admission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "id must be a valid UUID")
			return
		}

		a, err := svc.GetAdmission(r.Context(), id)
		if err != nil {
			handleAdmissionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAdmissionResponse(a))
	}
}

func listAdmissionsHandler(svc *admission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, err := uuid.Parse(r.URL.Query().Get("patient_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "patient_id must be a valid UUID")
			return
		}

		admissions, err := svc.ListAdmissionsByPatient(r.Context(), patientID)
		if err != nil {
			handleAdmissionError(w, err)
			return
		}

		resp := make([]AdmissionResponse, 0, len(admissions))
		for i := range admissions {
			resp = append(resp, toAdmissionResponse(&admissions[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
