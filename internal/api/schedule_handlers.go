package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carewise/patient-flow/internal/schedule"
)

func createRuleHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRuleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "doctor_id must be a valid UUID")
			return
		}

		startMin, err := schedule.ParseClock(req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "start_time must be formatted as 15:04")
			return
		}
		endMin, err := schedule.ParseClock(req.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "end_time must be formatted as 15:04")
			return
		}

		rule, err := svc.CreateRule(r.Context(), schedule.Rule{
			DoctorID:      doctorID,
			Specialty:     req.Specialty,
			Weekday:       time.Weekday(req.Weekday),
			StartMin:      startMin,
			EndMin:        endMin,
			DailyCapacity: req.DailyCapacity,
		})
		if err != nil {
			handleRuleError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toRuleResponse(rule))
	}
}

func deactivateRuleHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "id must be a valid UUID")
			return
		}

		rule, err := svc.DeactivateRule(r.Context(), id)
		if err != nil {
			handleRuleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toRuleResponse(rule))
	}
}

func listRulesHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(r.URL.Query().Get("doctor_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "doctor_id must be a valid UUID")
			return
		}

		rules, err := svc.ListRulesByDoctor(r.Context(), doctorID)
		if err != nil {
			handleRuleError(w, err)
			return
		}

		resp := make([]RuleResponse, 0, len(rules))
		for i := range rules {
			resp = append(resp, toRuleResponse(&rules[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
