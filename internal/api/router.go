package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/carewise/patient-flow/internal/admission"
	"github.com/carewise/patient-flow/internal/appointment"
	"github.com/carewise/patient-flow/internal/registry"
	"github.com/carewise/patient-flow/internal/schedule"
)

type RouterConfig struct {
	Appointments *appointment.Service
	Admissions   *admission.Service
	Schedules    *schedule.Service
	Registry     registry.Directory
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Log          zerolog.Logger
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Post("/schedule-rules", createRuleHandler(cfg.Schedules))
	r.Get("/schedule-rules", listRulesHandler(cfg.Schedules))
	r.Post("/schedule-rules/{id}/deactivate", deactivateRuleHandler(cfg.Schedules))

	r.Get("/availability", availabilityHandler(cfg.Appointments))

	r.Post("/appointments", createAppointmentHandler(cfg.Appointments))
	r.Get("/appointments", listAppointmentsHandler(cfg.Appointments))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Appointments))
	r.Post("/appointments/{id}/start", startAppointmentHandler(cfg.Appointments))
	r.Post("/appointments/{id}/complete", completeAppointmentHandler(cfg.Appointments))
	r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Appointments))

	r.Post("/admissions", createAdmissionHandler(cfg.Admissions))
	r.Get("/admissions", listAdmissionsHandler(cfg.Admissions))
	r.Get("/admissions/{id}", getAdmissionHandler(cfg.Admissions))
	r.Post("/admissions/{id}/activate", activateAdmissionHandler(cfg.Admissions))
	r.Post("/admissions/{id}/discharge", dischargeAdmissionHandler(cfg.Admissions))
	r.Put("/admissions/{id}/assessment", recordAssessmentHandler(cfg.Admissions))
	r.Post("/admissions/{id}/promote", promoteAdmissionHandler(cfg.Admissions))

	r.Get("/hospitalizations/pending", listPendingHospitalizationHandler(cfg.Admissions))

	r.Get("/patients/{id}", getPatientHandler(cfg.Registry))
	r.Get("/doctors/{id}", getDoctorHandler(cfg.Registry))

	return r
}
