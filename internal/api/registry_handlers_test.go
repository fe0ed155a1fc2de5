package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carewise/patient-flow/internal/registry"
)

type stubDirectory struct {
	patients map[uuid.UUID]*registry.Patient
	doctors  map[uuid.UUID]*registry.Doctor
}

func (d *stubDirectory) PatientExists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := d.patients[id]
	return ok, nil
}

func (d *stubDirectory) GetPatient(_ context.Context, id uuid.UUID) (*registry.Patient, error) {
	p, ok := d.patients[id]
	if !ok {
		return nil, registry.ErrPatientNotFound
	}
	return p, nil
}

func (d *stubDirectory) GetDoctor(_ context.Context, id uuid.UUID) (*registry.Doctor, error) {
	doc, ok := d.doctors[id]
	if !ok {
		return nil, registry.ErrDoctorNotFound
	}
	return doc, nil
}

func (d *stubDirectory) DoctorSpecialty(ctx context.Context, id uuid.UUID) (string, error) {
	doc, err := d.GetDoctor(ctx, id)
	if err != nil {
		return "", err
	}
	return doc.Specialty, nil
}

func registryRouter(dir registry.Directory) http.Handler {
	r := chi.NewRouter()
	r.Get("/patients/{id}", getPatientHandler(dir))
	r.Get("/doctors/{id}", getDoctorHandler(dir))
	return r
}

func TestGetPatient(t *testing.T) {
	patientID := uuid.New()
	dir := &stubDirectory{
		patients: map[uuid.UUID]*registry.Patient{
			patientID: {ID: patientID, Name: "Ada Moreno"},
		},
	}

	w := httptest.NewRecorder()
	registryRouter(dir).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/patients/"+patientID.String(), nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp PatientResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, patientID, resp.ID)
	assert.Equal(t, "Ada Moreno", resp.Name)
}

func TestGetPatientNotFound(t *testing.T) {
	dir := &stubDirectory{patients: map[uuid.UUID]*registry.Patient{}}

	w := httptest.NewRecorder()
	registryRouter(dir).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/patients/"+uuid.NewString(), nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "PATIENT_NOT_FOUND", resp.Error)
}

func TestGetDoctor(t *testing.T) {
	doctorID := uuid.New()
	dir := &stubDirectory{
		doctors: map[uuid.UUID]*registry.Doctor{
			doctorID: {ID: doctorID, Name: "Elif Demir", Specialty: "Cardiology"},
		},
	}

	w := httptest.NewRecorder()
	registryRouter(dir).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/doctors/"+doctorID.String(), nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp DoctorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Cardiology", resp.Specialty)
}

func TestGetDoctorBadID(t *testing.T) {
	dir := &stubDirectory{}

	w := httptest.NewRecorder()
	registryRouter(dir).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/doctors/not-a-uuid", nil))

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "VALIDATION_FAILED", resp.Error)
}
