package redisclient

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBookingKey(t *testing.T) {
	doctorID := uuid.MustParse("7f9c24e5-2f3a-4b1d-9c6e-8a5d7b3f1e02")
	date := time.Date(2026, 9, 7, 15, 30, 0, 0, time.UTC)

	key := BookingKey(doctorID, date, "Cardiology")

	// The date collapses to the day so every time on the same day contends
	// for the same capacity pool.
	assert.Equal(t, "lock:booking:7f9c24e5-2f3a-4b1d-9c6e-8a5d7b3f1e02:2026-09-07:Cardiology", key)
}

func TestPatientAdmissionKey(t *testing.T) {
	patientID := uuid.MustParse("3d1f8a92-6c4b-4e7d-b5a0-9f2e61c8d403")

	key := PatientAdmissionKey(patientID)

	assert.Equal(t, "lock:patient-admission:3d1f8a92-6c4b-4e7d-b5a0-9f2e61c8d403", key)
}
