package admission

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const admissionColumns = `id, patient_id, type, status, service, room, bed, admitted_at, discharged_at, discharge_kind, length_of_stay_days, created_at, updated_at`

func scanAdmission(row pgx.Row) (*Admission, error) {
	var a Admission

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.Type,
		&a.Status,
		&a.Service,
		&a.Room,
		&a.Bed,
		&a.AdmittedAt,
		&a.DischargedAt,
		&a.DischargeKind,
		&a.LengthOfStayDays,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdmissionNotFound
		}
		return nil, err
	}

	return &a, nil
}

func (r *PgRepository) Create(ctx context.Context, a *Admission) (*Admission, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO admissions (id, patient_id, type, status, service, room, bed, admitted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING `+admissionColumns+`
	`, id, a.PatientID, a.Type, a.Status, a.Service, a.Room, a.Bed, a.AdmittedAt)

	return scanAdmission(row)
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Admission, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+admissionColumns+`
		FROM admissions
		WHERE id = $1
	`, id)
	return scanAdmission(row)
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Admission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+admissionColumns+`
		FROM admissions
		WHERE patient_id = $1
		ORDER BY admitted_at DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Admission
	for rows.Next() {
		a, err := scanAdmission(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Admission, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE admissions
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+admissionColumns+`
	`, id, to, from)

	return scanAdmission(row)
}

func (r *PgRepository) Discharge(ctx context.Context, id uuid.UUID, at time.Time, kind string, lengthOfStayDays int) (*Admission, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE admissions
		SET status = 'discharged',
		    discharged_at = $2,
		    discharge_kind = $3,
		    length_of_stay_days = $4,
		    updated_at = now()
		WHERE id = $1
		  AND status = 'active'
		RETURNING `+admissionColumns+`
	`, id, at, kind, lengthOfStayDays)

	return scanAdmission(row)
}

func (r *PgRepository) HasActiveOfTypes(ctx context.Context, patientID uuid.UUID, types []Type) (bool, error) {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}

	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM admissions
			WHERE patient_id = $1
			  AND status = 'active'
			  AND type = ANY($2)
		)
	`, patientID, names).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PgRepository) UpsertAssessment(ctx context.Context, a *Assessment) (*Assessment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO emergency_assessments (admission_id, requires_hospitalization, notes, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (admission_id) DO UPDATE
		SET requires_hospitalization = EXCLUDED.requires_hospitalization,
		    notes = EXCLUDED.notes,
		    updated_at = now()
		RETURNING admission_id, requires_hospitalization, notes, updated_at
	`, a.AdmissionID, a.RequiresHospitalization, a.Notes)

	return scanAssessment(row)
}

func (r *PgRepository) GetAssessment(ctx context.Context, admissionID uuid.UUID) (*Assessment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT admission_id, requires_hospitalization, notes, updated_at
		FROM emergency_assessments
		WHERE admission_id = $1
	`, admissionID)
	return scanAssessment(row)
}

func scanAssessment(row pgx.Row) (*Assessment, error) {
	var a Assessment

	err := row.Scan(
		&a.AdmissionID,
		&a.RequiresHospitalization,
		&a.Notes,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssessmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

// ListPendingHospitalization joins active emergencies with assessments that
// call for a bed, skipping patients who already hold an active inpatient
// admission. Oldest emergencies surface first.
func (r *PgRepository) ListPendingHospitalization(ctx context.Context) ([]PendingCase, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.patient_id, a.type, a.status, a.service, a.room, a.bed,
		       a.admitted_at, a.discharged_at, a.discharge_kind, a.length_of_stay_days,
		       a.created_at, a.updated_at,
		       e.requires_hospitalization, e.notes, e.updated_at
		FROM admissions a
		JOIN emergency_assessments e ON e.admission_id = a.id
		WHERE a.type = 'emergency'
		  AND a.status = 'active'
		  AND e.requires_hospitalization
		  AND NOT EXISTS (
			SELECT 1
			FROM admissions b
			WHERE b.patient_id = a.patient_id
			  AND b.status = 'active'
			  AND b.type IN ('hospitalization', 'icu', 'surgery')
		  )
		ORDER BY a.admitted_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PendingCase
	for rows.Next() {
		var c PendingCase
		err := rows.Scan(
			&c.Admission.ID,
			&c.Admission.PatientID,
			&c.Admission.Type,
			&c.Admission.Status,
			&c.Admission.Service,
			&c.Admission.Room,
			&c.Admission.Bed,
			&c.Admission.AdmittedAt,
			&c.Admission.DischargedAt,
			&c.Admission.DischargeKind,
			&c.Admission.LengthOfStayDays,
			&c.Admission.CreatedAt,
			&c.Admission.UpdatedAt,
			&c.Assessment.RequiresHospitalization,
			&c.Assessment.Notes,
			&c.Assessment.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		c.Assessment.AdmissionID = c.Admission.ID
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
