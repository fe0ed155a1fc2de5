package appointment

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

const slotColumns = `id, doctor_id, patient_id, specialty, visit_date, time_min, status, reason, cancel_note, created_at, updated_at`

func scanSlot(row pgx.Row) (*BookedSlot, error) {
	var s BookedSlot
	var doctorID *uuid.UUID
	var cancelNote *string

	err := row.Scan(
		&s.ID,
		&doctorID,
		&s.PatientID,
		&s.Specialty,
		&s.Date,
		&s.TimeMin,
		&s.Status,
		&s.Reason,
		&cancelNote,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	s.DoctorID = doctorID
	s.CancelNote = cancelNote
	return &s, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*BookedSlot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+slotColumns+`
		FROM booked_slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]BookedSlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM booked_slots
		WHERE patient_id = $1
		ORDER BY visit_date DESC, time_min DESC
		LIMIT $2 OFFSET $3
	`, patientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSlots(rows)
}

func (r *PgRepository) CountOccupied(ctx context.Context, doctorID uuid.UUID, date time.Time, specialty string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM booked_slots
		WHERE doctor_id = $1
		  AND visit_date = $2
		  AND specialty = $3
		  AND status <> 'cancelled'
	`, doctorID, date, specialty).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PgRepository) OccupiedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time, specialty string) ([]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT time_min
		FROM booked_slots
		WHERE doctor_id = $1
		  AND visit_date = $2
		  AND specialty = $3
		  AND status <> 'cancelled'
		ORDER BY time_min
	`, doctorID, date, specialty)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []int
	for rows.Next() {
		var t int
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return times, nil
}

func (r *PgRepository) HasScheduledInSpecialty(ctx context.Context, patientID uuid.UUID, specialty string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM booked_slots
			WHERE patient_id = $1
			  AND specialty = $2
			  AND status = 'scheduled'
		)
	`, patientID, specialty).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PgRepository) InsertScheduled(ctx context.Context, slot *BookedSlot) (*BookedSlot, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO booked_slots (id, doctor_id, patient_id, specialty, visit_date, time_min, status, reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'scheduled', $7, now(), now())
		RETURNING `+slotColumns+`
	`, id, slot.DoctorID, slot.PatientID, slot.Specialty, slot.Date, slot.TimeMin, slot.Reason)

	return scanSlot(row)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, note *string) (*BookedSlot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE booked_slots
		SET status = $2,
		    cancel_note = COALESCE($4, cancel_note),
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+slotColumns+`
	`, id, to, from, note)

	return scanSlot(row)
}

func (r *PgRepository) FindOverdueScheduled(ctx context.Context, cutoff time.Time) ([]BookedSlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM booked_slots
		WHERE status = 'scheduled'
		  AND visit_date <= $1
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSlots(rows)
}

func collectSlots(rows pgx.Rows) ([]BookedSlot, error) {
	var result []BookedSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
