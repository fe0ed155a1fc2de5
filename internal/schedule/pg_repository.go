package schedule

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

func scanRule(row pgx.Row) (*Rule, error) {
	var r Rule
	var weekday int

	err := row.Scan(
		&r.ID,
		&r.DoctorID,
		&r.Specialty,
		&weekday,
		&r.StartMin,
		&r.EndMin,
		&r.DailyCapacity,
		&r.Active,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}

	r.Weekday = time.Weekday(weekday)
	return &r, nil
}

const ruleColumns = `id, doctor_id, specialty, weekday, start_min, end_min, daily_capacity, active, created_at, updated_at`

func (r *PgRepository) Create(ctx context.Context, rule *Rule) (*Rule, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO schedule_rules (id, doctor_id, specialty, weekday, start_min, end_min, daily_capacity, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true, now(), now())
		RETURNING `+ruleColumns+`
	`, id, rule.DoctorID, rule.Specialty, int(rule.Weekday), rule.StartMin, rule.EndMin, rule.DailyCapacity)

	return scanRule(row)
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Rule, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+ruleColumns+`
		FROM schedule_rules
		WHERE id = $1
	`, id)
	return scanRule(row)
}

func (r *PgRepository) Deactivate(ctx context.Context, id uuid.UUID) (*Rule, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE schedule_rules
		SET active = false,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+ruleColumns+`
	`, id)
	return scanRule(row)
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Rule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+ruleColumns+`
		FROM schedule_rules
		WHERE doctor_id = $1
		ORDER BY weekday, start_min
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRules(rows)
}

func (r *PgRepository) ActiveRulesFor(ctx context.Context, doctorID uuid.UUID, specialty string, weekday time.Weekday) ([]Rule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+ruleColumns+`
		FROM schedule_rules
		WHERE doctor_id = $1
		  AND specialty = $2
		  AND weekday = $3
		  AND active
		ORDER BY start_min
	`, doctorID, specialty, int(weekday))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRules(rows)
}

func collectRules(rows pgx.Rows) ([]Rule, error) {
	var result []Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
