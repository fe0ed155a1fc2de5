package audit

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type PgSink struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewPgSink(pool *pgxpool.Pool, log zerolog.Logger) *PgSink {
	return &PgSink{pool: pool, log: log}
}

// Record inserts the event and swallows any failure with a log line.
func (s *PgSink) Record(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		s.log.Warn().Err(err).Str("event", ev.Type).Msg("marshal audit payload")
		payload = nil
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO audit_events (event_type, patient_id, subject_id, payload, created_at)
		VALUES ($1, $2, $3, $4, now())
	`, ev.Type, ev.PatientID, ev.SubjectID, payload)
	if err != nil {
		s.log.Warn().Err(err).Str("event", ev.Type).Msg("insert audit event")
	}
}
