package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrRuleNotFound = errors.New("schedule rule not found")

// Repository contains all DB interactions needed by the rule service and the
// availability engine.
type Repository interface {
	Create(ctx context.Context, r *Rule) (*Rule, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Rule, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*Rule, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Rule, error)

	// ActiveRulesFor feeds the availability engine: every active rule for
	// the doctor/specialty on that weekday, ordered by start time.
	ActiveRulesFor(ctx context.Context, doctorID uuid.UUID, specialty string, weekday time.Weekday) ([]Rule, error)
}
