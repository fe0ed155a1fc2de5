package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Rule is one recurring weekly availability window for a doctor in a
// specialty. A doctor may carry several rules for the same specialty and
// weekday (split morning/afternoon shifts); each is queried independently.
// Rules are never deleted, only deactivated, so historical bookings keep a
// valid reference point.
type Rule struct {
	ID            uuid.UUID
	DoctorID      uuid.UUID
	Specialty     string
	Weekday       time.Weekday
	StartMin      int // minutes since midnight, inclusive
	EndMin        int // minutes since midnight, inclusive for slot starts
	DailyCapacity int
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FormatClock renders minutes-since-midnight as "15:04".
func FormatClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ParseClock parses "15:04" into minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
