package appointment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/carewise/patient-flow/internal/schedule"
)

// Rejection reason codes carried on a Decision. They are part of the caller
// contract; transports must not collapse them into status codes.
const (
	ReasonDoctorNotWorking = "DOCTOR_NOT_WORKING"
	ReasonOutsideHours     = "OUTSIDE_WORKING_HOURS"
	ReasonCapacityReached  = "CAPACITY_REACHED"
)

// RuleSource is the slice of the schedule store the engine reads.
type RuleSource interface {
	ActiveRulesFor(ctx context.Context, doctorID uuid.UUID, specialty string, weekday time.Weekday) ([]schedule.Rule, error)
}

type Alternative struct {
	Date    time.Time
	TimeMin int
}

// Decision is the availability engine's answer. FreeTimes is populated only
// for queries without a specific time; Alternatives only on capacity
// rejections.
type Decision struct {
	Available    bool
	ReasonCode   string
	Reason       string
	FreeTimes    []int
	Alternatives []Alternative
}

// Engine turns a doctor's recurring weekly rules plus the booking ledger
// into a yes/no decision and, on a capacity rejection, a ranked list of
// alternative slots.
type Engine struct {
	rules    RuleSource
	ledger   Repository
	stepMin  int
	scanDays int
	maxAlts  int
}

func NewEngine(rules RuleSource, ledger Repository, step time.Duration, scanDays, maxAlts int) *Engine {
	return &Engine{
		rules:    rules,
		ledger:   ledger,
		stepMin:  int(step.Minutes()),
		scanDays: scanDays,
		maxAlts:  maxAlts,
	}
}

// Check answers "is this bookable?". timeMin nil means "any time that day";
// the decision then carries the full list of free times.
func (e *Engine) Check(ctx context.Context, doctorID uuid.UUID, specialty string, date time.Time, timeMin *int) (Decision, error) {
	rules, err := e.rules.ActiveRulesFor(ctx, doctorID, specialty, date.Weekday())
	if err != nil {
		return Decision{}, fmt.Errorf("load schedule rules: %w", err)
	}
	if len(rules) == 0 {
		return Decision{
			ReasonCode: ReasonDoctorNotWorking,
			Reason:     "doctor does not work that day",
		}, nil
	}

	if timeMin != nil && !withinAnyWindow(rules, *timeMin) {
		return Decision{
			ReasonCode: ReasonOutsideHours,
			Reason:     "requested time is outside working hours",
		}, nil
	}

	count, err := e.ledger.CountOccupied(ctx, doctorID, date, specialty)
	if err != nil {
		return Decision{}, fmt.Errorf("count booked slots: %w", err)
	}
	taken, err := e.ledger.OccupiedTimes(ctx, doctorID, date, specialty)
	if err != nil {
		return Decision{}, fmt.Errorf("load booked times: %w", err)
	}

	capacity := dailyCapacity(rules)

	if timeMin != nil {
		if count < capacity && !contains(taken, *timeMin) {
			return Decision{Available: true}, nil
		}
	} else {
		free := e.freeTimes(rules, taken, count)
		if len(free) > 0 {
			return Decision{Available: true, FreeTimes: free}, nil
		}
	}

	alts, err := e.alternatives(ctx, doctorID, specialty, date)
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		ReasonCode:   ReasonCapacityReached,
		Reason:       "daily capacity reached",
		Alternatives: alts,
	}, nil
}

// freeTimes enumerates candidate times across every matching rule, stepping
// from each window's start to its end inclusive. A candidate is free when it
// is not already booked and the day's count is below capacity. The empty
// list means fully booked even though the doctor nominally works.
func (e *Engine) freeTimes(rules []schedule.Rule, taken []int, count int) []int {
	if count >= dailyCapacity(rules) {
		return nil
	}

	seen := make(map[int]struct{})
	var free []int
	for _, r := range rules {
		for t := r.StartMin; t <= r.EndMin; t += e.stepMin {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			if !contains(taken, t) {
				free = append(free, t)
			}
		}
	}

	sort.Ints(free)
	return free
}

// alternatives walks forward day by day from the rejected date, collecting
// the first free slot of each bookable day until enough alternatives are
// found or the scan window is exhausted.
func (e *Engine) alternatives(ctx context.Context, doctorID uuid.UUID, specialty string, from time.Time) ([]Alternative, error) {
	var alts []Alternative

	for d := 1; d <= e.scanDays && len(alts) < e.maxAlts; d++ {
		day := from.AddDate(0, 0, d)

		rules, err := e.rules.ActiveRulesFor(ctx, doctorID, specialty, day.Weekday())
		if err != nil {
			return nil, fmt.Errorf("load schedule rules: %w", err)
		}
		if len(rules) == 0 {
			continue
		}

		count, err := e.ledger.CountOccupied(ctx, doctorID, day, specialty)
		if err != nil {
			return nil, fmt.Errorf("count booked slots: %w", err)
		}
		taken, err := e.ledger.OccupiedTimes(ctx, doctorID, day, specialty)
		if err != nil {
			return nil, fmt.Errorf("load booked times: %w", err)
		}

		free := e.freeTimes(rules, taken, count)
		if len(free) == 0 {
			continue
		}

		alts = append(alts, Alternative{Date: day, TimeMin: free[0]})
	}

	return alts, nil
}

func dailyCapacity(rules []schedule.Rule) int {
	total := 0
	for _, r := range rules {
		total += r.DailyCapacity
	}
	return total
}

func withinAnyWindow(rules []schedule.Rule, t int) bool {
	for _, r := range rules {
		if t >= r.StartMin && t <= r.EndMin {
			return true
		}
	}
	return false
}

func contains(times []int, t int) bool {
	for _, v := range times {
		if v == t {
			return true
		}
	}
	return false
}
