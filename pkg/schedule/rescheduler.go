package schedule

import (
	"time"

	"github.com/studyflow/studyflow/pkg/plan"
)

// Strategy is the automatic rescheduling approach.
type Strategy string

const (
	StrategyWeekendSpillover Strategy = "WEEKEND_SPILLOVER"
	StrategyStackNextDay     Strategy = "STACK_NEXT_DAY"
	StrategyExtendDeadline   Strategy = "EXTEND_DEADLINE"
	StrategyReduceLoad       Strategy = "REDUCE_LOAD"
)

// Decision is the rescheduler's pick with its reasoning.
type Decision struct {
	Strategy   Strategy `json:"strategy"`
	Rationale  string   `json:"rationale"`
	Confidence float64  `json:"confidence"` // [0,1]
}

// ReschedulerConfig tunes the decision table.
type ReschedulerConfig struct {
	// DailyCapacityMinutes is the assumed study capacity of one day.
	DailyCapacityMinutes int
	// TightDeadlineDays marks a plan deadline as too close to extend.
	TightDeadlineDays int
}

// DefaultReschedulerConfig returns the standard tuning.
func DefaultReschedulerConfig() ReschedulerConfig {
	return ReschedulerConfig{
		DailyCapacityMinutes: 120,
		TightDeadlineDays:    2,
	}
}

// AutoRescheduler picks one recovery strategy from a small decision table
// over crisis state, backlog size, next-day load, weekend proximity and
// deadline pressure.
type AutoRescheduler struct {
	config ReschedulerConfig
	now    func() time.Time
}

// NewAutoRescheduler creates a rescheduler with the given tuning.
func NewAutoRescheduler(cfg ReschedulerConfig) *AutoRescheduler {
	if cfg.DailyCapacityMinutes <= 0 {
		cfg.DailyCapacityMinutes = 120
	}
	return &AutoRescheduler{config: cfg, now: time.Now}
}

// SetClock overrides the time source. Test hook.
func (r *AutoRescheduler) SetClock(now func() time.Time) { r.now = now }

// Decide evaluates the decision table top to bottom and returns the first
// matching strategy. nextDayMinutes is the load already planned for
// tomorrow.
func (r *AutoRescheduler) Decide(analysis *DelayAnalysis, plans []plan.Plan, nextDayMinutes int) Decision {
	now := r.now()
	backlog := backlogMinutes(analysis)
	daysToDeadline := nearestDeadlineDays(plans, now)

	switch {
	case analysis.CrisisLevel == CrisisCrisis:
		return Decision{
			Strategy:   StrategyReduceLoad,
			Rationale:  "Several days of missed work: shrinking the plan beats piling it up.",
			Confidence: 0.9,
		}

	case nextDayMinutes+backlog <= r.config.DailyCapacityMinutes:
		return Decision{
			Strategy:   StrategyStackNextDay,
			Rationale:  "Tomorrow has room for today's leftovers without overloading.",
			Confidence: 0.8,
		}

	case daysUntilWeekend(now) <= 2 && backlog >= 60:
		return Decision{
			Strategy:   StrategyWeekendSpillover,
			Rationale:  "The weekend is close and has the free time this backlog needs.",
			Confidence: 0.75,
		}

	case daysToDeadline > r.config.TightDeadlineDays:
		return Decision{
			Strategy:   StrategyExtendDeadline,
			Rationale:  "The plan deadline has slack; spreading sessions out keeps days light.",
			Confidence: 0.7,
		}

	default:
		return Decision{
			Strategy:   StrategyReduceLoad,
			Rationale:  "No room tomorrow and a tight deadline: trimming targets is the only safe move.",
			Confidence: 0.6,
		}
	}
}

// backlogMinutes sums the estimated minutes of all overdue quests.
func backlogMinutes(analysis *DelayAnalysis) int {
	total := 0
	for _, eq := range analysis.ExpiredQuests {
		total += eq.Quest.EstimatedMinutes
	}
	return total
}

// nearestDeadlineDays returns the days until the closest plan deadline,
// or a large value when no plan has one.
func nearestDeadlineDays(plans []plan.Plan, now time.Time) int {
	nearest := 365
	for _, p := range plans {
		if p.TargetEndDate.IsZero() {
			continue
		}
		d := daysBetween(now, p.TargetEndDate)
		if p.TargetEndDate.Before(now) {
			d = 0
		}
		if d < nearest {
			nearest = d
		}
	}
	return nearest
}

// daysUntilWeekend counts days until the next Saturday.
func daysUntilWeekend(now time.Time) int {
	wd := int(now.Weekday())
	if wd == int(time.Saturday) || wd == int(time.Sunday) {
		return 0
	}
	return int(time.Saturday) - wd
}
