package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/studyflow/studyflow/pkg/plan"
	"github.com/studyflow/studyflow/pkg/quest"
)

// OptionType names one user-choosable reschedule shape.
type OptionType string

const (
	OptionCompress OptionType = "COMPRESS"
	OptionExtend   OptionType = "EXTEND"
	OptionSkip     OptionType = "SKIP"
	OptionReduce   OptionType = "REDUCE"
)

// Feasibility rates how realistic an option is for this student.
type Feasibility string

const (
	FeasibilityHigh   Feasibility = "HIGH"
	FeasibilityMedium Feasibility = "MEDIUM"
	FeasibilityLow    Feasibility = "LOW"
)

// RescheduleRequest is an explicit absence announcement, e.g. a trip.
type RescheduleRequest struct {
	StudentID   string    `json:"studentId"`
	AbsenceDays int       `json:"absenceDays"`
	StartDate   time.Time `json:"startDate"`
	Reason      string    `json:"reason,omitempty"`
}

// RescheduleOption is one ranked choice presented to the student.
type RescheduleOption struct {
	Type        OptionType  `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Feasibility Feasibility `json:"feasibility"`
	Recommended bool        `json:"recommended"`
	// ExtraMinutesPerDay is the added daily load the option implies.
	ExtraMinutesPerDay int `json:"extraMinutesPerDay"`
	// DeadlineShiftDays is how far plan deadlines would move.
	DeadlineShiftDays int `json:"deadlineShiftDays"`
}

// ModifierConfig tunes option feasibility ratings.
type ModifierConfig struct {
	// DailyCapacityMinutes is the assumed study capacity of one day.
	DailyCapacityMinutes int
	// ComfortableExtraMinutes is the added daily load still rated HIGH.
	ComfortableExtraMinutes int
}

// DefaultModifierConfig returns standard tuning.
func DefaultModifierConfig() ModifierConfig {
	return ModifierConfig{
		DailyCapacityMinutes:    120,
		ComfortableExtraMinutes: 30,
	}
}

// Modifier produces ranked reschedule options for announced absences.
// Unlike the automatic rescheduler, it never picks for the student.
type Modifier struct {
	config ModifierConfig
	now    func() time.Time
}

// NewModifier creates a reschedule option generator.
func NewModifier(cfg ModifierConfig) *Modifier {
	if cfg.DailyCapacityMinutes <= 0 {
		cfg.DailyCapacityMinutes = 120
	}
	if cfg.ComfortableExtraMinutes <= 0 {
		cfg.ComfortableExtraMinutes = 30
	}
	return &Modifier{config: cfg, now: time.Now}
}

// SetClock overrides the time source. Test hook.
func (m *Modifier) SetClock(now func() time.Time) { m.now = now }

// GenerateRescheduleOptions builds the compress/extend/skip/reduce
// options for an absence, rates each one's feasibility against plan
// slack and daily capacity, flags the best as recommended, and returns
// them best first.
func (m *Modifier) GenerateRescheduleOptions(req RescheduleRequest, plans []plan.Plan, today *quest.TodayQuests) []RescheduleOption {
	now := m.now()
	absent := req.AbsenceDays
	if absent < 1 {
		absent = 1
	}

	pendingMinutes := pendingPlanMinutes(plans) + openQuestMinutes(today)
	daysToDeadline := nearestDeadlineDays(plans, now)
	remainingDays := daysToDeadline - absent
	if remainingDays < 1 {
		remainingDays = 1
	}
	extraPerDay := missedMinutes(plans, absent, now) / remainingDays

	options := []RescheduleOption{
		{
			Type:  OptionCompress,
			Title: "Catch up after you're back",
			Description: fmt.Sprintf(
				"Keep every session and deadline; add about %d minutes to each remaining day.", extraPerDay),
			Feasibility:        m.compressFeasibility(extraPerDay),
			ExtraMinutesPerDay: extraPerDay,
		},
		{
			Type:  OptionExtend,
			Title: "Push the deadline out",
			Description: fmt.Sprintf(
				"Shift plan deadlines by %d days and keep the daily load unchanged.", absent),
			Feasibility:       m.extendFeasibility(daysToDeadline, absent),
			DeadlineShiftDays: absent,
		},
		{
			Type:  OptionSkip,
			Title: "Drop the missed sessions",
			Description: "Skip the sessions falling in the absence and continue from where the plan " +
				"would have been. Fastest, but leaves gaps.",
			Feasibility: skipFeasibility(plans),
		},
		{
			Type:  OptionReduce,
			Title: "Lighter plan going forward",
			Description: fmt.Sprintf(
				"Trim session targets so the remaining %d minutes fit without longer days.", pendingMinutes),
			Feasibility: FeasibilityMedium,
		},
	}

	sort.SliceStable(options, func(i, j int) bool {
		return feasibilityRank(options[i].Feasibility) > feasibilityRank(options[j].Feasibility)
	})
	if len(options) > 0 {
		options[0].Recommended = true
	}
	return options
}

func (m *Modifier) compressFeasibility(extraPerDay int) Feasibility {
	switch {
	case extraPerDay <= m.config.ComfortableExtraMinutes:
		return FeasibilityHigh
	case extraPerDay <= m.config.DailyCapacityMinutes/2:
		return FeasibilityMedium
	default:
		return FeasibilityLow
	}
}

func (m *Modifier) extendFeasibility(daysToDeadline, absent int) Feasibility {
	switch {
	case daysToDeadline >= 30:
		return FeasibilityHigh
	case daysToDeadline > absent*2:
		return FeasibilityMedium
	default:
		return FeasibilityLow
	}
}

func feasibilityRank(f Feasibility) int {
	switch f {
	case FeasibilityHigh:
		return 3
	case FeasibilityMedium:
		return 2
	default:
		return 1
	}
}

// skipFeasibility rates skipping by how far along the plans are: early
// plans can absorb gaps, nearly finished ones cannot.
func skipFeasibility(plans []plan.Plan) Feasibility {
	for _, p := range plans {
		if p.CompletionFraction() > 0.7 {
			return FeasibilityLow
		}
	}
	return FeasibilityMedium
}

// openQuestMinutes sums the minutes still open in today's quests.
func openQuestMinutes(today *quest.TodayQuests) int {
	if today == nil {
		return 0
	}
	total := 0
	for _, q := range today.All() {
		if q.Status == quest.StatusAvailable || q.Status == quest.StatusInProgress {
			total += q.EstimatedMinutes
		}
	}
	return total
}

// pendingPlanMinutes sums the estimated minutes of all pending sessions.
func pendingPlanMinutes(plans []plan.Plan) int {
	total := 0
	for _, p := range plans {
		for _, s := range p.PendingSessions() {
			total += s.EstimatedMinutes
		}
	}
	return total
}

// missedMinutes estimates the study minutes falling inside the absence,
// assuming pending sessions are spread evenly up to the deadline.
func missedMinutes(plans []plan.Plan, absentDays int, now time.Time) int {
	pending := pendingPlanMinutes(plans)
	if pending == 0 {
		return 0
	}
	days := 0
	for _, p := range plans {
		d := daysBetween(now, p.TargetEndDate)
		if d > days {
			days = d
		}
	}
	if days <= 0 {
		return pending
	}
	perDay := pending / days
	return perDay * absentDays
}
