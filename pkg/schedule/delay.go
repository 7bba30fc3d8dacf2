// Package schedule analyzes missed work and produces reschedule
// recommendations. It only reads quest state and completion history;
// applying a recommendation is an explicit separate step.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/studyflow/studyflow/pkg/quest"
	"github.com/studyflow/studyflow/pkg/storage"
)

// CarryOverAction recommends what to do with one overdue quest.
type CarryOverAction string

const (
	ActionCarryOver CarryOverAction = "CARRY_OVER"
	ActionCombine   CarryOverAction = "COMBINE"
	ActionSkip      CarryOverAction = "SKIP"
	ActionReduce    CarryOverAction = "REDUCE"
)

// CrisisLevel classifies sustained non-completion severity.
type CrisisLevel string

const (
	CrisisNone    CrisisLevel = "NONE"
	CrisisWarning CrisisLevel = "WARNING"
	CrisisConcern CrisisLevel = "CONCERN"
	CrisisCrisis  CrisisLevel = "CRISIS"
)

// SuggestionType names the automatic recovery strategy.
type SuggestionType string

const (
	SuggestCarryOver  SuggestionType = "CARRY_OVER"
	SuggestReduceLoad SuggestionType = "REDUCE_LOAD"
)

// ExpiredQuest is one overdue quest with its recommended handling.
type ExpiredQuest struct {
	Quest             *quest.DailyQuest `json:"quest"`
	DaysOverdue       int               `json:"daysOverdue"`
	RecommendedAction CarryOverAction   `json:"recommendedAction"`
}

// RescheduleSuggestion is the level-derived automatic recovery: the
// quests to put on today's plate, possibly with reduced targets.
type RescheduleSuggestion struct {
	Type    SuggestionType     `json:"type"`
	Message string             `json:"message"`
	Quests  []quest.DailyQuest `json:"quests"`
}

// DelayAnalysis is the derived report for one student. It is recomputed
// from current quest state and completion history on every call, never
// persisted.
type DelayAnalysis struct {
	StudentID             string                `json:"studentId"`
	ExpiredQuests         []ExpiredQuest        `json:"expiredQuests"`
	ConsecutiveMissedDays int                   `json:"consecutiveMissedDays"`
	CrisisLevel           CrisisLevel           `json:"crisisLevel"`
	Suggestion            *RescheduleSuggestion `json:"suggestion,omitempty"`
	AnalyzedAt            time.Time             `json:"analyzedAt"`
}

// DelayConfig holds the crisis classification thresholds.
type DelayConfig struct {
	CrisisMissedDays     int
	ConcernMissedDays    int
	ConcernExpiredQuests int
	// MissedDayLookback bounds the backward walk through history.
	MissedDayLookback int
}

// DefaultDelayConfig returns the standard thresholds.
func DefaultDelayConfig() DelayConfig {
	return DelayConfig{
		CrisisMissedDays:     3,
		ConcernMissedDays:    2,
		ConcernExpiredQuests: 3,
		MissedDayLookback:    30,
	}
}

// DelayHandler analyzes overdue quests and missed days for a student.
type DelayHandler struct {
	history storage.CompletionHistory
	config  DelayConfig
	now     func() time.Time
}

// NewDelayHandler creates a delay analyzer over the completion history.
func NewDelayHandler(history storage.CompletionHistory, cfg DelayConfig) *DelayHandler {
	if cfg.MissedDayLookback <= 0 {
		cfg.MissedDayLookback = 30
	}
	return &DelayHandler{history: history, config: cfg, now: time.Now}
}

// SetClock overrides the time source. Test hook.
func (h *DelayHandler) SetClock(now func() time.Time) { h.now = now }

// AnalyzeDelays scans the given day aggregates for overdue quests, walks
// the completion history for consecutive missed days, classifies the
// crisis level and derives a recovery suggestion. History trouble
// degrades to a zero missed-day count rather than an error.
func (h *DelayHandler) AnalyzeDelays(ctx context.Context, studentID string, recent []*quest.TodayQuests) (*DelayAnalysis, error) {
	now := h.now()
	analysis := &DelayAnalysis{
		StudentID:  studentID,
		AnalyzedAt: now,
	}

	for _, day := range recent {
		if day == nil {
			continue
		}
		for _, q := range day.All() {
			if q.Status == quest.StatusCompleted || q.Status == quest.StatusSkipped {
				continue
			}
			if !now.After(q.ExpiresAt) {
				continue
			}
			overdue := daysBetween(q.ExpiresAt, now)
			analysis.ExpiredQuests = append(analysis.ExpiredQuests, ExpiredQuest{
				Quest:             q,
				DaysOverdue:       overdue,
				RecommendedAction: carryOverAction(q, overdue),
			})
		}
	}

	missed, err := h.consecutiveMissedDays(ctx, studentID, now)
	if err != nil {
		missed = 0
	}
	analysis.ConsecutiveMissedDays = missed
	analysis.CrisisLevel = h.classify(missed, len(analysis.ExpiredQuests))
	analysis.Suggestion = h.suggest(analysis, now)
	return analysis, nil
}

// consecutiveMissedDays walks backward from yesterday until it finds a
// day with recorded activity, bounded by the lookback window. Today is
// never counted missed since it is not over.
func (h *DelayHandler) consecutiveMissedDays(ctx context.Context, studentID string, now time.Time) (int, error) {
	days, err := h.history.CompletionDays(ctx, studentID)
	if err != nil {
		return 0, err
	}
	active := make(map[string]struct{}, len(days))
	for _, d := range days {
		active[storage.DayKey(d)] = struct{}{}
	}

	missed := 0
	for i := 1; i <= h.config.MissedDayLookback; i++ {
		day := storage.DayKey(now.AddDate(0, 0, -i))
		if _, ok := active[day]; ok {
			break
		}
		missed++
	}
	return missed, nil
}

// classify maps missed days and expired count onto the crisis ladder.
// CRISIS requires sustained missed days; CONCERN and WARNING trigger on
// either signal.
func (h *DelayHandler) classify(missedDays, expiredCount int) CrisisLevel {
	switch {
	case missedDays >= h.config.CrisisMissedDays:
		return CrisisCrisis
	case missedDays >= h.config.ConcernMissedDays || expiredCount >= h.config.ConcernExpiredQuests:
		return CrisisConcern
	case missedDays >= 1 || expiredCount >= 1:
		return CrisisWarning
	default:
		return CrisisNone
	}
}

// suggest derives the automatic recovery from the crisis level. CRISIS
// shrinks the plate to a single halved quest; CONCERN carries over at
// most two, trimming long ones; WARNING carries everything forward.
func (h *DelayHandler) suggest(analysis *DelayAnalysis, now time.Time) *RescheduleSuggestion {
	if len(analysis.ExpiredQuests) == 0 {
		return nil
	}

	switch analysis.CrisisLevel {
	case CrisisCrisis:
		cheapest := analysis.ExpiredQuests[0]
		for _, eq := range analysis.ExpiredQuests[1:] {
			if eq.Quest.EstimatedMinutes < cheapest.Quest.EstimatedMinutes {
				cheapest = eq
			}
		}
		clone := carryOver(cheapest.Quest, now)
		clone.TargetValue = halved(clone.TargetValue)
		clone.EstimatedMinutes = halved(clone.EstimatedMinutes)
		return &RescheduleSuggestion{
			Type:    SuggestReduceLoad,
			Message: "Let's restart small: one short quest today, nothing else.",
			Quests:  []quest.DailyQuest{clone},
		}

	case CrisisConcern:
		limit := 2
		if len(analysis.ExpiredQuests) < limit {
			limit = len(analysis.ExpiredQuests)
		}
		quests := make([]quest.DailyQuest, 0, limit)
		for _, eq := range analysis.ExpiredQuests[:limit] {
			clone := carryOver(eq.Quest, now)
			if clone.EstimatedMinutes > 30 {
				clone.TargetValue = halved(clone.TargetValue)
				clone.EstimatedMinutes = halved(clone.EstimatedMinutes)
			}
			quests = append(quests, clone)
		}
		return &RescheduleSuggestion{
			Type:    SuggestCarryOver,
			Message: fmt.Sprintf("Carrying over %d quests with lighter targets to get back on track.", len(quests)),
			Quests:  quests,
		}

	default: // WARNING
		quests := make([]quest.DailyQuest, 0, len(analysis.ExpiredQuests))
		for _, eq := range analysis.ExpiredQuests {
			quests = append(quests, carryOver(eq.Quest, now))
		}
		return &RescheduleSuggestion{
			Type:    SuggestCarryOver,
			Message: "Yesterday's open quests moved to today.",
			Quests:  quests,
		}
	}
}

// carryOverAction picks the per-quest recommendation from overdue age
// and quest length.
func carryOverAction(q *quest.DailyQuest, daysOverdue int) CarryOverAction {
	switch {
	case daysOverdue >= 3:
		return ActionSkip
	case daysOverdue == 2 && q.Type == quest.TypeReview:
		return ActionCombine
	case q.EstimatedMinutes > 30:
		return ActionReduce
	default:
		return ActionCarryOver
	}
}

// carryOver clones an overdue quest onto today with a fresh id and reset
// progress.
func carryOver(q *quest.DailyQuest, now time.Time) quest.DailyQuest {
	clone := *q
	clone.ID = fmt.Sprintf("%s-co-%s", q.ID, storage.DayKey(now))
	clone.Date = storage.DayKey(now)
	clone.Status = quest.StatusAvailable
	clone.CurrentValue = 0
	clone.CompletedAt = time.Time{}
	y, m, d := now.Date()
	clone.ExpiresAt = time.Date(y, m, d, 23, 59, 59, 0, now.Location())
	return clone
}

func halved(v int) int {
	h := v / 2
	if h < 1 {
		return 1
	}
	return h
}

// daysBetween counts whole calendar days from a to b.
func daysBetween(a, b time.Time) int {
	if b.Before(a) {
		return 0
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	start := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	end := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}
