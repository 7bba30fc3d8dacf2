package quest

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/studyflow/studyflow/pkg/plan"
	"github.com/studyflow/studyflow/pkg/srs"
	"github.com/studyflow/studyflow/pkg/storage"
)

// GeneratorConfig holds the daily quest budget and its partition.
type GeneratorConfig struct {
	// MaxDaily caps the number of quests per day.
	MaxDaily int
	// MaxMinutes caps the summed estimated minutes per day.
	MaxMinutes int
	// MainShare, ReviewShare and BonusShare split the budget across the
	// three quest groups. They should sum to 1.
	MainShare   float64
	ReviewShare float64
	BonusShare  float64
	// StreakBonusMin is the streak length from which bonus quests appear.
	StreakBonusMin int
}

// DefaultGeneratorConfig returns the standard daily budget.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		MaxDaily:       5,
		MaxMinutes:     120,
		MainShare:      0.6,
		ReviewShare:    0.3,
		BonusShare:     0.1,
		StreakBonusMin: 3,
	}
}

// GenerateRequest carries everything one day's generation needs.
type GenerateRequest struct {
	StudentID string
	Date      time.Time
	Plans     []plan.Plan
	DueTopics []*srs.TopicMastery // weakest mastery first
	Streak    int
}

// Generator builds one day's quests from plans, due reviews and streak
// state. It holds no per-student state of its own.
type Generator struct {
	config GeneratorConfig
	now    func() time.Time
}

// NewGenerator creates a quest generator with the given budget.
func NewGenerator(cfg GeneratorConfig) *Generator {
	if cfg.MaxDaily <= 0 {
		cfg.MaxDaily = 5
	}
	if cfg.MaxMinutes <= 0 {
		cfg.MaxMinutes = 120
	}
	return &Generator{config: cfg, now: time.Now}
}

// SetClock overrides the time source. Test hook.
func (g *Generator) SetClock(now func() time.Time) { g.now = now }

// GenerateTodayQuests partitions the daily budget across main quests
// (plan sessions, nearest deadline first), review quests (due topics,
// weakest first) and bonus quests (streak milestones). Quest ids are
// deterministic per student, date and sequence so regeneration within a
// day yields stable ids.
func (g *Generator) GenerateTodayQuests(req GenerateRequest) (*TodayQuests, error) {
	if req.StudentID == "" {
		return nil, ErrInvalidStudentID
	}
	date := req.Date
	if date.IsZero() {
		date = g.now()
	}
	dayKey := storage.DayKey(date)
	expiresAt := endOfDay(date)

	seq := 0
	nextID := func() string {
		seq++
		return fmt.Sprintf("%s-%s-%02d", req.StudentID, dayKey, seq)
	}

	mainMinutes := int(float64(g.config.MaxMinutes) * g.config.MainShare)
	reviewMinutes := int(float64(g.config.MaxMinutes) * g.config.ReviewShare)
	mainCap := shareCount(g.config.MaxDaily, g.config.MainShare)
	reviewCap := shareCount(g.config.MaxDaily, g.config.ReviewShare)

	today := &TodayQuests{
		StudentID:   req.StudentID,
		Date:        dayKey,
		GeneratedAt: g.now(),
	}

	today.MainQuests = g.mainQuests(req, dayKey, expiresAt, mainMinutes, mainCap, nextID)

	remaining := g.config.MaxDaily - len(today.MainQuests)
	if reviewCap > remaining {
		reviewCap = remaining
	}
	today.ReviewQuests = g.reviewQuests(req, dayKey, expiresAt, reviewMinutes, reviewCap, nextID)

	if g.config.MaxDaily-len(today.MainQuests)-len(today.ReviewQuests) > 0 {
		today.BonusQuests = g.bonusQuests(req, dayKey, expiresAt, nextID)
	}

	today.Summary = Summarize(today, req.Streak)
	today.DailyMessage = dailyMessage(today, req.Streak)
	today.CoachTip = coachTip(today)
	return today, nil
}

// mainQuests packs pending plan sessions greedily, nearest plan deadline
// first, while the minutes budget and count cap hold. Session difficulty
// scales with the plan's completion fraction: the further along the plan,
// the harder its quests are rated.
func (g *Generator) mainQuests(req GenerateRequest, dayKey string, expiresAt time.Time, minutes, maxCount int, nextID func() string) []DailyQuest {
	plans := make([]plan.Plan, len(req.Plans))
	copy(plans, req.Plans)
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].TargetEndDate.Before(plans[j].TargetEndDate)
	})

	var quests []DailyQuest
	budget := minutes
	for _, p := range plans {
		difficulty := planDifficulty(p.CompletionFraction())
		for _, session := range p.PendingSessions() {
			if len(quests) >= maxCount {
				return quests
			}
			if session.EstimatedMinutes > budget {
				continue
			}
			budget -= session.EstimatedMinutes
			quests = append(quests, DailyQuest{
				ID:               nextID(),
				StudentID:        req.StudentID,
				Date:             dayKey,
				Type:             TypeStudy,
				Title:            fmt.Sprintf("Study: %s", session.Topic),
				Description:      fmt.Sprintf("Work through the %q session of your %s plan.", session.Topic, p.Subject),
				Subject:          p.Subject,
				PlanID:           p.ID,
				SessionID:        session.ID,
				TopicID:          session.Topic,
				TargetValue:      session.EstimatedMinutes,
				Unit:             "minutes",
				Status:           StatusAvailable,
				Difficulty:       difficulty,
				Priority:         len(quests) + 1,
				XPReward:         xpReward(difficulty, session.EstimatedMinutes),
				EstimatedMinutes: session.EstimatedMinutes,
				ExpiresAt:        expiresAt,
				Tags:             []string{"plan", p.Subject},
			})
		}
	}
	return quests
}

// reviewQuests turns due topics into short recall sessions. The caller
// already ordered topics weakest mastery first, which is the review
// priority.
func (g *Generator) reviewQuests(req GenerateRequest, dayKey string, expiresAt time.Time, minutes, maxCount int, nextID func() string) []DailyQuest {
	const sessionMinutes = 15

	var quests []DailyQuest
	budget := minutes
	for _, tm := range req.DueTopics {
		if len(quests) >= maxCount || budget < sessionMinutes {
			break
		}
		budget -= sessionMinutes
		difficulty := reviewDifficulty(tm.MasteryScore)
		quests = append(quests, DailyQuest{
			ID:               nextID(),
			StudentID:        req.StudentID,
			Date:             dayKey,
			Type:             TypeReview,
			Title:            fmt.Sprintf("Review: %s", tm.TopicID),
			Description:      fmt.Sprintf("Quick recall session for %s before it fades.", tm.TopicID),
			Subject:          tm.Subject,
			TopicID:          tm.TopicID,
			TargetValue:      1,
			Unit:             "session",
			Status:           StatusAvailable,
			Difficulty:       difficulty,
			Priority:         len(quests) + 1,
			XPReward:         xpReward(difficulty, sessionMinutes),
			EstimatedMinutes: sessionMinutes,
			ExpiresAt:        expiresAt,
			Tags:             []string{"review", tm.Subject},
		})
	}
	return quests
}

// bonusQuests adds a streak-milestone quest once the streak qualifies.
func (g *Generator) bonusQuests(req GenerateRequest, dayKey string, expiresAt time.Time, nextID func() string) []DailyQuest {
	if req.Streak < g.config.StreakBonusMin {
		return nil
	}
	target := req.Streak + 1
	return []DailyQuest{{
		ID:               nextID(),
		StudentID:        req.StudentID,
		Date:             dayKey,
		Type:             TypeStreak,
		Title:            fmt.Sprintf("Keep the %d-day streak alive", req.Streak),
		Description:      fmt.Sprintf("Complete any quest today to reach a %d-day streak.", target),
		TargetValue:      1,
		Unit:             "quest",
		Status:           StatusAvailable,
		Difficulty:       1,
		Priority:         1,
		XPReward:         10 * target,
		EstimatedMinutes: 5,
		ExpiresAt:        expiresAt,
		Tags:             []string{"streak"},
	}}
}

// Summarize recomputes the day's aggregate from the current quest states.
func Summarize(t *TodayQuests, streak int) Summary {
	s := Summary{StreakCount: streak, StreakActive: streak > 0}
	for _, q := range t.All() {
		s.TotalQuests++
		s.XPAvailable += q.XPReward
		s.TotalMinutes += q.EstimatedMinutes
		switch q.Status {
		case StatusCompleted:
			s.CompletedQuests++
			s.XPEarned += q.XPReward
		case StatusExpired:
			s.ExpiredQuests++
		}
	}
	if s.TotalQuests > 0 {
		s.CompletionRate = float64(s.CompletedQuests) / float64(s.TotalQuests)
	}
	return s
}

// planDifficulty maps the plan completion fraction onto [1,5]. Later plan
// stages rate harder regardless of the topic's own mastery.
func planDifficulty(fraction float64) int {
	d := 1 + int(math.Round(fraction*4))
	if d < 1 {
		return 1
	}
	if d > 5 {
		return 5
	}
	return d
}

// reviewDifficulty maps a 0-10 mastery score onto [1,5], weaker topics
// rating harder.
func reviewDifficulty(mastery float64) int {
	d := 5 - int(mastery/2.5)
	if d < 1 {
		return 1
	}
	if d > 5 {
		return 5
	}
	return d
}

func xpReward(difficulty, minutes int) int {
	return difficulty*15 + minutes/2
}

func shareCount(total int, share float64) int {
	n := int(math.Round(float64(total) * share))
	if n < 1 {
		n = 1
	}
	return n
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}

func dailyMessage(t *TodayQuests, streak int) string {
	switch {
	case t.Summary.TotalQuests == 0:
		return "Nothing scheduled today. Rest up or pick a topic freely."
	case streak >= 7:
		return fmt.Sprintf("A %d-day streak! Today has %d quests waiting.", streak, t.Summary.TotalQuests)
	case len(t.ReviewQuests) > len(t.MainQuests):
		return "Review-heavy day: shore up what you already learned."
	default:
		return fmt.Sprintf("%d quests today, about %d minutes of work.", t.Summary.TotalQuests, t.Summary.TotalMinutes)
	}
}

func coachTip(t *TodayQuests) string {
	if len(t.ReviewQuests) > 0 {
		return "Start with a review quest; recall is strongest early in the session."
	}
	if len(t.MainQuests) > 2 {
		return "Break between main quests keeps the last one from dragging."
	}
	return "Short focused sessions beat one long slog."
}
