// Package quest generates and tracks the daily quests that turn study
// plans and due reviews into one day's worth of concrete tasks.
package quest

import (
	"errors"
	"time"
)

// ErrInvalidStudentID is returned when an operation lacks a student id.
var ErrInvalidStudentID = errors.New("quest: student id must not be empty")

// Type labels what a quest asks the student to do.
type Type string

const (
	TypeStudy     Type = "STUDY"
	TypeReview    Type = "REVIEW"
	TypeStreak    Type = "STREAK"
	TypeMilestone Type = "MILESTONE"
)

// Status is the lifecycle state of one quest.
type Status string

const (
	StatusLocked     Status = "LOCKED"
	StatusAvailable  Status = "AVAILABLE"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusExpired    Status = "EXPIRED"
	StatusSkipped    Status = "SKIPPED"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusExpired || s == StatusSkipped
}

// DailyQuest is one trackable task instance for one day.
type DailyQuest struct {
	ID               string    `json:"id"`
	StudentID        string    `json:"studentId"`
	Date             string    `json:"date"` // calendar day, 2006-01-02
	Type             Type      `json:"type"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Subject          string    `json:"subject"`
	PlanID           string    `json:"planId,omitempty"`
	SessionID        string    `json:"sessionId,omitempty"`
	TopicID          string    `json:"topicId,omitempty"`
	TargetValue      int       `json:"targetValue"`
	CurrentValue     int       `json:"currentValue"`
	Unit             string    `json:"unit"`
	Status           Status    `json:"status"`
	Difficulty       int       `json:"difficulty"` // [1,5]
	Priority         int       `json:"priority"`   // lower is sooner
	XPReward         int       `json:"xpReward"`
	EstimatedMinutes int       `json:"estimatedMinutes"`
	ExpiresAt        time.Time `json:"expiresAt"`
	Tags             []string  `json:"tags,omitempty"`
	Prerequisites    []string  `json:"prerequisites,omitempty"`
	CompletedAt      time.Time `json:"completedAt,omitempty"`
}

// Summary aggregates one student/day's quest state.
type Summary struct {
	TotalQuests     int     `json:"totalQuests"`
	CompletedQuests int     `json:"completedQuests"`
	ExpiredQuests   int     `json:"expiredQuests"`
	CompletionRate  float64 `json:"completionRate"`
	XPAvailable     int     `json:"xpAvailable"`
	XPEarned        int     `json:"xpEarned"`
	TotalMinutes    int     `json:"totalMinutes"`
	StreakActive    bool    `json:"streakActive"`
	StreakCount     int     `json:"streakCount"`
}

// TodayQuests is the aggregate for one student and one day. The summary
// is recomputed whenever any contained quest mutates.
type TodayQuests struct {
	StudentID    string       `json:"studentId"`
	Date         string       `json:"date"`
	MainQuests   []DailyQuest `json:"mainQuests"`
	ReviewQuests []DailyQuest `json:"reviewQuests"`
	BonusQuests  []DailyQuest `json:"bonusQuests"`
	Summary      Summary      `json:"summary"`
	DailyMessage string       `json:"dailyMessage"`
	CoachTip     string       `json:"coachTip"`
	GeneratedAt  time.Time    `json:"generatedAt"`
}

// All returns pointers to every quest of the day, main first.
func (t *TodayQuests) All() []*DailyQuest {
	all := make([]*DailyQuest, 0, len(t.MainQuests)+len(t.ReviewQuests)+len(t.BonusQuests))
	for i := range t.MainQuests {
		all = append(all, &t.MainQuests[i])
	}
	for i := range t.ReviewQuests {
		all = append(all, &t.ReviewQuests[i])
	}
	for i := range t.BonusQuests {
		all = append(all, &t.BonusQuests[i])
	}
	return all
}

// Find returns the quest with the given id, or nil.
func (t *TodayQuests) Find(questID string) *DailyQuest {
	for _, q := range t.All() {
		if q.ID == questID {
			return q
		}
	}
	return nil
}

// Badge is one earned achievement.
type Badge struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	EarnedAt time.Time `json:"earnedAt"`
}

// Progress is the per-student aggregate the tracker owns exclusively:
// lifetime XP, the activity streak and earned badges. Other components
// never mutate it directly.
type Progress struct {
	StudentID     string  `json:"studentId"`
	TotalXP       int     `json:"totalXp"`
	StreakCount   int     `json:"streakCount"`
	LastActiveDay string  `json:"lastActiveDay"` // 2006-01-02
	Badges        []Badge `json:"badges"`
}

// HasBadge reports whether a badge id was already earned.
func (p *Progress) HasBadge(id string) bool {
	for _, b := range p.Badges {
		if b.ID == id {
			return true
		}
	}
	return false
}

// CompletionResult reports the outcome of completing one quest.
type CompletionResult struct {
	Quest        *DailyQuest `json:"quest"`
	XPAwarded    int         `json:"xpAwarded"`
	StreakBonus  int         `json:"streakBonus"`
	NewStreak    int         `json:"newStreak"`
	BadgesEarned []Badge     `json:"badgesEarned"`
	Message      string      `json:"message"`
}
