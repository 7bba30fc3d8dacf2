// Package plan defines the read-only study-plan source consumed by quest
// generation and rescheduling. Plans are owned elsewhere; this package
// only reads them.
package plan

import (
	"context"
	"sort"
	"sync"
	"time"
)

// SessionStatus is the lifecycle state of one planned session.
type SessionStatus string

const (
	SessionPending    SessionStatus = "PENDING"
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionCompleted  SessionStatus = "COMPLETED"
	SessionSkipped    SessionStatus = "SKIPPED"
)

// Session is one planned unit of study inside a plan.
type Session struct {
	ID               string        `json:"id"`
	Order            int           `json:"order"`
	Topic            string        `json:"topic"`
	EstimatedMinutes int           `json:"estimatedMinutes"`
	Status           SessionStatus `json:"status"`
}

// Plan is one study plan with its ordered sessions.
type Plan struct {
	ID                string    `json:"id"`
	StudentID         string    `json:"studentId"`
	Subject           string    `json:"subject"`
	TargetEndDate     time.Time `json:"targetEndDate"`
	CompletedSessions int       `json:"completedSessions"`
	TotalSessions     int       `json:"totalSessions"`
	Sessions          []Session `json:"sessions"`
}

// CompletionFraction reports how much of the plan is done, in [0,1].
func (p *Plan) CompletionFraction() float64 {
	if p.TotalSessions <= 0 {
		return 0
	}
	f := float64(p.CompletedSessions) / float64(p.TotalSessions)
	if f > 1 {
		return 1
	}
	return f
}

// PendingSessions returns the plan's not-yet-done sessions in plan order.
func (p *Plan) PendingSessions() []Session {
	pending := make([]Session, 0, len(p.Sessions))
	for _, s := range p.Sessions {
		if s.Status == SessionPending || s.Status == SessionInProgress {
			pending = append(pending, s)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Order < pending[j].Order })
	return pending
}

// Source supplies the active plans for a student.
type Source interface {
	ActivePlans(ctx context.Context, studentID string) ([]Plan, error)
}

// StaticSource is an in-memory Source, used in tests and as the default
// when no external plan system is wired.
type StaticSource struct {
	mu    sync.RWMutex
	plans map[string][]Plan
}

// NewStaticSource creates an empty static plan source.
func NewStaticSource() *StaticSource {
	return &StaticSource{plans: make(map[string][]Plan)}
}

// SetPlans replaces the plans held for a student.
func (s *StaticSource) SetPlans(studentID string, plans []Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[studentID] = plans
}

// ActivePlans returns the plans registered for a student.
func (s *StaticSource) ActivePlans(_ context.Context, studentID string) ([]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Plan, len(s.plans[studentID]))
	copy(out, s.plans[studentID])
	return out, nil
}
