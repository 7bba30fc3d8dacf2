// Package engine is the facade over the personalization core: intent
// routing, memory, spaced repetition, burnout tracking, quests and
// schedule recovery. Requests for the same student are serialized;
// independent students run in parallel.
package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/studyflow/studyflow/pkg/burnout"
	"github.com/studyflow/studyflow/pkg/intent"
	"github.com/studyflow/studyflow/pkg/memory"
	"github.com/studyflow/studyflow/pkg/plan"
	"github.com/studyflow/studyflow/pkg/quest"
	"github.com/studyflow/studyflow/pkg/schedule"
	"github.com/studyflow/studyflow/pkg/srs"
	"github.com/studyflow/studyflow/pkg/storage"
)

// Logger is the logging surface the engine needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Warn(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}

// Events receives engine-level notifications, e.g. for websocket fanout.
type Events interface {
	QuestsGenerated(studentID string, today *quest.TodayQuests)
	QuestCompleted(studentID string, result *quest.CompletionResult)
}

type nopEvents struct{}

func (nopEvents) QuestsGenerated(string, *quest.TodayQuests)     {}
func (nopEvents) QuestCompleted(string, *quest.CompletionResult) {}

// Deps are the collaborators the engine facades over.
type Deps struct {
	Classifier  *intent.Classifier
	Lane        *memory.Lane
	Mastery     *srs.Manager
	Emotions    *burnout.Monitor
	Generator   *quest.Generator
	Tracker     *quest.Tracker
	Plans       plan.Source
	History     storage.CompletionHistory
	Delays      *schedule.DelayHandler
	Rescheduler *schedule.AutoRescheduler
	Modifier    *schedule.Modifier
	Logger      Logger
	Events      Events
}

// Engine owns the per-student locking and exposes every operation of the
// personalization core.
type Engine struct {
	deps    Deps
	started time.Time

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	studentsMu sync.RWMutex
	students   map[string]struct{}
}

// New creates the engine facade.
func New(deps Deps) *Engine {
	if deps.Logger == nil {
		deps.Logger = nopLogger{}
	}
	if deps.Events == nil {
		deps.Events = nopEvents{}
	}
	return &Engine{
		deps:     deps,
		started:  time.Now(),
		locks:    make(map[string]*sync.Mutex),
		students: make(map[string]struct{}),
	}
}

// IsHealthy returns true if the engine is able to serve requests.
func (e *Engine) IsHealthy() bool {
	return e.deps.Tracker != nil && e.deps.Generator != nil
}

// IsReady returns true if the engine is ready to accept requests.
func (e *Engine) IsReady() bool {
	return e.IsHealthy() && e.deps.Lane != nil
}

// Status is the engine's current status snapshot.
type Status struct {
	State          string `json:"state"`
	Uptime         string `json:"uptime"`
	ActiveStudents int    `json:"activeStudents"`
	Version        string `json:"version,omitempty"`
}

// GetStatus returns detailed engine status.
func (e *Engine) GetStatus() *Status {
	state := "running"
	if !e.IsReady() {
		state = "degraded"
	}
	e.studentsMu.RLock()
	active := len(e.students)
	e.studentsMu.RUnlock()
	return &Status{
		State:          state,
		Uptime:         time.Since(e.started).Round(time.Second).String(),
		ActiveStudents: active,
	}
}

// studentLock returns the mutex serializing one student's mutations.
func (e *Engine) studentLock(studentID string) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	mu, ok := e.locks[studentID]
	if !ok {
		mu = &sync.Mutex{}
		e.locks[studentID] = mu
	}
	return mu
}

// touchStudent registers a student as active for scheduled maintenance.
func (e *Engine) touchStudent(studentID string) {
	e.studentsMu.Lock()
	e.students[studentID] = struct{}{}
	e.studentsMu.Unlock()
}

// ActiveStudents lists every student the engine has served. Satisfies
// the quest scheduler's student source.
func (e *Engine) ActiveStudents(_ context.Context) ([]string, error) {
	e.studentsMu.RLock()
	defer e.studentsMu.RUnlock()
	out := make([]string, 0, len(e.students))
	for id := range e.students {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// Classify routes free text to a conversation handler. Pure function of
// the text, no locking needed.
func (e *Engine) Classify(text string) intent.RouteDecision {
	return e.deps.Classifier.Classify(text)
}

// RetrieveContext builds the memory context for a conversation turn.
func (e *Engine) RetrieveContext(ctx context.Context, studentID, query, currentSubject string) (*memory.Context, error) {
	e.touchStudent(studentID)
	mu := e.studentLock(studentID)
	mu.Lock()
	defer mu.Unlock()
	return e.deps.Lane.RetrieveContext(ctx, studentID, query, currentSubject)
}

// RecordExchange feeds a finished conversation turn back into memory.
func (e *Engine) RecordExchange(ctx context.Context, studentID, userMessage, reply string, emotion burnout.Emotion) error {
	e.touchStudent(studentID)
	mu := e.studentLock(studentID)
	mu.Lock()
	defer mu.Unlock()
	return e.deps.Lane.RecordExchange(ctx, studentID, userMessage, reply, emotion)
}

// MemoryFeedback applies a helpfulness signal to one memory.
func (e *Engine) MemoryFeedback(ctx context.Context, studentID, memoryID string, helpful bool) (*memory.LearningMemory, error) {
	mu := e.studentLock(studentID)
	mu.Lock()
	defer mu.Unlock()
	return e.deps.Lane.Feedback(ctx, studentID, memoryID, helpful)
}

// UpdateMastery applies one graded review outcome.
func (e *Engine) UpdateMastery(ctx context.Context, studentID, topicID string, quality int) (*srs.TopicMastery, error) {
	e.touchStudent(studentID)
	mu := e.studentLock(studentID)
	mu.Lock()
	defer mu.Unlock()

	tm, err := e.deps.Mastery.UpdateMastery(ctx, studentID, topicID, quality)
	if err != nil || tm != nil {
		return tm, err
	}
	// First exposure: create the topic, then grade it.
	if _, err := e.deps.Mastery.Initialize(ctx, studentID, topicID, "", 0); err != nil {
		return nil, err
	}
	return e.deps.Mastery.UpdateMastery(ctx, studentID, topicID, quality)
}

// TopicsDueForReview lists due topics, weakest first.
func (e *Engine) TopicsDueForReview(ctx context.Context, studentID, subject string) ([]*srs.TopicMastery, error) {
	return e.deps.Mastery.GetTopicsDueForReview(ctx, studentID, subject)
}

// RecordEmotion appends to the student's emotion window.
func (e *Engine) RecordEmotion(ctx context.Context, studentID string, emotion burnout.Emotion) error {
	e.touchStudent(studentID)
	mu := e.studentLock(studentID)
	mu.Lock()
	defer mu.Unlock()
	return e.deps.Emotions.RecordEmotion(ctx, studentID, emotion)
}

// AssessBurnout computes the current burnout indicator.
func (e *Engine) AssessBurnout(ctx context.Context, studentID string) (*burnout.Indicator, error) {
	return e.deps.Emotions.AssessBurnout(ctx, studentID)
}

// ShouldContinueStudying collapses burnout into a go/no-go signal.
func (e *Engine) ShouldContinueStudying(ctx context.Context, studentID string) (burnout.Recommendation, error) {
	return e.deps.Emotions.ShouldContinueStudying(ctx, studentID)
}

// GenerateTodayQuests returns today's quests, generating them when none
// exist yet. Plan-source trouble degrades to a template quest set so the
// day is never empty because a collaborator is down.
func (e *Engine) GenerateTodayQuests(ctx context.Context, studentID string) (*quest.TodayQuests, error) {
	e.touchStudent(studentID)
	mu := e.studentLock(studentID)
	mu.Lock()
	defer mu.Unlock()

	now := time.Now()
	if existing, err := e.deps.Tracker.GetToday(ctx, studentID, now); err == nil && existing != nil {
		return existing, nil
	}
	return e.planDayLocked(ctx, studentID, now)
}

// PlanDay regenerates the day for one student. Satisfies the quest
// scheduler's planner.
func (e *Engine) PlanDay(ctx context.Context, studentID string) error {
	mu := e.studentLock(studentID)
	mu.Lock()
	defer mu.Unlock()
	_, err := e.planDayLocked(ctx, studentID, time.Now())
	return err
}

func (e *Engine) planDayLocked(ctx context.Context, studentID string, now time.Time) (*quest.TodayQuests, error) {
	plans, err := e.deps.Plans.ActivePlans(ctx, studentID)
	if err != nil {
		e.deps.Logger.Warn("plan source unavailable, using fallback quests",
			"student_id", studentID, "error", err)
		plans = nil
	}

	due, err := e.deps.Mastery.GetTopicsDueForReview(ctx, studentID, "")
	if err != nil {
		e.deps.Logger.Warn("due topics unavailable for generation",
			"student_id", studentID, "error", err)
	}

	streak := 0
	if progress, err := e.deps.Tracker.GetProgress(ctx, studentID); err == nil {
		streak = progress.StreakCount
	}

	today, err := e.deps.Generator.GenerateTodayQuests(quest.GenerateRequest{
		StudentID: studentID,
		Date:      now,
		Plans:     plans,
		DueTopics: due,
		Streak:    streak,
	})
	if err != nil {
		return nil, err
	}
	if today.Summary.TotalQuests == 0 {
		fallbackQuests(today, studentID, now)
		today.Summary = quest.Summarize(today, streak)
	}

	if err := e.deps.Tracker.SaveToday(ctx, today); err != nil {
		return nil, err
	}
	e.deps.Events.QuestsGenerated(studentID, today)
	e.deps.Logger.Info("generated daily quests",
		"student_id", studentID, "date", today.Date, "count", today.Summary.TotalQuests)
	return today, nil
}

// UpdateProgress adds a progress delta to one quest.
func (e *Engine) UpdateProgress(ctx context.Context, studentID, questID string, delta int) (*quest.DailyQuest, error) {
	mu := e.studentLock(studentID)
	mu.Lock()
	defer mu.Unlock()

	q, err := e.deps.Tracker.UpdateProgress(ctx, studentID, questID, delta)
	if err != nil {
		return nil, err
	}
	if q != nil && q.Status == quest.StatusCompleted {
		e.recordActivity(ctx, studentID)
	}
	return q, nil
}

// CompleteQuest completes one quest with XP, streak and badge effects.
func (e *Engine) CompleteQuest(ctx context.Context, studentID, questID string) (*quest.CompletionResult, error) {
	mu := e.studentLock(studentID)
	mu.Lock()
	defer mu.Unlock()

	result, err := e.deps.Tracker.CompleteQuest(ctx, studentID, questID)
	if err != nil || result == nil {
		return result, err
	}
	e.recordActivity(ctx, studentID)
	e.deps.Events.QuestCompleted(studentID, result)
	return result, nil
}

// SkipQuest marks one quest skipped.
func (e *Engine) SkipQuest(ctx context.Context, studentID, questID string) (*quest.DailyQuest, error) {
	mu := e.studentLock(studentID)
	mu.Lock()
	defer mu.Unlock()
	return e.deps.Tracker.SkipQuest(ctx, studentID, questID)
}

// RecentQuestDays returns the latest stored quest days, newest first.
func (e *Engine) RecentQuestDays(ctx context.Context, studentID string, days int) ([]*quest.TodayQuests, error) {
	return e.deps.Tracker.GetRecent(ctx, studentID, days)
}

// GetProgress returns the student's XP/streak/badge aggregate.
func (e *Engine) GetProgress(ctx context.Context, studentID string) (*quest.Progress, error) {
	return e.deps.Tracker.GetProgress(ctx, studentID)
}

// recordActivity notes today as an active day in the completion history.
// Best effort; delay analysis tolerates gaps.
func (e *Engine) recordActivity(ctx context.Context, studentID string) {
	if err := e.deps.History.RecordCompletion(ctx, studentID, time.Now()); err != nil {
		e.deps.Logger.Warn("recording completion day failed", "student_id", studentID, "error", err)
	}
}

// AnalyzeDelays builds the delay report from recent quest days.
func (e *Engine) AnalyzeDelays(ctx context.Context, studentID string) (*schedule.DelayAnalysis, error) {
	recent, err := e.deps.Tracker.GetRecent(ctx, studentID, 7)
	if err != nil {
		return nil, err
	}
	return e.deps.Delays.AnalyzeDelays(ctx, studentID, recent)
}

// AutoReschedule analyzes delays and picks a recovery strategy.
func (e *Engine) AutoReschedule(ctx context.Context, studentID string) (*schedule.DelayAnalysis, schedule.Decision, error) {
	analysis, err := e.AnalyzeDelays(ctx, studentID)
	if err != nil {
		return nil, schedule.Decision{}, err
	}

	plans, err := e.deps.Plans.ActivePlans(ctx, studentID)
	if err != nil {
		plans = nil
	}
	nextDayMinutes := 0
	if tomorrow, err := e.deps.Tracker.GetToday(ctx, studentID, time.Now().AddDate(0, 0, 1)); err == nil && tomorrow != nil {
		nextDayMinutes = tomorrow.Summary.TotalMinutes
	}
	return analysis, e.deps.Rescheduler.Decide(analysis, plans, nextDayMinutes), nil
}

// GenerateRescheduleOptions builds ranked options for an announced
// absence.
func (e *Engine) GenerateRescheduleOptions(ctx context.Context, req schedule.RescheduleRequest) ([]schedule.RescheduleOption, error) {
	plans, err := e.deps.Plans.ActivePlans(ctx, req.StudentID)
	if err != nil {
		plans = nil
	}
	today, err := e.deps.Tracker.GetToday(ctx, req.StudentID, time.Now())
	if err != nil {
		today = nil
	}
	return e.deps.Modifier.GenerateRescheduleOptions(req, plans, today), nil
}

// EraseStudent removes every record held for a student across memories,
// mastery, emotions, quests and completion history.
func (e *Engine) EraseStudent(ctx context.Context, studentID string, repo storage.Repository) error {
	mu := e.studentLock(studentID)
	mu.Lock()
	defer mu.Unlock()

	if _, err := e.deps.Lane.EraseStudent(ctx, studentID); err != nil {
		return err
	}
	if _, err := repo.DeleteStudent(ctx, studentID); err != nil {
		return err
	}
	if err := e.deps.History.DeleteStudent(ctx, studentID); err != nil {
		return err
	}
	e.studentsMu.Lock()
	delete(e.students, studentID)
	e.studentsMu.Unlock()
	e.deps.Logger.Info("erased student data", "student_id", studentID)
	return nil
}
