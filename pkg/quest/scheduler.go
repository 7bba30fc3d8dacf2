package quest

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
)

// StudentSource lists the students with active quest tracking, used by
// the daily rollover to know whom to generate for.
type StudentSource interface {
	ActiveStudents(ctx context.Context) ([]string, error)
}

// DailyPlanner builds and stores a fresh day of quests for one student.
type DailyPlanner interface {
	PlanDay(ctx context.Context, studentID string) error
}

// Scheduler runs the recurring quest maintenance: an hourly expiry sweep
// and a fresh generation pass shortly after midnight.
type Scheduler struct {
	scheduler *gocron.Scheduler
	tracker   *Tracker
	students  StudentSource
	planner   DailyPlanner
	logger    trackerLogger
	timeout   time.Duration
}

// NewScheduler creates the quest maintenance scheduler.
func NewScheduler(tracker *Tracker, students StudentSource, planner DailyPlanner, log trackerLogger) *Scheduler {
	if log == nil {
		log = nopTrackerLogger{}
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.Local),
		tracker:   tracker,
		students:  students,
		planner:   planner,
		logger:    log,
		timeout:   5 * time.Minute,
	}
}

// Start registers the recurring jobs and runs the scheduler in the
// background.
func (s *Scheduler) Start() {
	s.scheduler.Every(1).Hour().Do(s.expireSweep)
	s.scheduler.Every(1).Day().At("00:05").Do(s.dailyRollover)
	s.scheduler.StartAsync()
}

// Stop terminates the scheduled jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// expireSweep moves overdue quests to EXPIRED for every active student.
func (s *Scheduler) expireSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	students, err := s.students.ActiveStudents(ctx)
	if err != nil {
		s.logger.Warn("expiry sweep could not list students", "error", err)
		return
	}
	for _, id := range students {
		n, err := s.tracker.ExpireOverdue(ctx, id)
		if err != nil {
			s.logger.Warn("expiry sweep failed for student", "student_id", id, "error", err)
			continue
		}
		if n > 0 {
			s.logger.Debug("expired overdue quests", "student_id", id, "count", n)
		}
	}
}

// dailyRollover generates the new day's quests for every active student.
func (s *Scheduler) dailyRollover() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	students, err := s.students.ActiveStudents(ctx)
	if err != nil {
		s.logger.Warn("daily rollover could not list students", "error", err)
		return
	}
	for _, id := range students {
		if err := s.planner.PlanDay(ctx, id); err != nil {
			s.logger.Warn("daily generation failed for student", "student_id", id, "error", err)
		}
	}
}
