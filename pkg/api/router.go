// Package api provides HTTP API server components.
package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/studyflow/studyflow/config"
	"github.com/studyflow/studyflow/pkg/api/handlers"
	"github.com/studyflow/studyflow/pkg/api/middleware"
	"github.com/studyflow/studyflow/pkg/logger"
)

// Handlers holds all HTTP handlers.
type Handlers struct {
	// Health handles health check endpoints
	Health *handlers.HealthHandler

	// Chat handles intent routing, context and exchange endpoints
	Chat *handlers.ChatHandler

	// Memory handles memory inspection endpoints
	Memory *handlers.MemoryHandler

	// Mastery handles spaced-repetition endpoints
	Mastery *handlers.MasteryHandler

	// Wellbeing handles emotion and burnout endpoints
	Wellbeing *handlers.WellbeingHandler

	// Quest handles daily quest endpoints
	Quest *handlers.QuestHandler

	// Schedule handles delay and reschedule endpoints
	Schedule *handlers.ScheduleHandler

	// Student handles student-level administrative endpoints
	Student *handlers.StudentHandler

	// WebSocket streams quest events to subscribers
	WebSocket *handlers.WebSocketHandler

	// Metrics is the optional metrics recorder
	Metrics middleware.MetricsRecorder
}

// NewRouter creates a new chi router with middleware and routes.
func NewRouter(cfg *config.Config, log logger.Logger, handlers *Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))

	if handlers.Metrics != nil {
		r.Use(middleware.Metrics(handlers.Metrics))
	}

	r.Use(middleware.CORS(&cfg.Server.CORS))
	r.Use(middleware.Timeout(cfg.Server.HTTP.ReadTimeout))

	RegisterRoutes(r, handlers)

	return r
}

// RegisterRoutes registers all API routes.
func RegisterRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		if h.Chat != nil {
			r.Post("/classify", h.Chat.Classify)
		}

		if h.Student != nil {
			r.Get("/students", h.Student.List)
		}

		r.Route("/students/{studentID}", func(r chi.Router) {
			if h.Student != nil {
				r.Delete("/", h.Student.Erase)
			}

			if h.Chat != nil {
				r.Post("/context", h.Chat.RetrieveContext)
				r.Post("/exchanges", h.Chat.RecordExchange)
				r.Post("/memories/{memoryID}/feedback", h.Chat.MemoryFeedback)
			}

			if h.Memory != nil {
				r.Get("/memories", h.Memory.ListMemories)
				r.Get("/memories/{memoryID}", h.Memory.GetMemory)
			}

			if h.Mastery != nil {
				r.Get("/topics", h.Mastery.ListTopics)
				r.Post("/topics/{topicID}", h.Mastery.InitializeTopic)
				r.Post("/topics/{topicID}/review", h.Mastery.GradeTopic)
				r.Get("/reviews/due", h.Mastery.DueTopics)
			}

			if h.Wellbeing != nil {
				r.Post("/emotions", h.Wellbeing.RecordEmotion)
				r.Get("/burnout", h.Wellbeing.Burnout)
				r.Get("/burnout/recommendation", h.Wellbeing.Recommendation)
			}

			if h.Quest != nil {
				r.Get("/quests/today", h.Quest.Today)
				r.Get("/quests/recent", h.Quest.Recent)
				r.Post("/quests/{questID}/progress", h.Quest.UpdateProgress)
				r.Post("/quests/{questID}/complete", h.Quest.Complete)
				r.Post("/quests/{questID}/skip", h.Quest.Skip)
				r.Get("/progress", h.Quest.Progress)
			}

			if h.Schedule != nil {
				r.Get("/schedule/delays", h.Schedule.Delays)
				r.Post("/schedule/auto", h.Schedule.AutoReschedule)
				r.Post("/schedule/options", h.Schedule.Options)
			}
		})
	})

	// Health check routes (not versioned)
	if h.Health != nil {
		r.Get("/health", h.Health.Health)
		r.Get("/ready", h.Health.Ready)
		r.Get("/status", h.Health.Status)
	}

	// Quest event stream
	if h.WebSocket != nil {
		r.Get("/ws/events", h.WebSocket.ServeHTTP)
	}
}
