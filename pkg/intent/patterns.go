package intent

// intentRule binds an intent to its trigger patterns and target handler.
// Rules are evaluated in declaration order; ties on match count resolve to
// the earlier rule.
type intentRule struct {
	intent   Intent
	handler  Handler
	patterns []string
}

// intentRules is the ordered routing table. Patterns are matched as
// case-insensitive substrings with single-word typo tolerance.
var intentRules = []intentRule{
	{
		intent:  IntentQuestRequest,
		handler: HandlerQuestmaster,
		patterns: []string{
			"quest", "task for today", "what should i do", "daily task",
			"give me something", "today's plan", "assignments",
		},
	},
	{
		intent:  IntentScheduleChange,
		handler: HandlerScheduler,
		patterns: []string{
			"reschedule", "postpone", "delay", "move my", "can't study",
			"skip today", "away for", "vacation", "behind schedule", "catch up",
		},
	},
	{
		intent:  IntentProgressCheck,
		handler: HandlerProgress,
		patterns: []string{
			"how am i doing", "progress", "streak", "xp", "stats",
			"how much have i", "mastery", "level",
		},
	},
	{
		intent:  IntentReviewRequest,
		handler: HandlerReviewer,
		patterns: []string{
			"review", "practice", "quiz me", "test me", "flashcard",
			"repeat", "due for review",
		},
	},
	{
		intent:  IntentEmotionalSupport,
		handler: HandlerCoach,
		patterns: []string{
			"tired", "frustrated", "burned out", "burnt out", "give up",
			"stressed", "overwhelmed", "anxious", "hate this", "too hard",
			"exhausted", "can't focus",
		},
	},
	{
		intent:  IntentExplainConcept,
		handler: HandlerTutor,
		patterns: []string{
			"explain", "what is", "what are", "how does", "why does",
			"difference between", "help me understand", "meaning of",
		},
	},
}

// complexityKeywords maps keywords to their complexity weight contribution.
var complexityKeywords = map[string]float64{
	"prove":        0.25,
	"derive":       0.25,
	"compare":      0.15,
	"analyze":      0.20,
	"analyse":      0.20,
	"evaluate":     0.20,
	"explain":      0.10,
	"why":          0.10,
	"how":          0.05,
	"difference":   0.15,
	"relate":       0.15,
	"design":       0.20,
	"optimize":     0.20,
	"trade-off":    0.20,
	"tradeoff":     0.20,
	"step by step": 0.15,
}
