// Package intent routes free-text student requests to specialized handlers
// and scores request complexity to pick a model tier. Classification is a
// pure function of the input text and the static pattern tables.
package intent

// Intent is a routable request category.
type Intent string

const (
	IntentQuestRequest     Intent = "quest_request"
	IntentScheduleChange   Intent = "schedule_change"
	IntentProgressCheck    Intent = "progress_check"
	IntentReviewRequest    Intent = "review_request"
	IntentEmotionalSupport Intent = "emotional_support"
	IntentExplainConcept   Intent = "explain_concept"
	IntentQuestion         Intent = "question" // default
)

// Handler names the specialized downstream handler for an intent.
type Handler string

const (
	HandlerQuestmaster Handler = "questmaster"
	HandlerScheduler   Handler = "scheduler"
	HandlerProgress    Handler = "progress"
	HandlerReviewer    Handler = "reviewer"
	HandlerCoach       Handler = "coach"
	HandlerTutor       Handler = "tutor"
)

// ModelTier selects the language-model capability class.
type ModelTier string

const (
	TierFast     ModelTier = "fast"
	TierBalanced ModelTier = "balanced"
	TierDeep     ModelTier = "deep"
)

// RouteDecision is the result of classifying a request.
type RouteDecision struct {
	TargetHandler Handler   `json:"targetHandler"`
	Intent        Intent    `json:"intent"`
	Confidence    float64   `json:"confidence"`
	Reasoning     string    `json:"reasoning"`
	Complexity    float64   `json:"complexity"`
	Model         ModelTier `json:"model"`
}
