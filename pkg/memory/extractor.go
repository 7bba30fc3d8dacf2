package memory

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/studyflow/studyflow/pkg/llm"
)

const extractionSystemPrompt = `You extract durable facts about a student's learning from a tutoring exchange.
Return a JSON array. Each element:
{"type": one of [correction, decision, insight, pattern, gap, learning, mastery, struggle, wrong_answer, strategy, preference, emotion, plan_performance, review_pattern],
 "subject": string, "topic": string, "title": short string, "content": string,
 "confidence": number in [0,1], "difficulty": integer in [1,5], "emotion": optional string}
Only include facts worth remembering across sessions. Return [] when there are none.`

// Extractor turns a conversation exchange into LearningMemory candidates
// via the model capability. Extraction is best effort: when the model is
// unavailable or returns garbage, the exchange simply yields no memories.
type Extractor struct {
	completer     llm.Completer
	minConfidence float64
	logger        storeLogger
}

// NewExtractor creates an extractor. Candidates below minConfidence are
// discarded rather than stored as low-confidence records.
func NewExtractor(completer llm.Completer, minConfidence float64, log storeLogger) *Extractor {
	if log == nil {
		log = nopLogger{}
	}
	return &Extractor{
		completer:     completer,
		minConfidence: minConfidence,
		logger:        log,
	}
}

// extractedFact is the model's JSON shape for one candidate.
type extractedFact struct {
	Type       string  `json:"type"`
	Subject    string  `json:"subject"`
	Topic      string  `json:"topic"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
	Difficulty int     `json:"difficulty"`
	Emotion    string  `json:"emotion,omitempty"`
}

// Extract asks the model for memory candidates from one exchange and
// returns those passing the confidence gate. It never returns an error:
// the degraded result is an empty slice.
func (e *Extractor) Extract(ctx context.Context, studentID, userMessage, reply string) []*LearningMemory {
	prompt := "Student said:\n" + userMessage + "\n\nTutor replied:\n" + reply

	raw, err := e.completer.Complete(ctx, extractionSystemPrompt, prompt, llm.Options{
		Temperature: 0.2,
	})
	if err != nil {
		e.logger.Debug("memory extraction skipped", "student_id", studentID, "error", err)
		return nil
	}

	facts, err := parseExtraction(raw)
	if err != nil {
		e.logger.Warn("memory extraction returned unparseable output", "student_id", studentID, "error", err)
		return nil
	}

	now := time.Now()
	memories := make([]*LearningMemory, 0, len(facts))
	for _, f := range facts {
		if f.Confidence < e.minConfidence {
			continue
		}
		if !validType(f.Type) || f.Content == "" {
			continue
		}
		difficulty := f.Difficulty
		if difficulty < 1 {
			difficulty = 1
		}
		if difficulty > 5 {
			difficulty = 5
		}
		memories = append(memories, &LearningMemory{
			ID:                uuid.New().String(),
			StudentID:         studentID,
			Type:              Type(f.Type),
			Subject:           f.Subject,
			Topic:             f.Topic,
			Title:             f.Title,
			Content:           f.Content,
			Confidence:        f.Confidence,
			Difficulty:        difficulty,
			TimesObserved:     1,
			CreatedAt:         now,
			EmotionAtCreation: f.Emotion,
		})
	}
	return memories
}

// parseExtraction tolerates models that wrap JSON in a code fence.
func parseExtraction(raw string) ([]extractedFact, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var facts []extractedFact
	if err := json.Unmarshal([]byte(trimmed), &facts); err != nil {
		return nil, err
	}
	return facts, nil
}

func validType(t string) bool {
	for _, known := range AllTypes {
		if string(known) == t {
			return true
		}
	}
	return false
}
