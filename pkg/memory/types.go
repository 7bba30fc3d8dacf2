// Package memory implements the learning-memory subsystem: vector-backed
// storage of observed learning facts, multi-factor retrieval re-ranking,
// and the MemoryLane facade that agents consume.
package memory

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the memory subsystem.
var (
	ErrInvalidStudentID   = errors.New("memory: invalid student ID")
	ErrInvalidQuery       = errors.New("memory: invalid query")
	ErrDimensionMismatch  = errors.New("memory: vector dimension mismatch")
	ErrBackendUnavailable = errors.New("memory: vector backend unavailable")
)

// Type categorizes one learning memory.
type Type string

const (
	TypeCorrection      Type = "correction"
	TypeDecision        Type = "decision"
	TypeInsight         Type = "insight"
	TypePattern         Type = "pattern"
	TypeGap             Type = "gap"
	TypeLearning        Type = "learning"
	TypeMastery         Type = "mastery"
	TypeStruggle        Type = "struggle"
	TypeWrongAnswer     Type = "wrong_answer"
	TypeStrategy        Type = "strategy"
	TypePreference      Type = "preference"
	TypeEmotion         Type = "emotion"
	TypePlanPerformance Type = "plan_performance"
	TypeReviewPattern   Type = "review_pattern"
)

// AllTypes lists every memory category.
var AllTypes = []Type{
	TypeCorrection, TypeDecision, TypeInsight, TypePattern, TypeGap,
	TypeLearning, TypeMastery, TypeStruggle, TypeWrongAnswer, TypeStrategy,
	TypePreference, TypeEmotion, TypePlanPerformance, TypeReviewPattern,
}

// LearningMemory is one observed fact about a student's learning. It is
// created by extraction from a conversation, mutated on recall and on
// feedback, and only ever deleted by bulk student-data erasure.
type LearningMemory struct {
	ID                string    `json:"id"`
	StudentID         string    `json:"studentId"`
	Type              Type      `json:"type"`
	Subject           string    `json:"subject"`
	Topic             string    `json:"topic"`
	Title             string    `json:"title"`
	Content           string    `json:"content"`
	Confidence        float64   `json:"confidence"`   // [0,1]
	Difficulty        int       `json:"difficulty"`   // [1,5]
	MasteryScore      float64   `json:"masteryScore"` // [0,10]
	TimesObserved     int       `json:"timesObserved"`
	RecallCount       int       `json:"recallCount"`
	PositiveFeedback  int       `json:"positiveFeedback"`
	NegativeFeedback  int       `json:"negativeFeedback"`
	CreatedAt         time.Time `json:"createdAt"`
	LastRecalled      time.Time `json:"lastRecalled"`
	EmotionAtCreation string    `json:"emotionAtCreation,omitempty"`
}

// EmbeddingText concatenates the structural tags with the content so that
// type, title, subject and topic influence retrieval.
func (m *LearningMemory) EmbeddingText() string {
	return fmt.Sprintf("[%s] %s | %s / %s | %s", m.Type, m.Title, m.Subject, m.Topic, m.Content)
}

// ScoredMemory pairs a memory with its raw similarity from the vector search.
type ScoredMemory struct {
	Memory     *LearningMemory `json:"memory"`
	Similarity float64         `json:"similarity"`
}

// RetrievedMemory is a re-ranked retrieval result with its factor breakdown.
type RetrievedMemory struct {
	Memory  *LearningMemory `json:"memory"`
	Score   float64         `json:"score"`
	Factors FactorScores    `json:"factors"`
}

// FactorScores holds the six weighted components of a retrieval score.
type FactorScores struct {
	Semantic     float64 `json:"semantic"`
	Recency      float64 `json:"recency"`
	Confidence   float64 `json:"confidence"`
	TypeBoost    float64 `json:"typeBoost"`
	SubjectMatch float64 `json:"subjectMatch"`
	Urgency      float64 `json:"urgency"`
}

// SearchFilters narrow a similarity search by structural tags.
type SearchFilters struct {
	Type    Type   `json:"type,omitempty"`
	Subject string `json:"subject,omitempty"`
	Topic   string `json:"topic,omitempty"`
}

// Matches reports whether a memory satisfies every set filter.
func (f SearchFilters) Matches(m *LearningMemory) bool {
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	if f.Subject != "" && m.Subject != f.Subject {
		return false
	}
	if f.Topic != "" && m.Topic != f.Topic {
		return false
	}
	return true
}

// SearchRequest is a similarity-search request against the vector store.
type SearchRequest struct {
	StudentID string        `json:"studentId"`
	Query     string        `json:"query"`
	TopK      int           `json:"topK"`
	Filters   SearchFilters `json:"filters"`
}
