package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

// QueryIntent is the retrieval-side intent taxonomy. It is distinct from
// the routing intents: it only decides which memory types get boosted.
type QueryIntent string

const (
	QueryRecallMistakes  QueryIntent = "recall_mistakes"
	QueryFindPatterns    QueryIntent = "find_patterns"
	QueryCheckProgress   QueryIntent = "check_progress"
	QueryReviewDecisions QueryIntent = "review_decisions"
	QueryGeneral         QueryIntent = "general"
)

// queryIntentRule binds a query intent to trigger patterns and the memory
// types it boosts. Evaluated in declaration order, most matches wins.
type queryIntentRule struct {
	intent   QueryIntent
	patterns []string
	boosts   []Type
}

var queryIntentRules = []queryIntentRule{
	{
		intent:   QueryRecallMistakes,
		patterns: []string{"mistake", "wrong", "error", "failed", "got incorrect", "messed up", "struggle"},
		boosts:   []Type{TypeWrongAnswer, TypeCorrection, TypeGap, TypeStruggle},
	},
	{
		intent:   QueryFindPatterns,
		patterns: []string{"pattern", "always", "tend to", "usually", "habit", "keeps happening"},
		boosts:   []Type{TypePattern, TypeReviewPattern, TypePreference},
	},
	{
		intent:   QueryCheckProgress,
		patterns: []string{"progress", "improve", "better at", "mastered", "how far", "level"},
		boosts:   []Type{TypeMastery, TypeLearning, TypePlanPerformance},
	},
	{
		intent:   QueryReviewDecisions,
		patterns: []string{"decided", "decision", "chose", "why did we", "strategy", "approach"},
		boosts:   []Type{TypeDecision, TypeStrategy, TypeInsight},
	},
}

// Weights are the six factor weights of the retrieval score. They are
// tuning knobs, adjustable at runtime.
type Weights struct {
	Semantic     float64
	Recency      float64
	Confidence   float64
	TypeBoost    float64
	SubjectMatch float64
	Urgency      float64
}

// DefaultWeights returns the standard factor weights.
func DefaultWeights() Weights {
	return Weights{
		Semantic:     0.45,
		Recency:      0.10,
		Confidence:   0.10,
		TypeBoost:    0.15,
		SubjectMatch: 0.10,
		Urgency:      0.10,
	}
}

// RetrieverConfig holds the non-weight retrieval knobs.
type RetrieverConfig struct {
	// MinScore filters results scoring below this value.
	MinScore float64
	// MaxResults caps the result count.
	MaxResults int
	// RecencyHorizon is the period over which the recency factor decays
	// linearly from 1 to 0.
	RecencyHorizon time.Duration
}

// DefaultRetrieverConfig returns the standard retrieval knobs.
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		MinScore:       0.3,
		MaxResults:     10,
		RecencyHorizon: 30 * 24 * time.Hour,
	}
}

// RetrieveParams is one re-ranking request over a candidate set.
type RetrieveParams struct {
	Query          string
	Candidates     []*LearningMemory
	SemanticScores map[string]float64 // memory id -> similarity from the vector search
	CurrentSubject string
	UrgentTopics   []string // topics currently due for review
	Now            time.Time
}

// Retriever re-ranks vector-search candidates with six weighted factors.
type Retriever struct {
	mu      sync.RWMutex
	weights Weights
	config  RetrieverConfig
}

// NewRetriever creates a retriever with the given weights and knobs.
func NewRetriever(weights Weights, cfg RetrieverConfig) *Retriever {
	return &Retriever{weights: weights, config: cfg}
}

// SetWeights replaces the factor weights at runtime.
func (r *Retriever) SetWeights(w Weights) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.weights = w
}

// Weights returns the current factor weights.
func (r *Retriever) Weights() Weights {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.weights
}

// Retrieve scores every candidate, filters to the minimum score, sorts
// descending, and caps the result count.
func (r *Retriever) Retrieve(params RetrieveParams) []RetrievedMemory {
	r.mu.RLock()
	w := r.weights
	cfg := r.config
	r.mu.RUnlock()

	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}

	queryIntent := DetectQueryIntent(params.Query)
	boosted := boostedTypes(queryIntent)
	urgent := lo.SliceToMap(params.UrgentTopics, func(t string) (string, struct{}) {
		return t, struct{}{}
	})

	results := make([]RetrievedMemory, 0, len(params.Candidates))
	for _, mem := range params.Candidates {
		factors := FactorScores{
			Semantic:   clamp01(params.SemanticScores[mem.ID]),
			Recency:    recencyScore(mem, now, cfg.RecencyHorizon),
			Confidence: clamp01(mem.Confidence),
		}
		if _, ok := boosted[mem.Type]; ok {
			factors.TypeBoost = 1
		}
		if params.CurrentSubject != "" && mem.Subject == params.CurrentSubject {
			factors.SubjectMatch = 1
		}
		if _, ok := urgent[mem.Topic]; ok {
			factors.Urgency = 1
		}

		score := w.Semantic*factors.Semantic +
			w.Recency*factors.Recency +
			w.Confidence*factors.Confidence +
			w.TypeBoost*factors.TypeBoost +
			w.SubjectMatch*factors.SubjectMatch +
			w.Urgency*factors.Urgency

		if score < cfg.MinScore {
			continue
		}
		results = append(results, RetrievedMemory{Memory: mem, Score: score, Factors: factors})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if cfg.MaxResults > 0 && len(results) > cfg.MaxResults {
		results = results[:cfg.MaxResults]
	}
	return results
}

// DetectQueryIntent classifies the retrieval query against the query-intent
// pattern table. Most pattern matches wins; ties resolve to the earlier
// rule; no match means general.
func DetectQueryIntent(query string) QueryIntent {
	lower := strings.ToLower(query)

	best := QueryGeneral
	bestMatches := 0
	for _, rule := range queryIntentRules {
		matches := lo.CountBy(rule.patterns, func(p string) bool {
			return strings.Contains(lower, p)
		})
		if matches > bestMatches {
			best = rule.intent
			bestMatches = matches
		}
	}
	return best
}

// boostedTypes returns the type set boosted by the query intent.
func boostedTypes(qi QueryIntent) map[Type]struct{} {
	for _, rule := range queryIntentRules {
		if rule.intent == qi {
			return lo.SliceToMap(rule.boosts, func(t Type) (Type, struct{}) {
				return t, struct{}{}
			})
		}
	}
	return nil
}

// recencyScore decays linearly from 1 (recalled now) to 0 at the horizon.
// Memories never recalled fall back to their creation time.
func recencyScore(mem *LearningMemory, now time.Time, horizon time.Duration) float64 {
	last := mem.LastRecalled
	if last.IsZero() {
		last = mem.CreatedAt
	}
	if last.IsZero() {
		return 0
	}
	age := now.Sub(last)
	if age < 0 {
		age = 0
	}
	score := 1 - age.Seconds()/horizon.Seconds()
	if score < 0 {
		return 0
	}
	return score
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
