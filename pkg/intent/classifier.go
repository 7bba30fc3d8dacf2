package intent

import (
	"fmt"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Thresholds are the complexity cut-offs between model tiers. They are
// tuning knobs and may be swapped at runtime via SetThresholds.
type Thresholds struct {
	// Balanced is the complexity at which the balanced tier starts.
	Balanced float64
	// Deep is the complexity at which the deep tier starts.
	Deep float64
}

// DefaultThresholds returns the standard tier cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{Balanced: 0.3, Deep: 0.6}
}

// Classifier classifies request text against the static pattern tables.
// It holds no per-student state.
type Classifier struct {
	mu         sync.RWMutex
	thresholds Thresholds
}

// NewClassifier creates a classifier with the given tier thresholds.
func NewClassifier(thresholds Thresholds) *Classifier {
	return &Classifier{thresholds: thresholds}
}

// SetThresholds replaces the tier thresholds at runtime.
func (c *Classifier) SetThresholds(t Thresholds) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.thresholds = t
}

// Classify scans the routing table and returns the best route for the text.
// The intent with the most pattern matches wins; ties resolve to the rule
// declared first; no matches fall through to the generic question intent.
func (c *Classifier) Classify(text string) RouteDecision {
	lower := strings.ToLower(text)

	bestIdx := -1
	bestMatches := 0
	var bestPatterns []string

	for i, rule := range intentRules {
		matches := 0
		var matched []string
		for _, p := range rule.patterns {
			if matchPattern(lower, p) {
				matches++
				matched = append(matched, p)
			}
		}
		if matches > bestMatches {
			bestIdx = i
			bestMatches = matches
			bestPatterns = matched
		}
	}

	complexity := c.CalculateComplexity(text)

	if bestIdx < 0 {
		return RouteDecision{
			TargetHandler: HandlerTutor,
			Intent:        IntentQuestion,
			Confidence:    0.3,
			Reasoning:     "no routing pattern matched; defaulting to general question handling",
			Complexity:    complexity,
			Model:         c.SelectModel(complexity),
		}
	}

	rule := intentRules[bestIdx]
	confidence := 0.5 + 0.15*float64(bestMatches)
	if confidence > 0.95 {
		confidence = 0.95
	}

	return RouteDecision{
		TargetHandler: rule.handler,
		Intent:        rule.intent,
		Confidence:    confidence,
		Reasoning: fmt.Sprintf("matched %d pattern(s) for %s: %s",
			bestMatches, rule.intent, strings.Join(bestPatterns, ", ")),
		Complexity: complexity,
		Model:      c.SelectModel(complexity),
	}
}

// CalculateComplexity scores the text into [0,1]: keyword weights plus
// length bonuses (+0.1 past 100 chars, +0.1 past 200) plus +0.05 per
// question mark, clamped to 1.
func (c *Classifier) CalculateComplexity(text string) float64 {
	lower := strings.ToLower(text)

	score := 0.0
	for keyword, weight := range complexityKeywords {
		if strings.Contains(lower, keyword) {
			score += weight
		}
	}

	if len(text) > 100 {
		score += 0.1
	}
	if len(text) > 200 {
		score += 0.1
	}

	score += 0.05 * float64(strings.Count(text, "?"))

	if score > 1 {
		score = 1
	}
	return score
}

// SelectModel maps a complexity score to a model tier.
func (c *Classifier) SelectModel(complexity float64) ModelTier {
	c.mu.RLock()
	t := c.thresholds
	c.mu.RUnlock()

	switch {
	case complexity >= t.Deep:
		return TierDeep
	case complexity >= t.Balanced:
		return TierBalanced
	default:
		return TierFast
	}
}

// matchPattern reports whether the pattern occurs in the text. Multi-word
// patterns match as plain substrings; single words additionally tolerate
// small typos via fuzzy matching against the text's tokens.
func matchPattern(lowerText, pattern string) bool {
	if strings.Contains(lowerText, pattern) {
		return true
	}
	if strings.ContainsRune(pattern, ' ') {
		return false
	}

	for _, token := range strings.FieldsFunc(lowerText, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '?'
	}) {
		// Rank bounds the edit distance so unrelated words don't match.
		if rank := fuzzy.RankMatchNormalizedFold(pattern, token); rank >= 0 && rank <= 1 {
			return true
		}
	}
	return false
}
