package memory

import (
	"context"
	"sync"
	"time"

	"github.com/studyflow/studyflow/pkg/burnout"
	"github.com/studyflow/studyflow/pkg/srs"
)

// Context is the retrieval result handed to a conversation handler: the
// re-ranked memories plus the review pressure that shaped the ranking.
type Context struct {
	StudentID    string            `json:"studentId"`
	Query        string            `json:"query"`
	QueryIntent  QueryIntent       `json:"queryIntent"`
	Memories     []RetrievedMemory `json:"memories"`
	UrgentTopics []string          `json:"urgentTopics"`
	RetrievedAt  time.Time         `json:"retrievedAt"`
}

// Lane is the facade owning all memory, mastery and emotion state for a
// student. Conversation handlers read context through it and feed
// exchanges back into it; nothing else touches those buckets.
type Lane struct {
	store     *VectorStore
	retriever *Retriever
	extractor *Extractor
	mastery   *srs.Manager
	emotions  *burnout.Monitor
	logger    storeLogger

	// background extraction workers, drained on Close
	wg             sync.WaitGroup
	extractTimeout time.Duration
}

// NewLane wires the memory facade. A nil extractor disables background
// extraction; exchanges are then recorded only as emotion signals.
func NewLane(store *VectorStore, retriever *Retriever, extractor *Extractor, mastery *srs.Manager, emotions *burnout.Monitor, log storeLogger) *Lane {
	if log == nil {
		log = nopLogger{}
	}
	return &Lane{
		store:          store,
		retriever:      retriever,
		extractor:      extractor,
		mastery:        mastery,
		emotions:       emotions,
		logger:         log,
		extractTimeout: 30 * time.Second,
	}
}

// RetrieveContext searches the vector store, re-ranks candidates with the
// six-factor scorer, and marks the returned memories as recalled. Backend
// trouble degrades to an empty context rather than an error reaching the
// conversation layer.
func (l *Lane) RetrieveContext(ctx context.Context, studentID, query, currentSubject string) (*Context, error) {
	now := time.Now()
	result := &Context{
		StudentID:   studentID,
		Query:       query,
		QueryIntent: DetectQueryIntent(query),
		RetrievedAt: now,
	}

	urgent, err := l.mastery.GetTopicsDueForReview(ctx, studentID, currentSubject)
	if err != nil {
		l.logger.Warn("urgent topics unavailable for retrieval", "student_id", studentID, "error", err)
	}
	for _, tm := range urgent {
		result.UrgentTopics = append(result.UrgentTopics, tm.TopicID)
	}

	scored, err := l.store.SearchSimilar(ctx, SearchRequest{
		StudentID: studentID,
		Query:     query,
		TopK:      l.retriever.config.MaxResults * 2,
	})
	if err != nil {
		l.logger.Warn("memory search degraded to empty context", "student_id", studentID, "error", err)
		return result, nil
	}

	candidates := make([]*LearningMemory, len(scored))
	semantic := make(map[string]float64, len(scored))
	for i, sm := range scored {
		candidates[i] = sm.Memory
		semantic[sm.Memory.ID] = sm.Similarity
	}

	result.Memories = l.retriever.Retrieve(RetrieveParams{
		Query:          query,
		Candidates:     candidates,
		SemanticScores: semantic,
		CurrentSubject: currentSubject,
		UrgentTopics:   result.UrgentTopics,
		Now:            now,
	})

	l.touchRecalled(ctx, studentID, result.Memories, now)
	return result, nil
}

// touchRecalled bumps recall counters on the served memories. Best effort.
func (l *Lane) touchRecalled(ctx context.Context, studentID string, served []RetrievedMemory, now time.Time) {
	for _, rm := range served {
		rm.Memory.RecallCount++
		rm.Memory.LastRecalled = now
		if err := l.store.Update(ctx, studentID, rm.Memory); err != nil {
			l.logger.Warn("recall bookkeeping failed", "student_id", studentID, "memory_id", rm.Memory.ID, "error", err)
		}
	}
}

// RecordExchange feeds one conversation turn back into the lane: the
// emotion is recorded synchronously, memory extraction runs in the
// background so the reply is never blocked on the model.
func (l *Lane) RecordExchange(ctx context.Context, studentID, userMessage, reply string, emotion burnout.Emotion) error {
	if emotion != "" {
		if err := l.emotions.RecordEmotion(ctx, studentID, emotion); err != nil {
			return err
		}
	}
	if l.extractor == nil {
		return nil
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		bgCtx, cancel := context.WithTimeout(context.Background(), l.extractTimeout)
		defer cancel()

		memories := l.extractor.Extract(bgCtx, studentID, userMessage, reply)
		if len(memories) == 0 {
			return
		}
		if err := l.store.StoreBatch(bgCtx, studentID, memories); err != nil {
			l.logger.Error("storing extracted memories failed", "student_id", studentID, "count", len(memories), "error", err)
			return
		}
		l.logger.Debug("exchange yielded memories", "student_id", studentID, "count", len(memories))
	}()
	return nil
}

// Feedback applies a helpfulness signal to a memory: counters always
// move, confidence drifts up slowly on praise and down faster on
// complaints so bad memories fade from retrieval. Unknown ids are a nil
// result, not an error.
func (l *Lane) Feedback(ctx context.Context, studentID, memoryID string, helpful bool) (*LearningMemory, error) {
	mem, err := l.store.Get(ctx, studentID, memoryID)
	if err != nil {
		return nil, err
	}
	if mem == nil {
		return nil, nil
	}

	if helpful {
		mem.PositiveFeedback++
		mem.Confidence += 0.05
		if mem.Confidence > 1 {
			mem.Confidence = 1
		}
	} else {
		mem.NegativeFeedback++
		mem.Confidence -= 0.1
		if mem.Confidence < 0.05 {
			mem.Confidence = 0.05
		}
	}

	if err := l.store.Update(ctx, studentID, mem); err != nil {
		return nil, err
	}
	return mem, nil
}

// EraseStudent removes every memory held for a student. Mastery history
// and quest state live in other buckets and are erased by their owners.
func (l *Lane) EraseStudent(ctx context.Context, studentID string) (int, error) {
	return l.store.DeleteAll(ctx, studentID)
}

// Close waits for in-flight background extractions to finish.
func (l *Lane) Close() {
	l.wg.Wait()
}
