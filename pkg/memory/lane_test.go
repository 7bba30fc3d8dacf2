package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyflow/studyflow/pkg/burnout"
	"github.com/studyflow/studyflow/pkg/srs"
	memstore "github.com/studyflow/studyflow/pkg/storage/memory"
)

func newTestLane(t *testing.T, completer scriptedCompleter) (*Lane, *VectorStore, *burnout.Monitor) {
	t.Helper()
	repo := memstore.NewMemoryRepository()
	store := NewVectorStore(repo, testDimension)
	retriever := NewRetriever(DefaultWeights(), DefaultRetrieverConfig())
	extractor := NewExtractor(completer, 0.5, nil)
	mastery := srs.NewManager(repo, srs.Config{})
	emotions := burnout.NewMonitor(repo, 7, burnout.DefaultThresholds())
	return NewLane(store, retriever, extractor, mastery, emotions, nil), store, emotions
}

func TestRetrieveContext(t *testing.T) {
	lane, store, _ := newTestLane(t, scriptedCompleter{response: "[]"})
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "s1", &LearningMemory{
		ID:         "m1",
		StudentID:  "s1",
		Type:       TypeStruggle,
		Subject:    "math",
		Topic:      "fractions",
		Title:      "fraction division",
		Content:    "struggles with dividing fractions",
		Confidence: 0.9,
		CreatedAt:  time.Now(),
	}))

	result, err := lane.RetrieveContext(ctx, "s1", "what do I struggle with in fractions", "math")
	require.NoError(t, err)
	assert.Equal(t, "s1", result.StudentID)
	assert.Equal(t, QueryRecallMistakes, result.QueryIntent)
	require.NotEmpty(t, result.Memories)
	assert.Equal(t, "m1", result.Memories[0].Memory.ID)
	assert.False(t, result.RetrievedAt.IsZero())

	// Serving a memory bumps its recall bookkeeping.
	got, err := store.Get(ctx, "s1", "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.RecallCount)
	assert.False(t, got.LastRecalled.IsZero())
}

func TestRetrieveContext_NoMemoriesYieldsEmptyContext(t *testing.T) {
	lane, _, _ := newTestLane(t, scriptedCompleter{response: "[]"})

	result, err := lane.RetrieveContext(context.Background(), "new-student", "help me with algebra", "math")
	require.NoError(t, err)
	assert.Empty(t, result.Memories)
	assert.Equal(t, "new-student", result.StudentID)
}

func TestRecordExchange_RecordsEmotion(t *testing.T) {
	lane, _, emotions := newTestLane(t, scriptedCompleter{response: "[]"})
	ctx := context.Background()

	require.NoError(t, lane.RecordExchange(ctx, "s1", "this is impossible", "let's slow down", burnout.EmotionFrustrated))
	lane.Close()

	indicator, err := emotions.AssessBurnout(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, indicator.RecentEmotions, 1)
	assert.Equal(t, burnout.EmotionFrustrated, indicator.RecentEmotions[0].Emotion)
}

func TestRecordExchange_ExtractsMemoriesInBackground(t *testing.T) {
	lane, store, _ := newTestLane(t, scriptedCompleter{response: `[
		{"type": "struggle", "subject": "math", "topic": "fractions",
		 "content": "struggles with fraction division", "confidence": 0.9, "difficulty": 3}
	]`})
	ctx := context.Background()

	require.NoError(t, lane.RecordExchange(ctx, "s1", "I keep failing fraction division", "invert the divisor", burnout.EmotionNeutral))
	lane.Close()

	all, err := store.GetAll(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "struggles with fraction division", all[0].Content)
}

func TestFeedback(t *testing.T) {
	lane, store, _ := newTestLane(t, scriptedCompleter{response: "[]"})
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "s1", &LearningMemory{
		ID: "m1", StudentID: "s1", Confidence: 0.5, CreatedAt: time.Now(),
	}))

	mem, err := lane.Feedback(ctx, "s1", "m1", true)
	require.NoError(t, err)
	assert.Equal(t, 1, mem.PositiveFeedback)
	assert.InDelta(t, 0.55, mem.Confidence, 1e-9)

	mem, err = lane.Feedback(ctx, "s1", "m1", false)
	require.NoError(t, err)
	assert.Equal(t, 1, mem.NegativeFeedback)
	assert.InDelta(t, 0.45, mem.Confidence, 1e-9)
}

func TestFeedback_ConfidenceBounds(t *testing.T) {
	lane, store, _ := newTestLane(t, scriptedCompleter{response: "[]"})
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "s1", &LearningMemory{
		ID: "high", StudentID: "s1", Confidence: 0.98, CreatedAt: time.Now(),
	}))
	require.NoError(t, store.Store(ctx, "s1", &LearningMemory{
		ID: "low", StudentID: "s1", Confidence: 0.1, CreatedAt: time.Now(),
	}))

	mem, err := lane.Feedback(ctx, "s1", "high", true)
	require.NoError(t, err)
	assert.Equal(t, 1.0, mem.Confidence)

	mem, err = lane.Feedback(ctx, "s1", "low", false)
	require.NoError(t, err)
	assert.Equal(t, 0.05, mem.Confidence)
}

func TestFeedback_UnknownMemory(t *testing.T) {
	lane, _, _ := newTestLane(t, scriptedCompleter{response: "[]"})

	mem, err := lane.Feedback(context.Background(), "s1", "ghost", true)
	require.NoError(t, err)
	assert.Nil(t, mem)
}

func TestLaneEraseStudent(t *testing.T) {
	lane, store, _ := newTestLane(t, scriptedCompleter{response: "[]"})
	ctx := context.Background()

	require.NoError(t, store.StoreBatch(ctx, "s1", []*LearningMemory{
		{ID: "a", StudentID: "s1"},
		{ID: "b", StudentID: "s1"},
	}))

	count, err := lane.EraseStudent(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
