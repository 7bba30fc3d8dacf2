package burnout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memstore "github.com/studyflow/studyflow/pkg/storage/memory"
)

func newTestMonitor(t *testing.T) *Monitor {
	t.Helper()
	return NewMonitor(memstore.NewMemoryRepository(), 7, DefaultThresholds())
}

func record(t *testing.T, m *Monitor, studentID string, emotions ...Emotion) {
	t.Helper()
	ctx := context.Background()
	for _, e := range emotions {
		require.NoError(t, m.RecordEmotion(ctx, studentID, e))
	}
}

func TestAssessBurnout_EmptyWindow(t *testing.T) {
	m := newTestMonitor(t)

	ind, err := m.AssessBurnout(context.Background(), "s1")
	require.NoError(t, err)

	assert.Equal(t, LevelLow, ind.Level)
	assert.Zero(t, ind.Score)
	assert.Empty(t, ind.RecentEmotions)
	assert.Empty(t, ind.WarningSignals)
	assert.NotEmpty(t, ind.CopingStrategies)
}

func TestAssessBurnout_AllFrustrated(t *testing.T) {
	m := newTestMonitor(t)

	// FRUSTRATED carries full weight, so a window of nothing else
	// saturates the score at 1.0 and every warning signal fires.
	record(t, m, "s1",
		EmotionFrustrated, EmotionFrustrated, EmotionFrustrated,
		EmotionFrustrated, EmotionFrustrated, EmotionFrustrated,
		EmotionFrustrated)

	ind, err := m.AssessBurnout(context.Background(), "s1")
	require.NoError(t, err)

	assert.InDelta(t, 1.0, ind.Score, 1e-9)
	assert.Equal(t, LevelHigh, ind.Level)
	assert.Contains(t, ind.WarningSignals, SignalConsecutiveNegative)
	assert.Contains(t, ind.WarningSignals, SignalNoPositiveEmotion)
	assert.Len(t, ind.RecentEmotions, 7)
}

func TestAssessBurnout_AllMotivated(t *testing.T) {
	m := newTestMonitor(t)

	record(t, m, "s1",
		EmotionMotivated, EmotionMotivated, EmotionMotivated,
		EmotionMotivated, EmotionMotivated)

	ind, err := m.AssessBurnout(context.Background(), "s1")
	require.NoError(t, err)

	assert.InDelta(t, 0.0, ind.Score, 1e-9)
	assert.Equal(t, LevelLow, ind.Level)
	assert.Empty(t, ind.WarningSignals)
}

func TestAssessBurnout_NeutralMidpoint(t *testing.T) {
	m := newTestMonitor(t)

	record(t, m, "s1", EmotionNeutral, EmotionNeutral, EmotionNeutral)

	ind, err := m.AssessBurnout(context.Background(), "s1")
	require.NoError(t, err)

	assert.InDelta(t, 0.5, ind.Score, 1e-9)
	assert.Equal(t, LevelMedium, ind.Level)
}

func TestAssessBurnout_RecencyWeighting(t *testing.T) {
	m := newTestMonitor(t)
	ctx := context.Background()

	// Same emotions, opposite order: recent frustration must score
	// higher than old frustration followed by recovery.
	record(t, m, "recovering", EmotionFrustrated, EmotionFrustrated, EmotionMotivated, EmotionMotivated)
	record(t, m, "declining", EmotionMotivated, EmotionMotivated, EmotionFrustrated, EmotionFrustrated)

	recovering, err := m.AssessBurnout(ctx, "recovering")
	require.NoError(t, err)
	declining, err := m.AssessBurnout(ctx, "declining")
	require.NoError(t, err)

	assert.Greater(t, declining.Score, recovering.Score)
}

func TestWarningSignals_FrequentFatigue(t *testing.T) {
	m := newTestMonitor(t)

	record(t, m, "s1",
		EmotionTired, EmotionHappy, EmotionExhausted, EmotionHappy,
		EmotionTired, EmotionHappy, EmotionTired)

	ind, err := m.AssessBurnout(context.Background(), "s1")
	require.NoError(t, err)

	assert.Contains(t, ind.WarningSignals, SignalFrequentFatigue)
	assert.NotContains(t, ind.WarningSignals, SignalConsecutiveNegative)
	assert.NotContains(t, ind.WarningSignals, SignalNoPositiveEmotion)
}

func TestWarningSignals_NoPositiveRequiresSevenEntries(t *testing.T) {
	m := newTestMonitor(t)

	// Six entries without a positive emotion is not enough evidence.
	record(t, m, "s1",
		EmotionNeutral, EmotionNeutral, EmotionNeutral,
		EmotionNeutral, EmotionNeutral, EmotionNeutral)

	ind, err := m.AssessBurnout(context.Background(), "s1")
	require.NoError(t, err)
	assert.NotContains(t, ind.WarningSignals, SignalNoPositiveEmotion)

	record(t, m, "s1", EmotionNeutral)
	ind, err = m.AssessBurnout(context.Background(), "s1")
	require.NoError(t, err)
	assert.Contains(t, ind.WarningSignals, SignalNoPositiveEmotion)
}

func TestRecordEmotion_PrunesOldEntries(t *testing.T) {
	m := newTestMonitor(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.SetClock(func() time.Time { return base })
	record(t, m, "s1", EmotionFrustrated, EmotionFrustrated)

	// Ten days later the old entries fall out of the 7-day window.
	m.SetClock(func() time.Time { return base.AddDate(0, 0, 10) })
	record(t, m, "s1", EmotionHappy)

	ind, err := m.AssessBurnout(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, ind.RecentEmotions, 1)
	assert.Equal(t, EmotionHappy, ind.RecentEmotions[0].Emotion)
}

func TestShouldContinueStudying(t *testing.T) {
	tests := []struct {
		name     string
		emotions []Emotion
		want     Recommendation
	}{
		{
			name:     "empty window continues",
			emotions: nil,
			want:     RecommendContinue,
		},
		{
			name:     "positive window continues",
			emotions: []Emotion{EmotionMotivated, EmotionHappy, EmotionCalm},
			want:     RecommendContinue,
		},
		{
			name:     "mixed window takes a break",
			emotions: []Emotion{EmotionNeutral, EmotionConfused, EmotionNeutral},
			want:     RecommendTakeBreak,
		},
		{
			name:     "saturated frustration stops the day",
			emotions: []Emotion{EmotionFrustrated, EmotionExhausted, EmotionFrustrated, EmotionAnxious},
			want:     RecommendStopToday,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMonitor(t)
			record(t, m, "s1", tt.emotions...)

			got, err := m.ShouldContinueStudying(context.Background(), "s1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetThresholds(t *testing.T) {
	m := newTestMonitor(t)

	record(t, m, "s1", EmotionNeutral, EmotionNeutral)

	ind, err := m.AssessBurnout(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, LevelMedium, ind.Level)

	// Raising the cutoffs reclassifies the same window as LOW.
	m.SetThresholds(Thresholds{Medium: 0.6, High: 0.9})

	ind, err = m.AssessBurnout(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, LevelLow, ind.Level)
}
