package learning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	engine, err := NewEngine(NewMemoryStore(), opts...)
	require.NoError(t, err)
	return engine
}

func TestNewEngineRequiresStore(t *testing.T) {
	_, err := NewEngine(nil)
	require.Error(t, err)
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	var sum float64
	for _, w := range DefaultWeights() {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestScoreBounds(t *testing.T) {
	engine := newTestEngine(t)

	assert.Equal(t, 0.0, engine.Score(nil))
	assert.Equal(t, 0.0, engine.Score(map[string]float64{}))

	full := engine.Score(map[string]float64{
		SignalHeaderMatch:     1,
		SignalColumnAlignment: 1,
	})
	assert.InDelta(t, 1.0, full, 1e-9)

	// Out-of-range signal strengths are clamped, not amplified.
	over := engine.Score(map[string]float64{SignalHeaderMatch: 5})
	assert.LessOrEqual(t, over, 1.0)

	mixed := engine.Score(map[string]float64{
		SignalHeaderMatch:     1,
		SignalColumnAlignment: 0,
	})
	assert.Greater(t, mixed, 0.0)
	assert.Less(t, mixed, 1.0)
}

func TestScoreUnknownSignalUsesPriorWeight(t *testing.T) {
	engine := newTestEngine(t)

	score := engine.Score(map[string]float64{"made_up_signal": 1})
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestRecordFeedbackValidation(t *testing.T) {
	engine := newTestEngine(t)

	assert.Error(t, engine.RecordFeedback("", VerdictCorrect))
	assert.Error(t, engine.RecordFeedback("key", Verdict("maybe")))
}

func TestNeedsReviewStrictlyDecreasesActiveWeights(t *testing.T) {
	engine := newTestEngine(t)

	signals := map[string]float64{SignalHeaderMatch: 1, SignalColumnAlignment: 0.5}
	engine.ScoreItem("item-1", signals)

	prev := engine.Stats().Weights[SignalHeaderMatch]
	for i := 0; i < 10; i++ {
		require.NoError(t, engine.RecordFeedback("item-1", VerdictNeedsReview))

		stats := engine.Stats()
		w := stats.Weights[SignalHeaderMatch]
		assert.Less(t, w, prev, "weight must strictly decrease on every negative verdict")
		assert.Greater(t, w, 0.0, "weights must stay positive")
		prev = w

		var sum float64
		for _, v := range stats.Weights {
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "total weight mass must be conserved")
	}
}

func TestCorrectVerdictIncreasesActiveWeights(t *testing.T) {
	engine := newTestEngine(t)

	engine.ScoreItem("item-1", map[string]float64{SignalLexicalKeyword: 1})
	before := engine.Stats().Weights[SignalLexicalKeyword]

	require.NoError(t, engine.RecordFeedback("item-1", VerdictCorrect))

	after := engine.Stats().Weights[SignalLexicalKeyword]
	assert.Greater(t, after, before)
}

func TestFeedbackForUnknownKeyLeavesWeightsUntouched(t *testing.T) {
	store := NewMemoryStore()
	engine, err := NewEngine(store)
	require.NoError(t, err)

	before := engine.Stats().Weights

	require.NoError(t, engine.RecordFeedback("never-scored", VerdictNeedsReview))

	assert.Equal(t, before, engine.Stats().Weights)

	// The event is still part of the audit trail.
	events, err := store.Events()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "never-scored", events[0].ItemKey)
	assert.Empty(t, events[0].Signals)
}

func TestScoreContextCacheIsBounded(t *testing.T) {
	engine := newTestEngine(t, WithContextLimit(2))

	signals := map[string]float64{SignalHeaderMatch: 1}
	engine.ScoreItem("a", signals)
	engine.ScoreItem("b", signals)
	engine.ScoreItem("c", signals) // evicts "a"

	before := engine.Stats().Weights
	require.NoError(t, engine.RecordFeedback("a", VerdictNeedsReview))
	assert.Equal(t, before, engine.Stats().Weights, "evicted key has no signal context left")

	require.NoError(t, engine.RecordFeedback("c", VerdictNeedsReview))
	assert.Less(t, engine.Stats().Weights[SignalHeaderMatch], before[SignalHeaderMatch])
}

func TestStatsCountsVerdicts(t *testing.T) {
	engine := newTestEngine(t)
	engine.ScoreItem("a", map[string]float64{SignalHeaderMatch: 1})
	engine.ScoreItem("b", map[string]float64{SignalHeaderMatch: 1})

	require.NoError(t, engine.RecordFeedback("a", VerdictCorrect))
	require.NoError(t, engine.RecordFeedback("b", VerdictNeedsReview))
	require.NoError(t, engine.RecordFeedback("a", VerdictCorrect))

	stats := engine.Stats()
	assert.Equal(t, 3, stats.Count)
	assert.InDelta(t, 2.0/3.0, stats.CorrectRatio, 1e-9)
}

func TestReplayReconstructsWeights(t *testing.T) {
	store := NewMemoryStore()

	engine, err := NewEngine(store)
	require.NoError(t, err)
	engine.ScoreItem("item-1", map[string]float64{SignalHeaderMatch: 1})
	for i := 0; i < 5; i++ {
		require.NoError(t, engine.RecordFeedback("item-1", VerdictNeedsReview))
	}
	want := engine.Stats()

	// A fresh engine over the same store must replay to identical state.
	replayed, err := NewEngine(store)
	require.NoError(t, err)
	got := replayed.Stats()

	assert.Equal(t, want.Count, got.Count)
	for name, w := range want.Weights {
		assert.InDelta(t, w, got.Weights[name], 1e-12, "weight %s diverged after replay", name)
	}
}

func TestSnapshotSkipsCoveredEvents(t *testing.T) {
	store := NewMemoryStore()

	engine, err := NewEngine(store, WithSnapshotEvery(2))
	require.NoError(t, err)
	engine.ScoreItem("item-1", map[string]float64{SignalHeaderMatch: 1})
	for i := 0; i < 4; i++ {
		require.NoError(t, engine.RecordFeedback("item-1", VerdictCorrect))
	}

	snap, err := store.LoadSnapshot()
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 4, snap.EventCount)

	restored, err := NewEngine(store, WithSnapshotEvery(2))
	require.NoError(t, err)
	assert.Equal(t, engine.Stats(), restored.Stats())
}
