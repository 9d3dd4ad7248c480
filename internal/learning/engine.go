package learning

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Verdict is a user judgement on one extracted item.
type Verdict string

const (
	VerdictCorrect     Verdict = "correct"
	VerdictNeedsReview Verdict = "needs_review"
)

// Valid reports whether the verdict is one of the two accepted values.
func (v Verdict) Valid() bool {
	return v == VerdictCorrect || v == VerdictNeedsReview
}

const (
	// DefaultLearningRate bounds how far one feedback event can move the
	// weight mass of the signals it touches.
	DefaultLearningRate = 0.05

	// DefaultSnapshotEvery is how many events pass between snapshots.
	DefaultSnapshotEvery = 50

	// DefaultContextLimit caps how many scored items keep their signal
	// context in memory awaiting feedback.
	DefaultContextLimit = 4096

	// Weight assigned to a signal the engine has never seen before.
	unknownSignalWeight = 0.05
)

// Stats is a read-only summary of the persisted feedback state.
type Stats struct {
	Count        int                `json:"count"`
	CorrectRatio float64            `json:"correct_ratio"`
	Weights      map[string]float64 `json:"weights"`
	Support      map[string]int     `json:"support,omitempty"`
}

// Engine scores extracted items from weighted signals and adapts the weights
// from user feedback. All weight mutations run under a single writer; scoring
// reads a weight snapshot and may observe a concurrent update with bounded
// staleness.
//
// Feedback for an item key the engine never scored is still appended to the
// event log (it is part of the audit trail) but leaves the weights untouched,
// since no signal context exists for it.
type Engine struct {
	store         Store
	learningRate  float64
	snapshotEvery int
	contextLimit  int

	mu            sync.RWMutex
	weights       map[string]float64
	support       map[string]int
	totalFeedback int
	correctCount  int
	appliedEvents int

	// contexts holds the signal context of recently scored items, bounded
	// at contextLimit entries, oldest evicted first. Feedback on an
	// evicted key degrades to the unknown-key path.
	ctxMu    sync.Mutex
	contexts map[string]map[string]float64
	ctxOrder []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLearningRate overrides the per-event update bound.
func WithLearningRate(rate float64) Option {
	return func(e *Engine) {
		if rate > 0 && rate < 1 {
			e.learningRate = rate
		}
	}
}

// WithSnapshotEvery overrides the snapshot cadence.
func WithSnapshotEvery(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.snapshotEvery = n
		}
	}
}

// WithContextLimit overrides how many scored items keep their signal context.
func WithContextLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.contextLimit = n
		}
	}
}

// NewEngine builds an engine from persisted state: the latest snapshot plus a
// replay of every event the snapshot does not cover. With an empty store the
// engine starts from the default prior.
func NewEngine(store Store, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}

	e := &Engine{
		store:         store,
		learningRate:  DefaultLearningRate,
		snapshotEvery: DefaultSnapshotEvery,
		contextLimit:  DefaultContextLimit,
		weights:       DefaultWeights(),
		support:       make(map[string]int),
		contexts:      make(map[string]map[string]float64),
	}
	for _, opt := range opts {
		opt(e)
	}

	snap, err := store.LoadSnapshot()
	if err != nil {
		return nil, err
	}
	replayFrom := 0
	if snap != nil {
		e.weights = copyWeights(snap.Weights)
		e.support = copySupport(snap.Support)
		e.totalFeedback = snap.TotalFeedback
		e.correctCount = snap.CorrectCount
		replayFrom = snap.EventCount
	}

	events, err := store.Events()
	if err != nil {
		return nil, err
	}
	if replayFrom > len(events) {
		// Snapshot is ahead of the log (log was truncated); trust it.
		replayFrom = len(events)
	}
	for _, ev := range events[replayFrom:] {
		e.applyEvent(ev)
	}
	e.appliedEvents = len(events)

	return e, nil
}

// ScoreItem computes the confidence for one item and remembers the item's
// signal context so later feedback on its key can attribute the verdict.
func (e *Engine) ScoreItem(itemKey string, signals map[string]float64) float64 {
	if len(signals) > 0 && itemKey != "" {
		e.ctxMu.Lock()
		if _, ok := e.contexts[itemKey]; !ok {
			e.ctxOrder = append(e.ctxOrder, itemKey)
			for len(e.ctxOrder) > e.contextLimit {
				delete(e.contexts, e.ctxOrder[0])
				e.ctxOrder = e.ctxOrder[1:]
			}
		}
		e.contexts[itemKey] = copyWeights(signals)
		e.ctxMu.Unlock()
	}
	return e.Score(signals)
}

// Score computes the normalized weighted sum over the given signals, clamped
// to [0,1]. Signals without a learned weight contribute a small prior weight.
func (e *Engine) Score(signals map[string]float64) float64 {
	if len(signals) == 0 {
		return 0
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	var num, den float64
	for name, strength := range signals {
		strength = clamp01(strength)
		w, ok := e.weights[name]
		if !ok {
			w = unknownSignalWeight
		}
		num += w * strength
		den += w
	}
	if den == 0 {
		return 0
	}
	return clamp01(num / den)
}

// RecordFeedback appends a feedback event and applies the bounded weight
// update for the signals that were active when the item was last scored.
func (e *Engine) RecordFeedback(itemKey string, verdict Verdict) error {
	if itemKey == "" {
		return fmt.Errorf("item key cannot be empty")
	}
	if !verdict.Valid() {
		return fmt.Errorf("invalid verdict %q (must be %q or %q)", verdict, VerdictCorrect, VerdictNeedsReview)
	}

	e.ctxMu.Lock()
	signals := e.contexts[itemKey]
	e.ctxMu.Unlock()

	ev := Event{
		ID:        uuid.NewString(),
		ItemKey:   itemKey,
		Verdict:   string(verdict),
		Timestamp: time.Now().UTC(),
	}
	if signals != nil {
		ev.Signals = copyWeights(signals)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.AppendEvent(ev); err != nil {
		return err
	}
	e.applyEvent(ev)
	e.appliedEvents++

	if e.snapshotEvery > 0 && e.appliedEvents%e.snapshotEvery == 0 {
		if err := e.store.SaveSnapshot(e.snapshotLocked()); err != nil {
			return fmt.Errorf("feedback recorded but snapshot failed: %w", err)
		}
	}
	return nil
}

// Stats returns the aggregate feedback statistics and the current weights.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ratio := 0.0
	if e.totalFeedback > 0 {
		ratio = float64(e.correctCount) / float64(e.totalFeedback)
	}
	return Stats{
		Count:        e.totalFeedback,
		CorrectRatio: ratio,
		Weights:      copyWeights(e.weights),
		Support:      copySupport(e.support),
	}
}

// Snapshot persists the current state unconditionally.
func (e *Engine) Snapshot() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.SaveSnapshot(e.snapshotLocked())
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Weights:       copyWeights(e.weights),
		Support:       copySupport(e.support),
		TotalFeedback: e.totalFeedback,
		CorrectCount:  e.correctCount,
		EventCount:    e.appliedEvents,
		UpdatedAt:     time.Now().UTC(),
	}
}

// applyEvent folds one event into the weight state. Caller holds e.mu (or is
// single-threaded during replay).
//
// The update is multiplicative in the current weight (delta = rate * strength
// * weight), so weights stay strictly positive, and the whole table is
// renormalized afterwards so the total weight mass is conserved.
func (e *Engine) applyEvent(ev Event) {
	e.totalFeedback++
	correct := Verdict(ev.Verdict) == VerdictCorrect
	if correct {
		e.correctCount++
	}

	if len(ev.Signals) == 0 {
		return
	}

	for name, strength := range ev.Signals {
		strength = clamp01(strength)
		w, ok := e.weights[name]
		if !ok {
			w = unknownSignalWeight
		}
		delta := e.learningRate * strength * w
		if correct {
			w += delta
		} else {
			w -= delta
		}
		e.weights[name] = w
		e.support[name]++
	}

	e.renormalizeLocked()
}

// renormalizeLocked rescales all weights so their sum is 1.
func (e *Engine) renormalizeLocked() {
	var sum float64
	for _, w := range e.weights {
		sum += w
	}
	if sum <= 0 {
		e.weights = DefaultWeights()
		return
	}
	for name, w := range e.weights {
		e.weights[name] = w / sum
	}
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

func copyWeights(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copySupport(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
