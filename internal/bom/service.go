package bom

import (
	"context"
	"fmt"

	"github.com/lucaspbik/drawbom/internal/learning"
)

// Service is the application facade shared by the CLI commands and the MCP
// server. It owns the extractor and the feedback engine.
type Service struct {
	extractor   *Extractor
	engine      *learning.Engine
	maxFileSize int64
}

// ServiceConfig carries the settings the service needs from the outer config
// layer.
type ServiceConfig struct {
	// StateDir is where the feedback event log and weight snapshots live.
	StateDir string

	// MaxFileSize caps accepted PDF files in bytes; <= 0 disables the cap.
	MaxFileSize int64

	// SynonymsPath optionally points to a YAML header-synonym overlay.
	SynonymsPath string

	// LearningRate overrides the feedback update bound when > 0.
	LearningRate float64
}

// NewService builds a service with file-backed feedback state.
func NewService(cfg ServiceConfig) (*Service, error) {
	store, err := learning.NewFileStore(cfg.StateDir)
	if err != nil {
		return nil, err
	}
	return newService(cfg, store)
}

// NewServiceWithStore builds a service on a caller-provided store. Tests use
// this with the in-memory store.
func NewServiceWithStore(cfg ServiceConfig, store learning.Store) (*Service, error) {
	return newService(cfg, store)
}

func newService(cfg ServiceConfig, store learning.Store) (*Service, error) {
	var engineOpts []learning.Option
	if cfg.LearningRate > 0 {
		engineOpts = append(engineOpts, learning.WithLearningRate(cfg.LearningRate))
	}
	engine, err := learning.NewEngine(store, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize feedback engine: %w", err)
	}

	var extractorOpts []ExtractorOption
	if cfg.SynonymsPath != "" {
		syns, err := LoadSynonyms(cfg.SynonymsPath)
		if err != nil {
			return nil, err
		}
		extractorOpts = append(extractorOpts, WithSynonyms(syns))
	}

	return &Service{
		extractor:   NewExtractor(engine, extractorOpts...),
		engine:      engine,
		maxFileSize: cfg.MaxFileSize,
	}, nil
}

// ExtractFile validates path and runs the full extraction pipeline on it.
func (s *Service) ExtractFile(ctx context.Context, path string) (*BOMExtractionResult, error) {
	return s.extractor.ExtractFile(ctx, path, s.maxFileSize)
}

// RecordFeedback stores a user verdict for an extracted item and adapts the
// signal weights.
func (s *Service) RecordFeedback(itemKey string, verdict Verdict) error {
	switch verdict {
	case VerdictCorrect:
		return s.engine.RecordFeedback(itemKey, learning.VerdictCorrect)
	case VerdictNeedsReview:
		return s.engine.RecordFeedback(itemKey, learning.VerdictNeedsReview)
	default:
		return fmt.Errorf("invalid verdict %q (must be %q or %q)", verdict, VerdictCorrect, VerdictNeedsReview)
	}
}

// FeedbackStats returns the aggregate feedback counters and current weights.
func (s *Service) FeedbackStats() learning.Stats {
	return s.engine.Stats()
}

// SnapshotState forces a weight snapshot, regardless of cadence. The CLI
// calls this on shutdown.
func (s *Service) SnapshotState() error {
	return s.engine.Snapshot()
}
