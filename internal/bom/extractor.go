package bom

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lucaspbik/drawbom/internal/drawing"
	"github.com/lucaspbik/drawbom/internal/learning"
)

// Extractor runs the full pipeline: primitives in, reconciled and scored BOM
// items out. One extractor serves many documents; per-call state stays local.
type Extractor struct {
	tables      *TableDetector
	annotations *AnnotationInterpreter
	geometry    *GeometryClusterer
	partTypes   *PartTypeClassifier
	reconciler  *Reconciler
	engine      *learning.Engine
	tunables    Tunables
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*extractorConfig)

type extractorConfig struct {
	tunables Tunables
	synonyms map[ColumnRole][]string
}

// WithTunables overrides the pipeline thresholds.
func WithTunables(t Tunables) ExtractorOption {
	return func(c *extractorConfig) { c.tunables = t }
}

// WithSynonyms overlays extra header synonyms on the built-in table.
func WithSynonyms(syns map[ColumnRole][]string) ExtractorOption {
	return func(c *extractorConfig) { c.synonyms = syns }
}

// NewExtractor wires the pipeline components around a scoring engine.
func NewExtractor(engine *learning.Engine, opts ...ExtractorOption) *Extractor {
	cfg := extractorConfig{tunables: DefaultTunables()}
	for _, opt := range opts {
		opt(&cfg)
	}

	classifier := NewHeaderClassifier()
	if cfg.synonyms != nil {
		classifier = NewHeaderClassifierWithSynonyms(cfg.synonyms)
	}

	return &Extractor{
		tables:      NewTableDetector(classifier, cfg.tunables),
		annotations: NewAnnotationInterpreter(cfg.tunables),
		geometry:    NewGeometryClusterer(cfg.tunables),
		partTypes:   NewPartTypeClassifier(),
		reconciler:  NewReconciler(),
		engine:      engine,
		tunables:    cfg.tunables,
	}
}

// Extract runs all pages of the provider through the pipeline. Unreadable
// pages are skipped and reported; any other page error aborts the run.
func (e *Extractor) Extract(ctx context.Context, provider drawing.Provider) (*BOMExtractionResult, error) {
	result := &BOMExtractionResult{
		ExtractionID: uuid.NewString(),
		Mode:         ModeInterpreted,
	}

	var candidates []CandidateItem
	var columns []ColumnRole
	seenColumns := make(map[ColumnRole]bool)
	hadPrimitives := false
	pageCount := provider.PageCount()

	for pageIndex := 0; pageIndex < pageCount; pageIndex++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := provider.PagePrimitives(ctx, pageIndex)
		if err != nil {
			var unreadable *drawing.UnreadablePageError
			if errors.As(err, &unreadable) {
				result.PagesSkipped = append(result.PagesSkipped, pageIndex)
				continue
			}
			return nil, fmt.Errorf("page %d: %w", pageIndex, err)
		}
		result.PagesProcessed = append(result.PagesProcessed, pageIndex)
		if !page.HasContent() {
			continue
		}
		hadPrimitives = true

		regions := e.tables.Detect(page)
		consumed := make(map[int]bool)
		for _, region := range regions {
			result.TablesAccepted++
			candidates = append(candidates, region.Items...)
			for _, idx := range region.consumed {
				consumed[idx] = true
			}
			for _, role := range region.Columns {
				if role != ColumnRoleUnknown && !seenColumns[role] {
					seenColumns[role] = true
					columns = append(columns, role)
				}
			}
		}

		var leftover []drawing.TextToken
		for i, t := range page.TextTokens {
			if !consumed[i] {
				leftover = append(leftover, t)
			}
		}

		annotated := e.annotations.Interpret(page.Page, leftover)
		result.AnnotationItemCount += len(annotated)
		candidates = append(candidates, annotated...)

		// Geometry inside an accepted table region is table furniture
		// (cell borders, row rules) and is withheld from clustering, the
		// same way consumed text tokens are withheld from annotations.
		clusterPage := page
		if len(regions) > 0 {
			filtered := *page
			filtered.Geometries = nil
			for _, geo := range page.Geometries {
				if !insideTableRegion(geo, regions) {
					filtered.Geometries = append(filtered.Geometries, geo)
				}
			}
			clusterPage = &filtered
		}
		clustered := e.geometry.Cluster(clusterPage)
		result.GeometryItemCount += len(clustered)
		candidates = append(candidates, clustered...)
	}

	if !hadPrimitives {
		return nil, &NoExtractableContentError{PagesTried: pageCount}
	}
	if result.TablesAccepted > 0 {
		result.Mode = ModeTable
	}
	result.ColumnsFound = columns

	// A drawing with primitives but nothing recognizable still yields one
	// low-confidence placeholder so downstream consumers see the document
	// was not empty.
	if len(candidates) == 0 {
		candidates = append(candidates, e.placeholderItem(result.PagesProcessed))
	}

	for i := range candidates {
		e.partTypes.Classify(&candidates[i])
	}

	items := e.reconciler.Reconcile(candidates)
	for i := range items {
		items[i].Signals[learning.SignalExtractionReliability] = clampUnit(items[i].BaseScore)
		items[i].Confidence = e.engine.ScoreItem(items[i].Key, items[i].Signals)
	}
	result.Items = items

	return result, nil
}

// ExtractFile validates and opens a PDF file and runs the pipeline over it.
// maxFileSize <= 0 disables the size check.
func (e *Extractor) ExtractFile(ctx context.Context, path string, maxFileSize int64) (*BOMExtractionResult, error) {
	if err := drawing.ValidateDocument(path, maxFileSize); err != nil {
		return nil, err
	}
	provider, err := drawing.OpenPDF(path)
	if err != nil {
		return nil, err
	}
	defer provider.Close()
	return e.Extract(ctx, provider)
}

// insideTableRegion reports whether a shape overlaps an accepted table region.
func insideTableRegion(geo drawing.Geometry, regions []TableRegion) bool {
	for _, r := range regions {
		if r.BBox.Overlaps(geo.BBox) {
			return true
		}
	}
	return false
}

func (e *Extractor) placeholderItem(pages []int) CandidateItem {
	page := 0
	if len(pages) > 0 {
		page = pages[0]
	}
	return CandidateItem{
		Source:      SourceAnnotation,
		Page:        page,
		Description: "Unbenanntes Bauteil",
		Quantity:    1,
		Category:    ComponentOther,
		BaseScore:   0.2,
		Signals:     map[string]float64{},
	}
}
