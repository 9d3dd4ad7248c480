package bom

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucaspbik/drawbom/internal/drawing"
	"github.com/lucaspbik/drawbom/internal/learning"
)

// fakeProvider serves canned page primitives.
type fakeProvider struct {
	pages []*drawing.PagePrimitives
	errs  map[int]error
}

func (f *fakeProvider) PageCount() int { return len(f.pages) }

func (f *fakeProvider) PagePrimitives(ctx context.Context, pageIndex int) (*drawing.PagePrimitives, error) {
	if err := f.errs[pageIndex]; err != nil {
		return nil, err
	}
	return f.pages[pageIndex], nil
}

func (f *fakeProvider) Close() error { return nil }

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	engine, err := learning.NewEngine(learning.NewMemoryStore())
	require.NoError(t, err)
	return NewExtractor(engine)
}

func TestExtractTableMode(t *testing.T) {
	provider := &fakeProvider{pages: []*drawing.PagePrimitives{bomTablePage()}}

	result, err := newTestExtractor(t).Extract(context.Background(), provider)
	require.NoError(t, err)

	assert.Equal(t, ModeTable, result.Mode)
	assert.Equal(t, 1, result.TablesAccepted)
	assert.NotEmpty(t, result.ExtractionID)
	assert.Equal(t, []int{0}, result.PagesProcessed)
	require.Len(t, result.Items, 2)

	flansch := result.Items[0]
	assert.Equal(t, "Flansch DN50", flansch.Description)
	assert.Equal(t, ComponentFlange, flansch.Category)
	assert.Equal(t, 2.0, flansch.Quantity)
	assert.True(t, flansch.HasProvenance(SourceTable))
	assert.Greater(t, flansch.Confidence, 0.5, "table items score high")
	assert.NotEmpty(t, flansch.Key)

	assert.Contains(t, result.ColumnsFound, ColumnRolePosition)
	assert.Contains(t, result.ColumnsFound, ColumnRoleQuantity)
}

func TestExtractInterpretedModeMergesAnnotationAndGeometry(t *testing.T) {
	page := &drawing.PagePrimitives{
		Page:  0,
		Width: 612, Height: 792,
		TextTokens: []drawing.TextToken{
			{Text: "3x Flansch DN50", BBox: drawing.Rect{X: 100, Y: 200, Width: 120, Height: 10}},
		},
		Geometries: []drawing.Geometry{
			{Kind: drawing.GeometryCurve, Closed: true, BBox: drawing.Rect{X: 100, Y: 195, Width: 24, Height: 24}},
			{Kind: drawing.GeometryCurve, Closed: true, BBox: drawing.Rect{X: 160, Y: 195, Width: 24, Height: 24}},
			{Kind: drawing.GeometryCurve, Closed: true, BBox: drawing.Rect{X: 220, Y: 195, Width: 24, Height: 24}},
		},
	}
	provider := &fakeProvider{pages: []*drawing.PagePrimitives{page}}

	result, err := newTestExtractor(t).Extract(context.Background(), provider)
	require.NoError(t, err)

	assert.Equal(t, ModeInterpreted, result.Mode)
	assert.Equal(t, 0, result.TablesAccepted)
	assert.Equal(t, 1, result.AnnotationItemCount)
	assert.Equal(t, 1, result.GeometryItemCount)
	require.Len(t, result.Items, 1, "overlapping annotation and geometry merge into one item")

	item := result.Items[0]
	assert.Equal(t, "Flansch DN50", item.Description)
	assert.Equal(t, "1", item.Position, "interpreted items get a position allocated")
	assert.Equal(t, 3.0, item.Quantity)
	assert.Equal(t, ComponentFlange, item.Category)
	assert.True(t, item.HasProvenance(SourceAnnotation))
	assert.True(t, item.HasProvenance(SourceGeometry))
}

func TestExtractExcludesTableGeometryFromClustering(t *testing.T) {
	page := bomTablePage()
	page.Geometries = []drawing.Geometry{
		// Cell borders inside the accepted table band.
		shape(drawing.GeometryRect, 45, 655, 100, 15),
		shape(drawing.GeometryRect, 145, 655, 100, 15),
		shape(drawing.GeometryRect, 245, 655, 100, 15),
		// A real shape cluster elsewhere on the sheet.
		circle(100, 300, 24),
		circle(200, 300, 24),
		circle(300, 300, 24),
	}
	provider := &fakeProvider{pages: []*drawing.PagePrimitives{page}}

	result, err := newTestExtractor(t).Extract(context.Background(), provider)
	require.NoError(t, err)

	assert.Equal(t, ModeTable, result.Mode)
	assert.Equal(t, 1, result.GeometryItemCount, "table borders must not cluster into parts")
	require.Len(t, result.Items, 3)
}

func TestExtractSkipsUnreadablePages(t *testing.T) {
	provider := &fakeProvider{
		pages: []*drawing.PagePrimitives{bomTablePage(), nil},
		errs: map[int]error{
			1: &drawing.UnreadablePageError{Page: 1, Err: errors.New("broken stream")},
		},
	}

	result, err := newTestExtractor(t).Extract(context.Background(), provider)
	require.NoError(t, err)

	assert.Equal(t, []int{0}, result.PagesProcessed)
	assert.Equal(t, []int{1}, result.PagesSkipped)
	assert.Len(t, result.Items, 2)
}

func TestExtractFailsWithoutAnyContent(t *testing.T) {
	provider := &fakeProvider{pages: []*drawing.PagePrimitives{
		{Page: 0, Width: 612, Height: 792},
		{Page: 1, Width: 612, Height: 792},
	}}

	_, err := newTestExtractor(t).Extract(context.Background(), provider)

	var noContent *NoExtractableContentError
	require.ErrorAs(t, err, &noContent)
	assert.Equal(t, 2, noContent.PagesTried)
}

func TestExtractPlaceholderForUnrecognizableContent(t *testing.T) {
	// One lone shape: too few for a geometry cluster, no text at all.
	page := geomPage(shape(drawing.GeometryRect, 100, 100, 40, 40))
	provider := &fakeProvider{pages: []*drawing.PagePrimitives{page}}

	result, err := newTestExtractor(t).Extract(context.Background(), provider)
	require.NoError(t, err)

	assert.Equal(t, ModeInterpreted, result.Mode)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "Unbenanntes Bauteil", result.Items[0].Description)
	assert.Equal(t, 1.0, result.Items[0].Quantity)
	assert.Less(t, result.Items[0].Confidence, 0.5)
}

func TestExtractIsIdempotent(t *testing.T) {
	provider := &fakeProvider{pages: []*drawing.PagePrimitives{bomTablePage()}}
	extractor := newTestExtractor(t)

	first, err := extractor.Extract(context.Background(), provider)
	require.NoError(t, err)
	second, err := extractor.Extract(context.Background(), provider)
	require.NoError(t, err)

	assert.NotEqual(t, first.ExtractionID, second.ExtractionID)
	require.Equal(t, len(first.Items), len(second.Items))
	for i := range first.Items {
		assert.Equal(t, first.Items[i].Key, second.Items[i].Key)
		assert.Equal(t, first.Items[i].Quantity, second.Items[i].Quantity)
		assert.Equal(t, first.Items[i].Confidence, second.Items[i].Confidence)
	}
}

func TestExtractRespectsCanceledContext(t *testing.T) {
	provider := &fakeProvider{pages: []*drawing.PagePrimitives{bomTablePage()}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestExtractor(t).Extract(ctx, provider)
	require.ErrorIs(t, err, context.Canceled)
}
