package bom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucaspbik/drawbom/internal/drawing"
	"github.com/lucaspbik/drawbom/internal/learning"
)

func TestReconcileMergesTableAndAnnotation(t *testing.T) {
	table := CandidateItem{
		Source:      SourceTable,
		Position:    "1",
		Description: "Flansch DN50",
		Quantity:    2,
		BaseScore:   0.9,
		Signals:     map[string]float64{learning.SignalHeaderMatch: 0.5},
	}
	annotation := CandidateItem{
		Source:      SourceAnnotation,
		Position:    "1",
		Description: "Flansch DN50",
		Quantity:    3,
		Material:    "1.4301",
		BaseScore:   0.65,
		Signals:     map[string]float64{learning.SignalCalloutPrefix: 1},
	}

	items := NewReconciler().Reconcile([]CandidateItem{annotation, table})
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, []Source{SourceTable, SourceAnnotation}, item.Provenance)
	assert.Equal(t, 3.0, item.Quantity, "highest quantity wins across sources")
	assert.Equal(t, "1.4301", item.Material, "empty table fields fill from annotation")
	assert.Equal(t, 0.9, item.BaseScore)
	assert.Equal(t, 0.5, item.Signals[learning.SignalHeaderMatch])
	assert.Equal(t, 1.0, item.Signals[learning.SignalCalloutPrefix])
	assert.InDelta(t, 2.0/3.0, item.Signals[learning.SignalSourceCount], 1e-9)
	assert.Equal(t, VerdictUnrated, item.Verdict)
}

func TestReconcileSpatialMatchAnnotationGeometry(t *testing.T) {
	annotation := CandidateItem{
		Source:      SourceAnnotation,
		Page:        0,
		Description: "3x Flansch DN50",
		Quantity:    3,
		Region:      drawing.Rect{X: 100, Y: 100, Width: 120, Height: 12},
		Signals:     map[string]float64{},
	}
	geometry := CandidateItem{
		Source:      SourceGeometry,
		Page:        0,
		Description: "Flansch Ø 8.5 mm",
		Quantity:    3,
		Category:    ComponentFlange,
		Region:      drawing.Rect{X: 90, Y: 90, Width: 200, Height: 40},
		Signals:     map[string]float64{learning.SignalGeometryClusterSize: 0.375},
	}

	items := NewReconciler().Reconcile([]CandidateItem{geometry, annotation})
	require.Len(t, items, 1)

	item := items[0]
	assert.True(t, item.HasProvenance(SourceAnnotation))
	assert.True(t, item.HasProvenance(SourceGeometry))
	assert.Equal(t, 3.0, item.Quantity)
	assert.Equal(t, ComponentFlange, item.Category)
}

func TestReconcileKeepsDistinctItemsApart(t *testing.T) {
	a := CandidateItem{Source: SourceTable, Position: "1", Description: "Flansch DN50", Quantity: 2, Signals: map[string]float64{}}
	b := CandidateItem{Source: SourceTable, Position: "2", Description: "Rohr DN80", Quantity: 1, Signals: map[string]float64{}}

	items := NewReconciler().Reconcile([]CandidateItem{b, a})
	require.Len(t, items, 2)
	assert.NotEqual(t, items[0].Key, items[1].Key)
}

func TestReconcileOrdersByPageThenPosition(t *testing.T) {
	items := NewReconciler().Reconcile([]CandidateItem{
		{Source: SourceTable, Page: 1, Position: "1", Description: "C", Signals: map[string]float64{}},
		{Source: SourceTable, Page: 0, Position: "10", Description: "B", Signals: map[string]float64{}},
		{Source: SourceTable, Page: 0, Position: "2", Description: "A", Signals: map[string]float64{}},
		{Source: SourceAnnotation, Page: 0, Description: "D", Signals: map[string]float64{}},
	})
	require.Len(t, items, 4)

	assert.Equal(t, "A", items[0].Description, "position 2 sorts before 10 numerically")
	assert.Equal(t, "B", items[1].Description)
	assert.Equal(t, "D", items[2].Description, "allocated positions continue past the explicit ones")
	assert.Equal(t, "11", items[2].Position)
	assert.Equal(t, "C", items[3].Description)
}

func TestReconcileAllocatesMissingPositions(t *testing.T) {
	items := NewReconciler().Reconcile([]CandidateItem{
		{Source: SourceGeometry, Page: 0, Description: "Flansch Ø 20.0 mm", Quantity: 2, Signals: map[string]float64{}},
		{Source: SourceTable, Page: 0, Position: "2", Description: "Rohr DN80", Quantity: 1, Signals: map[string]float64{}},
		{Source: SourceAnnotation, Page: 0, Description: "Dichtung", Quantity: 1, Signals: map[string]float64{}},
	})
	require.Len(t, items, 3)

	assert.Equal(t, "2", items[0].Position)
	assert.Equal(t, "Dichtung", items[1].Description, "annotation items number before geometry items")
	assert.Equal(t, "3", items[1].Position)
	assert.Equal(t, "Flansch Ø 20.0 mm", items[2].Description)
	assert.Equal(t, "4", items[2].Position)
}

func TestReconcileKeysAreStable(t *testing.T) {
	cand := CandidateItem{Source: SourceTable, Position: "1", Description: "Flansch DN50", Signals: map[string]float64{}}

	first := NewReconciler().Reconcile([]CandidateItem{cand})
	second := NewReconciler().Reconcile([]CandidateItem{cand})
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Key, second[0].Key)

	// Key ignores fields that do not identify the part.
	noisy := cand
	noisy.Quantity = 99
	noisy.Comment = "anything"
	third := NewReconciler().Reconcile([]CandidateItem{noisy})
	assert.Equal(t, first[0].Key, third[0].Key)
}
