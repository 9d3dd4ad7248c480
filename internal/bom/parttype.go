package bom

import (
	"strings"

	"github.com/lucaspbik/drawbom/internal/learning"
)

// categoryKeywords maps lexical cues (German and English) to component
// classes. Longest match wins, so "Rohrbogen" classifies as elbow even
// though it contains "rohr".
var categoryKeywords = map[string]ComponentCategory{
	"flansch":   ComponentFlange,
	"flange":    ComponentFlange,
	"bogen":     ComponentElbow,
	"rohrbogen": ComponentElbow,
	"elbow":     ComponentElbow,
	"knie":      ComponentElbow,
	"bend":      ComponentElbow,
	"rohr":      ComponentPipeRun,
	"pipe":      ComponentPipeRun,
	"tube":      ComponentPipeRun,
	"leitung":   ComponentPipeRun,
	"blech":     ComponentPlate,
	"platte":    ComponentPlate,
	"plate":     ComponentPlate,
	"sheet":     ComponentPlate,
	"rohrende":  ComponentPipeEnd,
	"endkappe":  ComponentPipeEnd,
	"kappe":     ComponentPipeEnd,
	"cap":       ComponentPipeEnd,
}

// PartTypeClassifier assigns a component category from an item's text,
// falling back to whatever the geometry clusterer inferred.
type PartTypeClassifier struct{}

// NewPartTypeClassifier returns the keyword-based classifier.
func NewPartTypeClassifier() *PartTypeClassifier {
	return &PartTypeClassifier{}
}

// Classify sets the item's category and lexical signal in place. A lexical
// match overrides a geometry-derived category; with neither, items from
// textual sources get ComponentOther and geometry items keep their class.
func (c *PartTypeClassifier) Classify(item *CandidateItem) {
	text := strings.ToLower(item.Description + " " + item.Comment)

	bestLen := 0
	var best ComponentCategory
	for kw, cat := range categoryKeywords {
		if len(kw) > bestLen && strings.Contains(text, kw) {
			bestLen = len(kw)
			best = cat
		}
	}

	if item.Signals == nil {
		item.Signals = map[string]float64{}
	}
	if bestLen > 0 {
		item.Category = best
		item.Signals[learning.SignalLexicalKeyword] = 1
		return
	}
	item.Signals[learning.SignalLexicalKeyword] = 0
	if item.Category == ComponentNone {
		item.Category = ComponentOther
	}
}
