package bom

import (
	"testing"

	"github.com/lucaspbik/drawbom/internal/learning"
)

func TestClassifyKeywords(t *testing.T) {
	cases := map[string]ComponentCategory{
		"Flansch DN50":          ComponentFlange,
		"Weld neck flange":      ComponentFlange,
		"Rohr DN80 verzinkt":    ComponentPipeRun,
		"Seamless pipe 2m":      ComponentPipeRun,
		"Blech 3mm":             ComponentPlate,
		"Grundplatte":           ComponentPlate,
		"Endkappe DN100":        ComponentPipeEnd,
		"90 degree elbow":       ComponentElbow,
		"Dichtung Klingerit":    ComponentOther,
		"Sechskantschraube M12": ComponentOther,
	}

	c := NewPartTypeClassifier()
	for text, want := range cases {
		item := CandidateItem{Description: text}
		c.Classify(&item)
		if item.Category != want {
			t.Errorf("Classify(%q) = %q, want %q", text, item.Category, want)
		}
	}
}

func TestClassifyLongestMatchWins(t *testing.T) {
	c := NewPartTypeClassifier()

	// "Rohrbogen" contains "rohr" but the longer elbow keyword must win.
	item := CandidateItem{Description: "Rohrbogen 90 Grad"}
	c.Classify(&item)
	if item.Category != ComponentElbow {
		t.Errorf("Classify(Rohrbogen) = %q, want elbow", item.Category)
	}
	if item.Signals[learning.SignalLexicalKeyword] != 1 {
		t.Error("expected lexical keyword signal to be set")
	}
}

func TestClassifyLexicalOverridesGeometry(t *testing.T) {
	c := NewPartTypeClassifier()

	item := CandidateItem{Description: "Flansch DN50", Category: ComponentPlate}
	c.Classify(&item)
	if item.Category != ComponentFlange {
		t.Errorf("lexical match must override geometry category, got %q", item.Category)
	}
}

func TestClassifyWithoutMatchKeepsGeometryCategory(t *testing.T) {
	c := NewPartTypeClassifier()

	item := CandidateItem{Description: "Kontur 12.0 × 8.0 mm", Category: ComponentPipeEnd}
	c.Classify(&item)
	if item.Category != ComponentPipeEnd {
		t.Errorf("geometry category must survive without lexical match, got %q", item.Category)
	}
	if item.Signals[learning.SignalLexicalKeyword] != 0 {
		t.Error("expected lexical keyword signal of 0")
	}
}
