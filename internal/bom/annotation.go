package bom

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/lucaspbik/drawbom/internal/drawing"
	"github.com/lucaspbik/drawbom/internal/learning"
)

var (
	// "3x Flansch DN50", "2 × Rohrbogen 90°"
	quantityPrefixPattern = regexp.MustCompile(`^(\d{1,4})\s*[x×]\s+(\S.*)$`)

	// "1) Flansch DN50", "12. Blech 3mm", "3: Dichtung"
	calloutPattern = regexp.MustCompile(`^(\d{1,3})\s*[.):\]]\s+(\S.*)$`)

	// "Pos 4 Rohr DN80"
	posCalloutPattern = regexp.MustCompile(`(?i)^pos\.?\s*(\d{1,3})\s+(\S.*)$`)

	// "Flansch DN50 3 Stück", "gasket 2 pcs"
	trailingQuantityPattern = regexp.MustCompile(`(?i)^(.*\S)\s+(\d{1,4})\s*(st(?:ü|u)?ck|stk|pcs|pieces)\.?$`)

	// "Rohr DN80 (verzinkt)"
	trailingCommentPattern = regexp.MustCompile(`^(.*\S)\s*\(([^()]{2,})\)$`)

	partNumberPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9./-]{3,}$`)
)

// itemKeywords marks free-text lines that plausibly describe a part. German
// first, matching the drawings this was built for.
var itemKeywords = []string{
	"flansch", "rohr", "bogen", "blech", "platte", "schraube", "mutter",
	"dichtung", "stutzen", "winkel", "profil", "kappe", "reduzierung",
	"halter", "konsole",
	"flange", "pipe", "tube", "elbow", "plate", "sheet", "bolt", "nut",
	"gasket", "nozzle", "bracket", "cap", "reducer",
}

// AnnotationInterpreter turns loose callouts and free-text listings into
// candidate items. It only sees tokens no accepted table region consumed.
type AnnotationInterpreter struct {
	tunables Tunables
}

// NewAnnotationInterpreter returns an interpreter with the given thresholds.
func NewAnnotationInterpreter(tunables Tunables) *AnnotationInterpreter {
	return &AnnotationInterpreter{tunables: tunables}
}

// annotationLine is one merged text line with its extent.
type annotationLine struct {
	text string
	bbox drawing.Rect
}

// Interpret extracts candidate items from the given tokens of one page.
func (a *AnnotationInterpreter) Interpret(pageNo int, tokens []drawing.TextToken) []CandidateItem {
	lines := mergeLines(tokens, a.tunables.RowYTolerance)

	var items []CandidateItem
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if item, ok := a.interpretLine(pageNo, line); ok {
			items = append(items, item)
			continue
		}
		// A run of short left-aligned lines is treated as a parts listing
		// even without callout markers.
		if block := listingBlock(lines, i); len(block) >= 3 {
			for _, bl := range block {
				if item, ok := a.listingItem(pageNo, bl); ok {
					items = append(items, item)
				}
			}
			i += len(block) - 1
		}
	}
	return foldDuplicates(items)
}

// interpretLine matches one line against the callout grammar.
func (a *AnnotationInterpreter) interpretLine(pageNo int, line annotationLine) (CandidateItem, bool) {
	text := strings.TrimSpace(line.text)
	if text == "" {
		return CandidateItem{}, false
	}

	item := CandidateItem{
		Source:    SourceAnnotation,
		Page:      pageNo,
		Quantity:  1,
		Region:    line.bbox,
		BaseScore: a.tunables.TableBase - a.tunables.AnnotationDiscount,
		Signals:   map[string]float64{},
		Evidence: []Evidence{{
			Kind: "text",
			Text: text,
			BBox: line.bbox,
			Page: pageNo,
		}},
	}

	matched := false
	rest := text

	if m := posCalloutPattern.FindStringSubmatch(rest); m != nil {
		item.Position = m[1]
		rest = m[2]
		item.Signals[learning.SignalCalloutPrefix] = 1
		matched = true
	} else if m := calloutPattern.FindStringSubmatch(rest); m != nil {
		item.Position = m[1]
		rest = m[2]
		item.Signals[learning.SignalCalloutPrefix] = 1
		matched = true
	}

	if m := quantityPrefixPattern.FindStringSubmatch(rest); m != nil {
		if qty, _, ok := ParseQuantity(m[1]); ok {
			item.Quantity = qty
			item.SummedQuantity = true
			rest = m[2]
			if item.Signals[learning.SignalCalloutPrefix] == 0 {
				item.Signals[learning.SignalCalloutPrefix] = 0.8
			}
			matched = true
		}
	}

	// Strip a trailing parenthetical first so "2 Stück (verzinkt)" still
	// matches the quantity pattern.
	if m := trailingCommentPattern.FindStringSubmatch(rest); m != nil {
		rest = strings.TrimSpace(m[1])
		item.Comment = strings.TrimSpace(m[2])
	}

	if m := trailingQuantityPattern.FindStringSubmatch(rest); m != nil {
		if qty, unit, ok := ParseQuantity(m[2] + " " + m[3]); ok {
			item.Quantity = qty
			item.SummedQuantity = true
			item.Unit = unit
			rest = m[1]
			matched = true
		}
	}

	if !matched {
		return CandidateItem{}, false
	}

	rest = strings.TrimSpace(rest)
	if rest == "" {
		return CandidateItem{}, false
	}
	item.Description, item.PartNumber = splitPartNumber(rest)
	if item.Description == "" && item.PartNumber == "" {
		return CandidateItem{}, false
	}
	return item, true
}

// listingItem converts one line of a free-text listing block into an item,
// requiring a part keyword or a part-number-shaped token.
func (a *AnnotationInterpreter) listingItem(pageNo int, line annotationLine) (CandidateItem, bool) {
	text := strings.TrimSpace(line.text)
	if text == "" {
		return CandidateItem{}, false
	}
	if !containsItemKeyword(text) && !containsPartNumber(text) {
		return CandidateItem{}, false
	}

	item := CandidateItem{
		Source:    SourceAnnotation,
		Page:      pageNo,
		Quantity:  1,
		Region:    line.bbox,
		BaseScore: a.tunables.TableBase - a.tunables.AnnotationDiscount,
		Signals: map[string]float64{
			learning.SignalCalloutPrefix: 0.3,
		},
		Evidence: []Evidence{{
			Kind: "text",
			Text: text,
			BBox: line.bbox,
			Page: pageNo,
		}},
	}
	if m := trailingCommentPattern.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
		item.Comment = strings.TrimSpace(m[2])
	}
	item.Description, item.PartNumber = splitPartNumber(text)
	return item, item.Description != "" || item.PartNumber != ""
}

// splitPartNumber pulls a part-number-shaped token out of a description.
func splitPartNumber(text string) (description, partNumber string) {
	fields := strings.Fields(text)
	var descParts []string
	for _, f := range fields {
		if partNumber == "" && looksLikePartNumber(f) {
			partNumber = f
			continue
		}
		descParts = append(descParts, f)
	}
	return strings.Join(descParts, " "), partNumber
}

// looksLikePartNumber recognizes tokens like "AB-1234" or "4711.20.1":
// uppercase alphanumerics with separators, at least one digit, and not a pure
// dimension spec like "DN50" or "90°".
func looksLikePartNumber(token string) bool {
	if !partNumberPattern.MatchString(token) {
		return false
	}
	if !strings.ContainsAny(token, "0123456789") {
		return false
	}
	if !strings.ContainsAny(token, "-./") {
		return false
	}
	for _, prefix := range []string{"DN", "PN", "DIN", "EN", "ISO"} {
		if strings.HasPrefix(token, prefix) {
			return false
		}
	}
	return true
}

func containsItemKeyword(text string) bool {
	lowered := strings.ToLower(text)
	for _, kw := range itemKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

func containsPartNumber(text string) bool {
	for _, f := range strings.Fields(text) {
		if looksLikePartNumber(f) {
			return true
		}
	}
	return false
}

// listingBlock returns the run of short, left-aligned lines starting at
// index i, or nil when the run is shorter than three lines.
func listingBlock(lines []annotationLine, i int) []annotationLine {
	const marginTol = 6.0
	const maxLineLen = 60

	start := lines[i]
	if len(start.text) > maxLineLen {
		return nil
	}
	block := []annotationLine{start}
	for j := i + 1; j < len(lines); j++ {
		l := lines[j]
		if len(l.text) > maxLineLen || math.Abs(l.bbox.X-start.bbox.X) > marginTol {
			break
		}
		block = append(block, l)
	}
	if len(block) < 3 {
		return nil
	}
	return block
}

// foldDuplicates merges annotation items that describe the same part. Items
// with explicit quantities from repeated placements are summed; otherwise the
// larger quantity wins.
func foldDuplicates(items []CandidateItem) []CandidateItem {
	type key struct {
		desc string
		pos  string
	}
	index := make(map[key]int)
	var out []CandidateItem
	for _, item := range items {
		k := key{desc: NormalizeHeaderToken(item.Description + item.PartNumber), pos: item.Position}
		if k.desc == "" {
			out = append(out, item)
			continue
		}
		if at, ok := index[k]; ok {
			existing := &out[at]
			if item.SummedQuantity && existing.SummedQuantity {
				existing.Quantity += item.Quantity
			} else if item.Quantity > existing.Quantity {
				existing.Quantity = item.Quantity
			}
			existing.Region = existing.Region.Union(item.Region)
			existing.Evidence = append(existing.Evidence, item.Evidence...)
			continue
		}
		index[k] = len(out)
		out = append(out, item)
	}
	return out
}

// mergeLines joins same-baseline tokens into full text lines, top of page
// first.
func mergeLines(tokens []drawing.TextToken, yTol float64) []annotationLine {
	sorted := make([]drawing.TextToken, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(a, b int) bool {
		if sorted[a].BBox.Y != sorted[b].BBox.Y {
			return sorted[a].BBox.Y > sorted[b].BBox.Y
		}
		return sorted[a].BBox.X < sorted[b].BBox.X
	})

	var groups [][]drawing.TextToken
	var curY float64
	for _, t := range sorted {
		if n := len(groups); n > 0 && curY-t.BBox.Y <= yTol {
			groups[n-1] = append(groups[n-1], t)
			continue
		}
		curY = t.BBox.Y
		groups = append(groups, []drawing.TextToken{t})
	}

	lines := make([]annotationLine, 0, len(groups))
	for _, g := range groups {
		sort.SliceStable(g, func(a, b int) bool { return g[a].BBox.X < g[b].BBox.X })
		var line annotationLine
		parts := make([]string, 0, len(g))
		for _, t := range g {
			parts = append(parts, t.Text)
			line.bbox = line.bbox.Union(t.BBox)
		}
		line.text = strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
		lines = append(lines, line)
	}
	return lines
}
