package bom

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"

	"github.com/lucaspbik/drawbom/internal/learning"
)

// sourcePriority orders merge authority: table fields win over annotation
// fields, which win over geometry fields.
var sourcePriority = map[Source]int{
	SourceTable:      0,
	SourceAnnotation: 1,
	SourceGeometry:   2,
}

// Reconciler merges candidates from all three sources into the final item
// list. Extracted field values are never rewritten; merging only selects
// between them and unions evidence.
type Reconciler struct{}

// NewReconciler returns a reconciler.
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

type mergedItem struct {
	BOMItem
	sources map[Source]bool
}

// Reconcile deduplicates and merges the candidates of one extraction run and
// returns stable-ordered items. Items carrying no position get the next free
// number allocated. Confidence is left at zero for the scoring engine to
// fill in.
func (r *Reconciler) Reconcile(candidates []CandidateItem) []BOMItem {
	ordered := make([]CandidateItem, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(a, b int) bool {
		return sourcePriority[ordered[a].Source] < sourcePriority[ordered[b].Source]
	})

	var merged []*mergedItem
	byKey := make(map[string]*mergedItem)

	for _, cand := range ordered {
		key := identityKey(cand)

		target := byKey[key]
		if target == nil && cand.Source != SourceTable {
			target = findSpatialMatch(merged, cand)
		}

		if target == nil {
			m := &mergedItem{
				BOMItem: BOMItem{
					CandidateItem: cand,
					Provenance:    []Source{cand.Source},
					Verdict:       VerdictUnrated,
				},
				sources: map[Source]bool{cand.Source: true},
			}
			// Candidates stay immutable; merging works on a copy.
			m.Signals = make(map[string]float64, len(cand.Signals)+2)
			for name, v := range cand.Signals {
				m.Signals[name] = v
			}
			if key != "" {
				byKey[key] = m
			}
			merged = append(merged, m)
			continue
		}

		mergeCandidate(target, cand)
	}

	allocatePositions(merged)

	items := make([]BOMItem, len(merged))
	for i, m := range merged {
		m.Signals[learning.SignalSourceCount] = clampUnit(float64(len(m.sources)) / 3)
		m.Key = itemKey(m.BOMItem.CandidateItem)
		items[i] = m.BOMItem
	}

	sort.SliceStable(items, func(a, b int) bool {
		if items[a].Page != items[b].Page {
			return items[a].Page < items[b].Page
		}
		pa, aerr := strconv.Atoi(items[a].Position)
		pb, berr := strconv.Atoi(items[b].Position)
		aok, bok := aerr == nil, berr == nil
		if aok != bok {
			// Items with numeric positions sort before items without.
			return aok
		}
		if aok && pa != pb {
			return pa < pb
		}
		return false
	})
	return items
}

// allocatePositions numbers the merged items that carry no position, starting
// past the highest explicit number, so interpreted and geometry items slot
// into the final numbering. Allocation runs in merge order (table first), so
// the same input always yields the same numbers.
func allocatePositions(merged []*mergedItem) {
	used := make(map[string]bool)
	next := 1
	for _, m := range merged {
		if m.Position == "" {
			continue
		}
		used[m.Position] = true
		if n, err := strconv.Atoi(m.Position); err == nil && n >= next {
			next = n + 1
		}
	}
	for _, m := range merged {
		if m.Position != "" {
			continue
		}
		for used[strconv.Itoa(next)] {
			next++
		}
		m.Position = strconv.Itoa(next)
		used[m.Position] = true
		next++
	}
}

// mergeCandidate folds a lower-priority candidate into an existing item.
func mergeCandidate(target *mergedItem, cand CandidateItem) {
	fillEmpty := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fillEmpty(&target.Position, cand.Position)
	fillEmpty(&target.PartNumber, cand.PartNumber)
	fillEmpty(&target.Description, cand.Description)
	fillEmpty(&target.Unit, cand.Unit)
	fillEmpty(&target.Material, cand.Material)
	fillEmpty(&target.Comment, cand.Comment)
	if target.Category == ComponentNone || target.Category == ComponentOther {
		if cand.Category != ComponentNone {
			target.Category = cand.Category
		}
	}

	if cand.Quantity > target.Quantity {
		target.Quantity = cand.Quantity
	}
	if cand.BaseScore > target.BaseScore {
		target.BaseScore = cand.BaseScore
	}

	target.Region = target.Region.Union(cand.Region)
	target.Evidence = append(target.Evidence, cand.Evidence...)

	if target.Signals == nil {
		target.Signals = map[string]float64{}
	}
	for name, v := range cand.Signals {
		if v > target.Signals[name] {
			target.Signals[name] = v
		}
	}

	if !target.sources[cand.Source] {
		target.sources[cand.Source] = true
		target.Provenance = append(target.Provenance, cand.Source)
	}
}

// findSpatialMatch corroborates annotation and geometry candidates that sit
// on top of each other on the same page.
func findSpatialMatch(merged []*mergedItem, cand CandidateItem) *mergedItem {
	for _, m := range merged {
		if m.Page != cand.Page || m.Source == SourceTable {
			continue
		}
		if m.sources[cand.Source] {
			continue
		}
		if !m.Region.IsZero() && !cand.Region.IsZero() && m.Region.Overlaps(cand.Region) {
			return m
		}
	}
	return nil
}

// identityKey is the textual dedup key: part number if present, else
// description, plus the position.
func identityKey(c CandidateItem) string {
	name := NormalizeHeaderToken(c.PartNumber)
	if name == "" {
		name = NormalizeHeaderToken(c.Description)
	}
	if name == "" {
		return ""
	}
	return name + "|" + NormalizeHeaderToken(c.Position)
}

// itemKey is the stable feedback address of an item: an FNV-64a hash over
// the normalized identifying fields.
func itemKey(c CandidateItem) string {
	h := fnv.New64a()
	h.Write([]byte(NormalizeHeaderToken(c.PartNumber)))
	h.Write([]byte{0})
	h.Write([]byte(NormalizeHeaderToken(c.Description)))
	h.Write([]byte{0})
	h.Write([]byte(NormalizeHeaderToken(c.Position)))
	return fmt.Sprintf("%016x", h.Sum64())
}
