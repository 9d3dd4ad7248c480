package bom

import (
	"fmt"
	"math"
	"sort"

	"github.com/lucaspbik/drawbom/internal/drawing"
	"github.com/lucaspbik/drawbom/internal/learning"
)

// pointToMM converts PDF points (1/72 inch) to millimeters.
const pointToMM = 25.4 / 72

// GeometryClusterer infers part candidates from repeated vector shapes. It is
// the weakest extraction source and only matters on drawings without any
// table or usable callouts, plus as corroborating provenance elsewhere.
type GeometryClusterer struct {
	tunables Tunables
}

// NewGeometryClusterer returns a clusterer with the given thresholds.
func NewGeometryClusterer(tunables Tunables) *GeometryClusterer {
	return &GeometryClusterer{tunables: tunables}
}

// shapeSignature buckets a geometry so near-identical shapes group together.
type shapeSignature struct {
	kind   drawing.GeometryKind
	closed bool
	filled bool
	aspect int // 0 near-square, 1 oblong, 2 elongated, 3 hairline
	size   int // major dimension in 10mm buckets
}

// Cluster groups the page's shapes by signature and emits one candidate per
// group of at least the configured minimum size.
func (g *GeometryClusterer) Cluster(page *drawing.PagePrimitives) []CandidateItem {
	groups := make(map[shapeSignature][]drawing.Geometry)
	var order []shapeSignature
	for _, geo := range page.Geometries {
		if g.isNoise(geo, page.Width, page.Height) {
			continue
		}
		sig := signatureOf(geo)
		if _, seen := groups[sig]; !seen {
			order = append(order, sig)
		}
		groups[sig] = append(groups[sig], geo)
	}

	var items []CandidateItem
	for _, sig := range order {
		shapes := groups[sig]
		if len(shapes) < g.tunables.GeometryMinClusterSize {
			continue
		}
		items = append(items, g.groupItem(page.Page, sig, shapes))
	}

	sort.SliceStable(items, func(a, b int) bool {
		return items[a].Quantity > items[b].Quantity
	})
	return items
}

// isNoise filters shapes too small to be parts and shapes that are the
// drawing frame itself.
func (g *GeometryClusterer) isNoise(geo drawing.Geometry, pageW, pageH float64) bool {
	w, h := geo.BBox.Width, geo.BBox.Height
	if math.Max(w, h) < g.tunables.GeometryMinDimension {
		return true
	}
	if w >= g.tunables.PageFrameRatio*pageW || h >= g.tunables.PageFrameRatio*pageH {
		return true
	}
	m := g.tunables.PageFrameMargin
	if geo.BBox.X <= m && geo.BBox.Y <= m &&
		geo.BBox.MaxX() >= pageW-m && geo.BBox.MaxY() >= pageH-m {
		return true
	}
	return false
}

func signatureOf(geo drawing.Geometry) shapeSignature {
	w, h := geo.BBox.Width, geo.BBox.Height
	major, minor := math.Max(w, h), math.Min(w, h)

	aspect := 3
	if minor > 0 {
		switch ratio := major / minor; {
		case ratio < 1.3:
			aspect = 0
		case ratio < 3:
			aspect = 1
		case ratio < 8:
			aspect = 2
		}
	}

	return shapeSignature{
		kind:   geo.Kind,
		closed: geo.Closed,
		filled: geo.Filled,
		aspect: aspect,
		size:   int(major * pointToMM / 10),
	}
}

// groupItem builds the candidate item for one shape group.
func (g *GeometryClusterer) groupItem(pageNo int, sig shapeSignature, shapes []drawing.Geometry) CandidateItem {
	category := categorize(sig)

	majors := make([]float64, len(shapes))
	var region drawing.Rect
	evidence := make([]Evidence, 0, len(shapes))
	for i, s := range shapes {
		majors[i] = math.Max(s.BBox.Width, s.BBox.Height)
		region = region.Union(s.BBox)
		evidence = append(evidence, Evidence{
			Kind: string(s.Kind),
			BBox: s.BBox,
			Page: pageNo,
		})
	}
	mean, cv := meanAndCV(majors)
	tightness := 1 / (1 + cv)

	var meanMinor float64
	for _, s := range shapes {
		meanMinor += math.Min(s.BBox.Width, s.BBox.Height)
	}
	meanMinor /= float64(len(shapes))

	return CandidateItem{
		Source:      SourceGeometry,
		Page:        pageNo,
		Description: describeShape(category, mean, meanMinor),
		Quantity:    float64(len(shapes)),
		Unit:        "st",
		Category:    category,
		Region:      region,
		Evidence:    evidence,
		BaseScore:   g.tunables.GeometryBase,
		Signals: map[string]float64{
			learning.SignalGeometryClusterSize: clampUnit(float64(len(shapes)) / 8),
			learning.SignalGeometryTightness:   clampUnit(tightness),
		},
	}
}

// categorize maps a shape signature to a pipeline-component class.
func categorize(sig shapeSignature) ComponentCategory {
	switch sig.kind {
	case drawing.GeometryLine:
		return ComponentPipeEnd
	case drawing.GeometryRect:
		// A filled rectangle is solid material, a plate, regardless of
		// its aspect ratio; only stroked outlines read as pipe runs.
		if sig.filled {
			return ComponentPlate
		}
		if sig.aspect >= 2 {
			return ComponentPipeRun
		}
		return ComponentPlate
	case drawing.GeometryCurve:
		if sig.closed {
			return ComponentFlange
		}
		return ComponentElbow
	}
	return ComponentOther
}

// describeShape renders a German shape description with millimeter
// dimensions, e.g. "Flansch Ø 24.0 mm" or "Rohr 120.5 × 30.2 mm".
func describeShape(category ComponentCategory, majorPt, minorPt float64) string {
	majorMM := majorPt * pointToMM
	minorMM := minorPt * pointToMM

	switch category {
	case ComponentFlange:
		return fmt.Sprintf("Flansch Ø %.1f mm", majorMM)
	case ComponentPipeEnd:
		return fmt.Sprintf("Rohrende L=%.1f mm", majorMM)
	case ComponentPipeRun:
		return fmt.Sprintf("Rohr %.1f × %.1f mm", majorMM, minorMM)
	case ComponentPlate:
		return fmt.Sprintf("Blech %.1f × %.1f mm", majorMM, minorMM)
	case ComponentElbow:
		return fmt.Sprintf("Rohrbogen %.1f mm", majorMM)
	}
	return fmt.Sprintf("Kontur %.1f × %.1f mm", majorMM, minorMM)
}

// meanAndCV returns the mean and the coefficient of variation of vs.
func meanAndCV(vs []float64) (mean, cv float64) {
	if len(vs) == 0 {
		return 0, 0
	}
	for _, v := range vs {
		mean += v
	}
	mean /= float64(len(vs))
	if mean == 0 {
		return 0, 0
	}
	var variance float64
	for _, v := range vs {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(vs))
	return mean, math.Sqrt(variance) / mean
}
