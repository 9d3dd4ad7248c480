package bom

import (
	"sort"
	"strings"

	"github.com/lucaspbik/drawbom/internal/drawing"
	"github.com/lucaspbik/drawbom/internal/learning"
)

// TableRegion is one detected tabular BOM block on a page.
type TableRegion struct {
	Page    int
	BBox    drawing.Rect
	Score   float64
	Columns []ColumnRole
	Items   []CandidateItem

	// consumed indexes into the page token slice; tokens inside an
	// accepted region are withheld from the annotation interpreter.
	consumed []int
}

// TableDetector finds header rows via the synonym table, attaches aligned
// data rows below them, and scores each candidate region. Detection is
// deterministic: same primitives in, same regions out.
type TableDetector struct {
	classifier *HeaderClassifier
	tunables   Tunables
}

// NewTableDetector builds a detector with the given header classifier.
func NewTableDetector(classifier *HeaderClassifier, tunables Tunables) *TableDetector {
	return &TableDetector{classifier: classifier, tunables: tunables}
}

type indexedToken struct {
	drawing.TextToken
	idx int
}

type tokenRow struct {
	y      float64
	tokens []indexedToken
}

// Detect returns the accepted, non-overlapping table regions of one page,
// best score first.
func (d *TableDetector) Detect(page *drawing.PagePrimitives) []TableRegion {
	rows := groupRows(page.TextTokens, d.tunables.RowYTolerance)
	if len(rows) < 3 {
		// A table needs a header and at least two data rows.
		return nil
	}

	var candidates []TableRegion
	for i, row := range rows {
		region, ok := d.buildRegion(page.Page, rows, i, row)
		if ok {
			candidates = append(candidates, region)
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Score > candidates[b].Score
	})

	// Greedy selection: a lower-scoring region overlapping an accepted one
	// is discarded.
	var accepted []TableRegion
	for _, cand := range candidates {
		if cand.Score < d.tunables.TableMinScore {
			continue
		}
		overlaps := false
		for _, a := range accepted {
			if cand.BBox.Overlaps(a.BBox) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			accepted = append(accepted, cand)
		}
	}
	return accepted
}

// buildRegion tries to grow a table region from the header candidate at row
// index hi.
func (d *TableDetector) buildRegion(pageNo int, rows []tokenRow, hi int, header tokenRow) (TableRegion, bool) {
	texts := make([]string, len(header.tokens))
	for i, t := range header.tokens {
		texts[i] = t.Text
	}
	roles := d.classifier.ClassifyRow(texts)

	recognized := 0
	for _, r := range roles {
		if r != ColumnRoleUnknown {
			recognized++
		}
	}
	if recognized < 2 {
		return TableRegion{}, false
	}

	cols := newColumnBands(header.tokens, roles)

	// Attach data rows strictly below the header, stopping at the first row
	// that no longer follows the column layout.
	var dataRows [][]columnCell
	var consumed []int
	alignedCells, totalCells := 0, 0
	region := headerBBox(header)
	for _, t := range header.tokens {
		consumed = append(consumed, t.idx)
	}

	for _, row := range rows[hi+1:] {
		cells, aligned := cols.assignRow(row.tokens)
		if aligned < 2 || aligned*2 < len(row.tokens) {
			break
		}
		dataRows = append(dataRows, cells)
		alignedCells += aligned
		totalCells += len(row.tokens)
		for _, t := range row.tokens {
			region = region.Union(t.BBox)
			consumed = append(consumed, t.idx)
		}
	}
	if len(dataRows) < 2 {
		return TableRegion{}, false
	}

	alignment := 0.0
	if totalCells > 0 {
		alignment = float64(alignedCells) / float64(totalCells)
	}
	score := float64(recognized) + alignment*2 + float64(len(dataRows))*0.2

	headerStrength := clampUnit(float64(recognized) / 6.0)
	items := make([]CandidateItem, 0, len(dataRows))
	for _, cells := range dataRows {
		item, ok := d.rowToItem(pageNo, cols, cells, headerStrength, alignment)
		if ok {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return TableRegion{}, false
	}

	return TableRegion{
		Page:     pageNo,
		BBox:     region,
		Score:    score,
		Columns:  cols.roles(),
		Items:    items,
		consumed: consumed,
	}, true
}

// rowToItem maps one assigned data row to a candidate item.
func (d *TableDetector) rowToItem(pageNo int, cols *columnBands, cells []columnCell, headerStrength, alignment float64) (CandidateItem, bool) {
	item := CandidateItem{
		Source:    SourceTable,
		Page:      pageNo,
		Quantity:  1,
		BaseScore: d.tunables.TableBase,
		Signals: map[string]float64{
			learning.SignalHeaderMatch:     headerStrength,
			learning.SignalColumnAlignment: clampUnit(alignment),
		},
	}

	any := false
	for ci, cell := range cells {
		text := strings.TrimSpace(cell.text)
		if text == "" {
			continue
		}
		any = true
		item.Region = item.Region.Union(cell.bbox)
		item.Evidence = append(item.Evidence, Evidence{
			Kind: "text",
			Text: text,
			BBox: cell.bbox,
			Page: pageNo,
		})

		switch cols.bands[ci].role {
		case ColumnRolePosition:
			item.Position = text
		case ColumnRolePartNumber:
			item.PartNumber = text
		case ColumnRoleDescription:
			item.Description = joinCell(item.Description, text)
		case ColumnRoleQuantity:
			if qty, unit, ok := ParseQuantity(text); ok {
				item.Quantity = qty
				if unit != "" && item.Unit == "" {
					item.Unit = unit
				}
			} else {
				// Unparsable quantity: keep the row, penalize it.
				item.BaseScore -= 0.1
			}
		case ColumnRoleUnit:
			item.Unit = text
		case ColumnRoleMaterial:
			item.Material = text
		case ColumnRoleComment:
			item.Comment = joinCell(item.Comment, text)
		default:
			// Unrecognized column content still counts as description
			// when no description column exists.
			if !cols.hasRole(ColumnRoleDescription) {
				item.Description = joinCell(item.Description, text)
			}
		}
	}
	if !any || (item.Description == "" && item.PartNumber == "") {
		return CandidateItem{}, false
	}
	return item, true
}

func joinCell(existing, text string) string {
	if existing == "" {
		return text
	}
	return existing + " " + text
}

// groupRows clusters tokens into baseline rows, top of page first, tokens
// left to right inside each row.
func groupRows(tokens []drawing.TextToken, yTol float64) []tokenRow {
	indexed := make([]indexedToken, len(tokens))
	for i, t := range tokens {
		indexed[i] = indexedToken{TextToken: t, idx: i}
	}
	sort.SliceStable(indexed, func(a, b int) bool {
		if indexed[a].BBox.Y != indexed[b].BBox.Y {
			return indexed[a].BBox.Y > indexed[b].BBox.Y
		}
		return indexed[a].BBox.X < indexed[b].BBox.X
	})

	var rows []tokenRow
	for _, t := range indexed {
		if n := len(rows); n > 0 && rows[n-1].y-t.BBox.Y <= yTol {
			rows[n-1].tokens = append(rows[n-1].tokens, t)
			continue
		}
		rows = append(rows, tokenRow{y: t.BBox.Y, tokens: []indexedToken{t}})
	}
	for i := range rows {
		sort.SliceStable(rows[i].tokens, func(a, b int) bool {
			return rows[i].tokens[a].BBox.X < rows[i].tokens[b].BBox.X
		})
	}
	return rows
}

func headerBBox(row tokenRow) drawing.Rect {
	var r drawing.Rect
	for _, t := range row.tokens {
		r = r.Union(t.BBox)
	}
	return r
}

// columnBand is the horizontal extent a header token claims for its column.
type columnBand struct {
	role   ColumnRole
	center float64
	min    float64
	max    float64
}

type columnBands struct {
	bands []columnBand
}

type columnCell struct {
	text string
	bbox drawing.Rect
}

// newColumnBands derives column extents from the header tokens: each column
// reaches halfway to its neighbors, with half a column width of slack at the
// outer edges.
func newColumnBands(header []indexedToken, roles []ColumnRole) *columnBands {
	bands := make([]columnBand, len(header))
	for i, t := range header {
		bands[i] = columnBand{
			role:   roles[i],
			center: t.BBox.X + t.BBox.Width/2,
		}
	}
	for i := range bands {
		switch {
		case i == 0:
			bands[i].min = bands[i].center - 72
		default:
			bands[i].min = (bands[i-1].center + bands[i].center) / 2
		}
		switch {
		case i == len(bands)-1:
			bands[i].max = bands[i].center + 144
		default:
			bands[i].max = (bands[i].center + bands[i+1].center) / 2
		}
	}
	return &columnBands{bands: bands}
}

// assignRow distributes one row's tokens over the column bands. A token
// counts as aligned when the majority of its width falls into a single band;
// it joins that band's cell. Returns the per-column cells and the aligned
// token count.
func (c *columnBands) assignRow(tokens []indexedToken) ([]columnCell, int) {
	cells := make([]columnCell, len(c.bands))
	aligned := 0
	for _, t := range tokens {
		ci := -1
		best := 0.0
		for i, b := range c.bands {
			overlap := t.BBox.XOverlap(drawing.Rect{X: b.min, Width: b.max - b.min})
			if overlap > best {
				best = overlap
				ci = i
			}
		}
		if ci < 0 || best*2 < t.BBox.Width {
			continue
		}
		aligned++
		cells[ci].text = joinCell(cells[ci].text, t.Text)
		cells[ci].bbox = cells[ci].bbox.Union(t.BBox)
	}
	return cells, aligned
}

func (c *columnBands) roles() []ColumnRole {
	out := make([]ColumnRole, len(c.bands))
	for i, b := range c.bands {
		out[i] = b.role
	}
	return out
}

func (c *columnBands) hasRole(role ColumnRole) bool {
	for _, b := range c.bands {
		if b.role == role {
			return true
		}
	}
	return false
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
