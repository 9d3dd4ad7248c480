package bom

import (
	"github.com/lucaspbik/drawbom/internal/drawing"
)

// Source identifies which extraction strategy produced a candidate item.
type Source string

const (
	SourceTable      Source = "table"
	SourceAnnotation Source = "annotation"
	SourceGeometry   Source = "geometry"
)

// Mode describes how the extraction result was obtained.
type Mode string

const (
	// ModeTable means at least one tabular BOM region was accepted.
	ModeTable Mode = "table"

	// ModeInterpreted means the result was synthesized from callouts,
	// free text and repeated geometry.
	ModeInterpreted Mode = "interpreted"
)

// ColumnRole is the canonical meaning assigned to a table column.
type ColumnRole string

const (
	ColumnRolePosition    ColumnRole = "position"
	ColumnRolePartNumber  ColumnRole = "part_number"
	ColumnRoleDescription ColumnRole = "description"
	ColumnRoleQuantity    ColumnRole = "quantity"
	ColumnRoleUnit        ColumnRole = "unit"
	ColumnRoleMaterial    ColumnRole = "material"
	ColumnRoleComment     ColumnRole = "comment"
	ColumnRoleUnknown     ColumnRole = "unknown"
)

// ComponentCategory tags an item with a pipeline-component class.
type ComponentCategory string

const (
	ComponentPipeEnd ComponentCategory = "pipe_end"
	ComponentPipeRun ComponentCategory = "pipe_run"
	ComponentElbow   ComponentCategory = "elbow"
	ComponentPlate   ComponentCategory = "plate"
	ComponentFlange  ComponentCategory = "flange"
	ComponentOther   ComponentCategory = "other"
	ComponentNone    ComponentCategory = ""
)

// Verdict is the user judgement state of a reconciled item.
type Verdict string

const (
	VerdictUnrated     Verdict = "unrated"
	VerdictCorrect     Verdict = "correct"
	VerdictNeedsReview Verdict = "needs_review"
)

// Evidence references one primitive that contributed to an item.
type Evidence struct {
	Kind string       `json:"kind"` // "text" or a geometry kind
	Text string       `json:"text,omitempty"`
	BBox drawing.Rect `json:"bbox"`
	Page int          `json:"page"`
}

// CandidateItem is one potential BOM line produced by a single extraction
// component. Candidates are immutable after creation: the Reconciler merges
// them into BOMItems but never rewrites extracted field values.
type CandidateItem struct {
	Source      Source             `json:"source"`
	Page        int                `json:"page"`
	Position    string             `json:"position,omitempty"`
	PartNumber  string             `json:"part_number,omitempty"`
	Description string             `json:"description,omitempty"`
	Quantity    float64            `json:"quantity"`
	Unit        string             `json:"unit,omitempty"`
	Material    string             `json:"material,omitempty"`
	Comment     string             `json:"comment,omitempty"`
	Category    ComponentCategory  `json:"component_category,omitempty"`
	Region      drawing.Rect       `json:"region"`
	Evidence    []Evidence         `json:"raw_evidence,omitempty"`
	Signals     map[string]float64 `json:"signals,omitempty"`
	BaseScore   float64            `json:"base_score"`

	// SummedQuantity marks candidates whose quantity already aggregates
	// explicit repeated placements; the Reconciler sums such quantities on
	// merge instead of keeping the maximum.
	SummedQuantity bool `json:"-"`
}

// BOMItem is a reconciled, scored output record.
type BOMItem struct {
	CandidateItem

	// Key is a stable hash of part number, description and position used
	// to address the item in feedback events.
	Key        string   `json:"item_key"`
	Confidence float64  `json:"confidence"`
	Provenance []Source `json:"provenance"`
	Verdict    Verdict  `json:"verdict"`
}

// BOMExtractionResult is the complete outcome of one extraction call.
// Immutable once returned.
type BOMExtractionResult struct {
	ExtractionID        string       `json:"extraction_id"`
	Items               []BOMItem    `json:"items"`
	ColumnsFound        []ColumnRole `json:"columns_found"`
	Mode                Mode         `json:"mode"`
	AnnotationItemCount int          `json:"annotation_item_count"`
	GeometryItemCount   int          `json:"geometry_item_count"`
	PagesProcessed      []int        `json:"pages_processed"`
	PagesSkipped        []int        `json:"pages_skipped,omitempty"`
	TablesAccepted      int          `json:"tables_accepted"`
}

// HasProvenance reports whether src contributed to the item.
func (b *BOMItem) HasProvenance(src Source) bool {
	for _, s := range b.Provenance {
		if s == src {
			return true
		}
	}
	return false
}
