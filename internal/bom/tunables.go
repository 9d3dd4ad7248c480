package bom

// Tunables collects the deterministic thresholds of the extraction pipeline.
// Values are fixed per extractor instance; nothing in here is learned.
type Tunables struct {
	// RowYTolerance is the max baseline distance (points) between tokens
	// grouped into the same table row.
	RowYTolerance float64

	// TableMinScore is the acceptance threshold for a table region.
	TableMinScore float64

	// TableBase is the base score for items read from an accepted table.
	TableBase float64

	// AnnotationDiscount is subtracted from TableBase for items that were
	// interpreted from callouts and free text.
	AnnotationDiscount float64

	// GeometryBase is the base score for items inferred from repeated
	// geometry alone.
	GeometryBase float64

	// GeometryMinClusterSize is the smallest repeated-shape group that
	// becomes a candidate item.
	GeometryMinClusterSize int

	// GeometryMinDimension filters out shapes smaller than this (points)
	// in both dimensions before clustering.
	GeometryMinDimension float64

	// PageFrameRatio marks shapes spanning at least this fraction of a
	// page dimension as drawing frames, not parts.
	PageFrameRatio float64

	// PageFrameMargin marks shapes this close (points) to all four page
	// edges as drawing frames.
	PageFrameMargin float64
}

// DefaultTunables returns the thresholds used unless overridden.
func DefaultTunables() Tunables {
	return Tunables{
		RowYTolerance:          3.0,
		TableMinScore:          2.5,
		TableBase:              0.9,
		AnnotationDiscount:     0.25,
		GeometryBase:           0.5,
		GeometryMinClusterSize: 2,
		GeometryMinDimension:   10.0,
		PageFrameRatio:         0.9,
		PageFrameMargin:        2.0,
	}
}
