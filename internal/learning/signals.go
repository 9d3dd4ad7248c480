package learning

// Signal names produced by the extraction pipeline. The engine weights any
// named signal, but these are the ones the default weight table covers.
const (
	// SignalHeaderMatch is the fraction of recognized header columns in
	// the table region an item came from.
	SignalHeaderMatch = "header_match_strength"

	// SignalColumnAlignment is the bounding-box x-overlap consistency of
	// the table rows an item came from.
	SignalColumnAlignment = "column_alignment_consistency"

	// SignalGeometryClusterSize reflects how many repeated shapes backed a
	// geometry-derived item.
	SignalGeometryClusterSize = "geometry_cluster_size"

	// SignalGeometryTightness reflects how uniform the member dimensions
	// of a geometry cluster were.
	SignalGeometryTightness = "geometry_cluster_tightness"

	// SignalLexicalKeyword is set when part-type keywords matched the item
	// description or part number.
	SignalLexicalKeyword = "lexical_keyword_strength"

	// SignalCalloutPrefix is set when an annotation item carried an
	// explicit numbered callout tag.
	SignalCalloutPrefix = "callout_numeric_prefix"

	// SignalSourceCount reflects how many extraction sources contributed
	// to a merged item.
	SignalSourceCount = "source_count"

	// SignalExtractionReliability carries the producing component's base
	// score (table > annotation > geometry).
	SignalExtractionReliability = "extraction_reliability"
)

// DefaultWeights returns the prior weight table. Weights sum to 1 and the
// engine keeps that mass constant across feedback updates so confidences
// remain comparable between runs.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		SignalHeaderMatch:           0.20,
		SignalColumnAlignment:       0.15,
		SignalLexicalKeyword:        0.15,
		SignalGeometryClusterSize:   0.10,
		SignalGeometryTightness:     0.10,
		SignalCalloutPrefix:         0.10,
		SignalSourceCount:           0.10,
		SignalExtractionReliability: 0.10,
	}
}
