package descriptions

// Tool descriptions with practical examples and use cases

const (
	BOMExtractFileDescription = `Extract a bill of materials from a technical drawing PDF.

**When to use:** Need the parts list of an engineering drawing, whether or not the drawing contains a formal BOM table.

**Why it's useful:** Detects tabular BOM blocks via multilingual (German/English) header recognition and falls back to interpreting callouts, free-text part listings and repeated vector geometry when no table exists. Every item carries a confidence score and the sources that produced it.

**Examples:**
• Parts list from a piping isometric: "Extract the BOM from iso-4711.pdf"
• Drawings without tables: "Get the parts implied by callouts in detail-A.pdf"

**Common workflows:**
1. Extraction & Review: bom_extract_file → review items → bom_record_feedback per item
2. Batch intake: bom_validate_file → bom_extract_file → store items

**Best practices:** Check the 'mode' field of the result: 'table' means a real BOM table was read, 'interpreted' means the items were synthesized and deserve closer review.`

	BOMRecordFeedbackDescription = `Record a user verdict for an extracted BOM item.

**When to use:** After reviewing an extraction result, to tell the tool which items were right and which were not.

**Why it's useful:** Verdicts adapt the confidence signal weights, so future extractions on similar drawings score more accurately. Every verdict is kept in an append-only event log.

**Examples:**
• Confirm an item: verdict 'correct' for the item key from a previous extraction
• Flag a bad item: verdict 'needs_review' to weaken the signals that produced it

**Best practices:** Use the 'item_key' field exactly as returned by bom_extract_file; keys are stable across runs for the same part.`

	BOMFeedbackStatsDescription = `Show aggregate feedback statistics and the current signal weights.

**When to use:** To inspect how much feedback has been recorded and how the confidence weights have drifted from their defaults.

**Examples:**
• Health check: "How many verdicts were recorded and what is the correct ratio?"
• Weight audit: "Which signals carry the most weight right now?"`

	BOMValidateFileDescription = `Verify that a file is a structurally valid, processable PDF drawing.

**When to use:** Before extraction, especially in automated workflows or when handling user uploads.

**Why it's useful:** Prevents processing errors and identifies corrupted or oversized files early.

**Common workflows:**
1. Automated Processing: Validate → Extract if valid → Handle errors gracefully
2. File Quality Check: Validate → Report issues → Fix or reject bad files

**Best practices:** Always run this first in automated pipelines handling unknown PDFs.`
)
