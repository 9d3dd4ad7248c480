package drawing

import (
	"context"
	"fmt"
)

// Provider supplies page primitives for a single open document. It is the
// boundary between the extraction pipeline and the underlying PDF library:
// the pipeline never touches PDF objects directly.
//
// Implementations must be safe for sequential use; pages are independent and
// a PagePrimitives call must not mutate provider state beyond caching.
type Provider interface {
	// PageCount returns the number of pages in the document.
	PageCount() int

	// PagePrimitives extracts the primitives of a single zero-based page.
	// It returns an *UnreadablePageError when the page cannot be decoded;
	// callers are expected to skip such pages and continue.
	PagePrimitives(ctx context.Context, pageIndex int) (*PagePrimitives, error)

	// Close releases the underlying document resources.
	Close() error
}

// InvalidInputError indicates the source is not a processable PDF document.
// It is fatal: no extraction pipeline runs against an invalid source.
type InvalidInputError struct {
	Path string
	Err  error
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %s: %v", e.Path, e.Err)
}

func (e *InvalidInputError) Unwrap() error { return e.Err }

// UnreadablePageError indicates a single page could not be decoded. The
// extraction pipeline records the page as not processed and continues.
type UnreadablePageError struct {
	Page int
	Err  error
}

func (e *UnreadablePageError) Error() string {
	return fmt.Sprintf("unreadable page %d: %v", e.Page, e.Err)
}

func (e *UnreadablePageError) Unwrap() error { return e.Err }
