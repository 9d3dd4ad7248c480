package bom

import "fmt"

// NoExtractableContentError is returned when every page was attempted and no
// component produced a single primitive to work with.
type NoExtractableContentError struct {
	PagesTried int
}

func (e *NoExtractableContentError) Error() string {
	return fmt.Sprintf("no extractable content: %d page(s) attempted, none yielded primitives", e.PagesTried)
}
