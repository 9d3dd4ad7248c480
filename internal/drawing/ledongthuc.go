package drawing

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/ledongthuc/pdf"
)

const (
	// Default page size used when a page carries no resolvable MediaBox
	// (US Letter in points).
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0

	// Stroked rectangles thinner than this are reported as lines.
	lineThickness = 1.5

	// Maximum horizontal gap, relative to font size, bridged when merging
	// adjacent text runs into one token.
	tokenGapFactor = 0.35
)

// PDFProvider implements Provider on top of ledongthuc/pdf. It yields
// positioned text tokens and rectangle/line geometry. The library exposes
// neither curve operators nor fill attributes, so curve primitives and the
// Filled flag only appear through other Provider implementations.
type PDFProvider struct {
	file   *os.File
	reader *pdf.Reader
	path   string
}

// OpenPDF opens a PDF document as a primitive provider.
func OpenPDF(path string) (*PDFProvider, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, &InvalidInputError{Path: path, Err: err}
	}
	return &PDFProvider{file: f, reader: reader, path: path}, nil
}

// PageCount returns the number of pages in the document.
func (p *PDFProvider) PageCount() int {
	return p.reader.NumPage()
}

// Close closes the underlying file.
func (p *PDFProvider) Close() error {
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// PagePrimitives extracts text tokens and geometry from a zero-based page.
// The extraction runs in its own goroutine so a caller-supplied deadline on
// ctx bounds the call; on timeout the context error is surfaced unwrapped.
func (p *PDFProvider) PagePrimitives(ctx context.Context, pageIndex int) (*PagePrimitives, error) {
	if pageIndex < 0 || pageIndex >= p.reader.NumPage() {
		return nil, &UnreadablePageError{Page: pageIndex, Err: fmt.Errorf("page out of range (document has %d pages)", p.reader.NumPage())}
	}

	type outcome struct {
		prims *PagePrimitives
		err   error
	}
	ch := make(chan outcome, 1)
	go func() {
		prims, err := p.extractPage(pageIndex)
		ch <- outcome{prims: prims, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-ch:
		return out.prims, out.err
	}
}

func (p *PDFProvider) extractPage(pageIndex int) (prims *PagePrimitives, err error) {
	// ledongthuc/pdf panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			prims = nil
			err = &UnreadablePageError{Page: pageIndex, Err: fmt.Errorf("content stream decode failed: %v", r)}
		}
	}()

	page := p.reader.Page(pageIndex + 1)
	if page.V.IsNull() {
		return nil, &UnreadablePageError{Page: pageIndex, Err: fmt.Errorf("page object is null")}
	}

	width, height := pageSize(page)
	content := page.Content()

	result := &PagePrimitives{
		Page:   pageIndex,
		Width:  width,
		Height: height,
	}

	result.TextTokens = mergeTextRuns(content.Text, pageIndex)

	for _, r := range content.Rect {
		w := r.Max.X - r.Min.X
		h := r.Max.Y - r.Min.Y
		if w < 0 {
			w, r.Min.X = -w, r.Max.X
		}
		if h < 0 {
			h, r.Min.Y = -h, r.Max.Y
		}
		kind := GeometryRect
		if w < lineThickness || h < lineThickness {
			kind = GeometryLine
		}
		result.Geometries = append(result.Geometries, Geometry{
			Kind: kind,
			BBox: Rect{X: r.Min.X, Y: r.Min.Y, Width: w, Height: h},
			Page: pageIndex,
		})
	}

	return result, nil
}

// pageSize resolves the page MediaBox, walking up the page tree for
// inherited values. Falls back to US Letter when nothing resolves.
func pageSize(page pdf.Page) (float64, float64) {
	node := page.V
	for i := 0; i < 16 && !node.IsNull(); i++ {
		box := node.Key("MediaBox")
		if !box.IsNull() && box.Len() == 4 {
			w := box.Index(2).Float64() - box.Index(0).Float64()
			h := box.Index(3).Float64() - box.Index(1).Float64()
			if w > 0 && h > 0 {
				return w, h
			}
		}
		node = node.Key("Parent")
	}
	return defaultPageWidth, defaultPageHeight
}

// mergeTextRuns joins adjacent text runs on the same baseline into word-level
// tokens. PDF show-string operators frequently split words into fragments;
// runs separated by more than a fraction of the font size stay separate so
// table cells do not fuse across column gaps.
func mergeTextRuns(runs []pdf.Text, pageIndex int) []TextToken {
	if len(runs) == 0 {
		return nil
	}

	sorted := make([]pdf.Text, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y // top of page first
		}
		return sorted[i].X < sorted[j].X
	})

	var tokens []TextToken
	var cur *TextToken
	var curEnd float64

	flush := func() {
		if cur != nil && cur.Text != "" {
			tokens = append(tokens, *cur)
		}
		cur = nil
	}

	for _, run := range sorted {
		if run.S == "" {
			continue
		}
		size := run.FontSize
		if size <= 0 {
			size = 12.0
		}
		maxGap := tokenGapFactor * size
		if maxGap < 1.0 {
			maxGap = 1.0
		}

		sameLine := cur != nil && absFloat(run.Y-cur.BBox.Y) <= 0.5*size
		contiguous := sameLine && run.X >= curEnd-0.5 && run.X-curEnd <= maxGap

		if contiguous {
			cur.Text += run.S
			curEnd = run.X + run.W
			cur.BBox.Width = curEnd - cur.BBox.X
			if size > cur.BBox.Height {
				cur.BBox.Height = size
			}
			continue
		}

		flush()
		cur = &TextToken{
			Text: run.S,
			BBox: Rect{X: run.X, Y: run.Y, Width: run.W, Height: size},
			Page: pageIndex,
			Font: run.Font,
			Size: run.FontSize,
		}
		curEnd = run.X + run.W
	}
	flush()

	return tokens
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
