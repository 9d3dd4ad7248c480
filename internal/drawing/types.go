package drawing

// Rect represents an axis-aligned bounding box in page coordinates
// (points, origin in the lower-left corner as produced by PDF libraries).
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// MaxX returns the right edge of the rectangle.
func (r Rect) MaxX() float64 { return r.X + r.Width }

// MaxY returns the top edge of the rectangle.
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// IsZero reports whether the rectangle is the zero value.
func (r Rect) IsZero() bool {
	return r.X == 0 && r.Y == 0 && r.Width == 0 && r.Height == 0
}

// Overlaps reports whether two rectangles share any area.
func (r Rect) Overlaps(other Rect) bool {
	return r.X < other.MaxX() && other.X < r.MaxX() &&
		r.Y < other.MaxY() && other.Y < r.MaxY()
}

// Union returns the smallest rectangle covering both r and other.
// A zero rectangle acts as the identity so unions can be accumulated.
func (r Rect) Union(other Rect) Rect {
	if r.IsZero() {
		return other
	}
	if other.IsZero() {
		return r
	}
	minX := r.X
	if other.X < minX {
		minX = other.X
	}
	minY := r.Y
	if other.Y < minY {
		minY = other.Y
	}
	maxX := r.MaxX()
	if other.MaxX() > maxX {
		maxX = other.MaxX()
	}
	maxY := r.MaxY()
	if other.MaxY() > maxY {
		maxY = other.MaxY()
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// XOverlap returns the horizontal overlap between two rectangles in points.
func (r Rect) XOverlap(other Rect) float64 {
	left := r.X
	if other.X > left {
		left = other.X
	}
	right := r.MaxX()
	if other.MaxX() < right {
		right = other.MaxX()
	}
	if right <= left {
		return 0
	}
	return right - left
}

// TextToken is a positioned run of text on a page.
type TextToken struct {
	Text string  `json:"text"`
	BBox Rect    `json:"bbox"`
	Page int     `json:"page"`
	Font string  `json:"font,omitempty"`
	Size float64 `json:"font_size,omitempty"`
}

// GeometryKind identifies the primitive shape class.
type GeometryKind string

const (
	GeometryLine  GeometryKind = "line"
	GeometryRect  GeometryKind = "rect"
	GeometryCurve GeometryKind = "curve"
)

// Geometry is a vector drawing primitive on a page.
type Geometry struct {
	Kind   GeometryKind `json:"kind"`
	BBox   Rect         `json:"bbox"`
	Page   int          `json:"page"`
	Filled bool         `json:"filled,omitempty"`
	// Closed marks curves that return to their start point (rings,
	// circles). Always false for lines and rectangles.
	Closed bool `json:"closed,omitempty"`
}

// PagePrimitives holds everything the provider extracted from one page.
type PagePrimitives struct {
	Page       int         `json:"page"`
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	TextTokens []TextToken `json:"text_tokens"`
	Geometries []Geometry  `json:"geometries"`
}

// HasContent reports whether the page yielded any primitives at all.
func (p *PagePrimitives) HasContent() bool {
	return len(p.TextTokens) > 0 || len(p.Geometries) > 0
}
