package alto

import (
	"fmt"
	"strconv"
	"strings"
)

// BoundingBox is a two-corner rectangle in page coordinates, with the origin
// in the top-left corner of the page.
type BoundingBox struct {
	X1 int // Left coordinate
	Y1 int // Top coordinate
	X2 int // Right coordinate
	Y2 int // Bottom coordinate
}

// NewBoundingBox creates a bounding box from two corner coordinates.
// x1, y1 is the top-left corner and x2, y2 the bottom-right corner.
func NewBoundingBox(x1, y1, x2, y2 int) BoundingBox {
	return BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// AreaPosition is ALTO's rectangle form: a top-left corner plus extents,
// stored as the HPOS, VPOS, WIDTH, and HEIGHT attributes.
type AreaPosition struct {
	X      int
	Y      int
	Width  int
	Height int
}

// AreaPosition converts the box to ALTO area-position form. The conversion
// is exact for integer inputs; a box with x2 < x1 or y2 < y1 yields negative
// extents rather than being corrected, signaling a caller error.
func (b BoundingBox) AreaPosition() AreaPosition {
	return AreaPosition{X: b.X1, Y: b.Y1, Width: b.X2 - b.X1, Height: b.Y2 - b.Y1}
}

// Box converts back to two-corner form.
func (a AreaPosition) Box() BoundingBox {
	return BoundingBox{X1: a.X, Y1: a.Y, X2: a.X + a.Width, Y2: a.Y + a.Height}
}

// Translate shifts the box by dx, dy. Recognition results arrive in
// crop-local coordinates; translating by the crop's page-space origin maps
// them back to page coordinates.
func (b BoundingBox) Translate(dx, dy int) BoundingBox {
	return BoundingBox{X1: b.X1 + dx, Y1: b.Y1 + dy, X2: b.X2 + dx, Y2: b.Y2 + dy}
}

// Padding expands a line box before cropping, per side, in pixels.
type Padding struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// UniformPadding applies the same value to all four sides.
func UniformPadding(n int) Padding {
	return Padding{Left: n, Top: n, Right: n, Bottom: n}
}

// ParsePadding parses a padding spec: either a single value applied to all
// sides ("5") or four comma-separated values in left, top, right, bottom
// order ("8,3,6,3"). Values must be non-negative integers.
func ParsePadding(s string) (Padding, error) {
	parts := strings.Split(s, ",")
	vals := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Padding{}, fmt.Errorf("invalid padding value %q", part)
		}
		if n < 0 {
			return Padding{}, fmt.Errorf("negative padding value %d", n)
		}
		vals = append(vals, n)
	}
	switch len(vals) {
	case 1:
		return UniformPadding(vals[0]), nil
	case 4:
		return Padding{Left: vals[0], Top: vals[1], Right: vals[2], Bottom: vals[3]}, nil
	}
	return Padding{}, fmt.Errorf("padding needs 1 or 4 values, got %d", len(vals))
}

// IsZero reports whether no padding is configured.
func (p Padding) IsZero() bool {
	return p.Left == 0 && p.Top == 0 && p.Right == 0 && p.Bottom == 0
}

// Apply expands box by the padding values, but only when all four expanded
// edges stay inside [0, imageWidth] x [0, imageHeight]. The check is
// conjunctive across the edges: if any one falls outside, the original box
// is returned unchanged. This avoids degenerate crops near page edges.
func (p Padding) Apply(box BoundingBox, imageWidth, imageHeight int) BoundingBox {
	padded := BoundingBox{
		X1: box.X1 - p.Left,
		Y1: box.Y1 - p.Top,
		X2: box.X2 + p.Right,
		Y2: box.Y2 + p.Bottom,
	}
	if padded.X1 < 0 || padded.Y1 < 0 || padded.X2 > imageWidth || padded.Y2 > imageHeight {
		return box
	}
	return padded
}
