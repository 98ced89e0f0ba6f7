package model

import "math"

// Point represents a 2D point
type Point struct {
	X, Y float64
}

// BBox is an axis-aligned rectangle in page points. X and Y locate the
// top-left corner.
type BBox struct {
	X      float64 // Left
	Y      float64 // Top
	Width  float64
	Height float64
}

// NewBBox creates a bounding box from coordinates
func NewBBox(x, y, width, height float64) BBox {
	return BBox{X: x, Y: y, Width: width, Height: height}
}

// Left returns the left edge X coordinate
func (b BBox) Left() float64 { return b.X }

// Right returns the right edge X coordinate
func (b BBox) Right() float64 { return b.X + b.Width }

// Top returns the top edge Y coordinate
func (b BBox) Top() float64 { return b.Y }

// Bottom returns the bottom edge Y coordinate
func (b BBox) Bottom() float64 { return b.Y + b.Height }

// Center returns the center point
func (b BBox) Center() Point {
	return Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// Intersects checks if two bounding boxes overlap with positive area
func (b BBox) Intersects(other BBox) bool {
	return b.Left() < other.Right() && other.Left() < b.Right() &&
		b.Top() < other.Bottom() && other.Top() < b.Bottom()
}

// Intersection returns the overlapping region, or an empty box
func (b BBox) Intersection(other BBox) BBox {
	if !b.Intersects(other) {
		return BBox{}
	}
	x := math.Max(b.Left(), other.Left())
	y := math.Max(b.Top(), other.Top())
	return BBox{
		X:      x,
		Y:      y,
		Width:  math.Min(b.Right(), other.Right()) - x,
		Height: math.Min(b.Bottom(), other.Bottom()) - y,
	}
}

// Union returns the smallest box containing both boxes. An empty box is
// treated as the identity.
func (b BBox) Union(other BBox) BBox {
	if b.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return b
	}
	x := math.Min(b.Left(), other.Left())
	y := math.Min(b.Top(), other.Top())
	return BBox{
		X:      x,
		Y:      y,
		Width:  math.Max(b.Right(), other.Right()) - x,
		Height: math.Max(b.Bottom(), other.Bottom()) - y,
	}
}

// Area returns the area of the bounding box
func (b BBox) Area() float64 {
	if b.IsEmpty() {
		return 0
	}
	return b.Width * b.Height
}

// Expand grows the bounding box by a margin on all sides
func (b BBox) Expand(margin float64) BBox {
	return BBox{
		X:      b.X - margin,
		Y:      b.Y - margin,
		Width:  b.Width + 2*margin,
		Height: b.Height + 2*margin,
	}
}

// Scale multiplies every coordinate by f. It converts between pixel and
// point spaces.
func (b BBox) Scale(f float64) BBox {
	return BBox{X: b.X * f, Y: b.Y * f, Width: b.Width * f, Height: b.Height * f}
}

// Coverage returns the share of b's area that lies inside other, in [0,1].
// An empty b is not covered.
func (b BBox) Coverage(other BBox) float64 {
	area := b.Area()
	if area <= 0 {
		return 0
	}
	return b.Intersection(other).Area() / area
}

// IoU returns the intersection-over-union of two boxes in [0,1].
func (b BBox) IoU(other BBox) float64 {
	inter := b.Intersection(other).Area()
	if inter == 0 {
		return 0
	}
	union := b.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// IsEmpty returns true if the bounding box has zero area
func (b BBox) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// IsValid returns true if the bounding box has positive dimensions
func (b BBox) IsValid() bool {
	return b.Width > 0 && b.Height > 0
}
