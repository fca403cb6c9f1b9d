// internal/dom/geometry.go
package dom

import "math"

// Rect is an axis-aligned rectangle in viewport coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns the rectangle's area; degenerate rectangles have area 0.
func (r Rect) Area() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// IntersectionArea returns the overlap area of two rectangles, 0 when they
// are disjoint.
func (r Rect) IntersectionArea(other Rect) float64 {
	xOverlap := math.Max(0, math.Min(r.X+r.Width, other.X+other.Width)-math.Max(r.X, other.X))
	yOverlap := math.Max(0, math.Min(r.Y+r.Height, other.Y+other.Height)-math.Max(r.Y, other.Y))
	return xOverlap * yOverlap
}

// ContainmentRatio returns the fraction of r's area covered by container.
// A zero-area r is never considered contained and yields 0.
func (r Rect) ContainmentRatio(container Rect) float64 {
	area := r.Area()
	if area == 0 {
		return 0
	}
	return r.IntersectionArea(container) / area
}

// ContainedIn reports whether r is contained in container at or above the
// given ratio threshold.
func (r Rect) ContainedIn(container Rect, threshold float64) bool {
	return r.ContainmentRatio(container) >= threshold
}
