// Package geometry provides the pure computational-geometry functions the
// simulation uses to arbitrate territory capture: point-in-polygon tests,
// segment intersection, boundary-arc extraction, winding/area, simplification
// and capture-polygon construction. Every function here is side-effect free
// and safe to call from any goroutine.
package geometry

import "math"

// Point is a single coordinate in world space.
type Point struct {
	X, Y float64
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// DistanceTo returns the Euclidean distance between p and q.
func (p Point) DistanceTo(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// SquaredDistanceTo returns the squared Euclidean distance between p and q,
// useful when only relative ordering matters (avoids a sqrt).
func (p Point) SquaredDistanceTo(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// IsFinite reports whether both coordinates are finite (no NaN/Inf).
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}
