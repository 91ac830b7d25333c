package geometry

import "math"

// PointInPolygon reports whether p lies inside the closed polygon poly using
// even-odd ray casting. Edges run from poly[i] to poly[(i+1)%n]; the classic
// yi > p.y != yj > p.y asymmetric comparison decides ties at shared vertices.
func PointInPolygon(p Point, poly []Point) bool {
	n := len(poly)
	if n < 3 {
		return false
	}

	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		vi, vj := poly[i], poly[j]
		if (vi.Y > p.Y) != (vj.Y > p.Y) {
			xIntercept := vi.X + (p.Y-vi.Y)/(vj.Y-vi.Y)*(vj.X-vi.X)
			if p.X < xIntercept {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// SignedArea computes the shoelace signed area of poly. A positive value is
// what this package calls clockwise winding: the vertices turn clockwise
// when plotted with y increasing upward (on a y-down screen the same polygon
// appears counterclockwise).
func SignedArea(poly []Point) float64 {
	n := len(poly)
	if n < 3 {
		return 0
	}

	sum := 0.0
	j := n - 1
	for i := 0; i < n; i++ {
		sum += (poly[j].X + poly[i].X) * (poly[j].Y - poly[i].Y)
		j = i
	}
	return sum / 2
}

// Area returns the unsigned area enclosed by poly.
func Area(poly []Point) float64 {
	return math.Abs(SignedArea(poly))
}

// EnsureClockwise returns poly with clockwise winding, reversing it first if
// SignedArea is negative. It does not mutate the input slice.
func EnsureClockwise(poly []Point) []Point {
	if SignedArea(poly) >= 0 {
		out := make([]Point, len(poly))
		copy(out, poly)
		return out
	}

	out := make([]Point, len(poly))
	for i, p := range poly {
		out[len(poly)-1-i] = p
	}
	return out
}

// SimplifyPolygon greedily retains poly[0] and any subsequent vertex whose
// squared distance from the last kept vertex exceeds tol*tol. Because the
// first vertex is always kept, closure of the implied polygon is preserved.
func SimplifyPolygon(poly []Point, tol float64) []Point {
	if len(poly) == 0 {
		return nil
	}

	tolSq := tol * tol
	kept := make([]Point, 0, len(poly))
	kept = append(kept, poly[0])

	for i := 1; i < len(poly); i++ {
		if poly[i].SquaredDistanceTo(kept[len(kept)-1]) > tolSq {
			kept = append(kept, poly[i])
		}
	}
	return kept
}

// IsValidTerritory reports whether poly satisfies the invariants required of
// a committed territory: at least minVerts vertices, every coordinate finite,
// and an unsigned area strictly greater than minArea.
func IsValidTerritory(poly []Point, minVerts int, minArea float64) bool {
	if len(poly) < minVerts {
		return false
	}
	for _, p := range poly {
		if !p.IsFinite() {
			return false
		}
	}
	area := Area(poly)
	return !math.IsNaN(area) && !math.IsInf(area, 0) && area > minArea
}
