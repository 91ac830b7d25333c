package geometry

// SegmentIntersect returns the intersection point of segments A-B and C-D,
// using the standard parametric line form. A zero denominator (parallel or
// collinear segments) is treated as no intersection. The second return value
// reports whether an intersection point was found.
func SegmentIntersect(a, b, c, d Point) (Point, bool) {
	denom := (d.Y-c.Y)*(b.X-a.X) - (d.X-c.X)*(b.Y-a.Y)
	if denom == 0 {
		return Point{}, false
	}

	ua := ((d.X-c.X)*(a.Y-c.Y) - (d.Y-c.Y)*(a.X-c.X)) / denom
	ub := ((b.X-a.X)*(a.Y-c.Y) - (b.Y-a.Y)*(a.X-c.X)) / denom

	if ua < 0 || ua > 1 || ub < 0 || ub > 1 {
		return Point{}, false
	}

	return Point{
		X: a.X + ua*(b.X-a.X),
		Y: a.Y + ua*(b.Y-a.Y),
	}, true
}

// BoundaryHit is the result of FindBoundaryIntersection: the intersection
// point and the index of the polygon edge (poly[edge] -> poly[edge+1 mod n])
// that was crossed.
type BoundaryHit struct {
	Point Point
	Edge  int
}

// FindBoundaryIntersection returns the first edge (lowest index) of poly
// whose segment intersects p1->p2.
func FindBoundaryIntersection(p1, p2 Point, poly []Point) (BoundaryHit, bool) {
	n := len(poly)
	for i := 0; i < n; i++ {
		edgeA := poly[i]
		edgeB := poly[(i+1)%n]
		if pt, ok := SegmentIntersect(p1, p2, edgeA, edgeB); ok {
			return BoundaryHit{Point: pt, Edge: i}, true
		}
	}
	return BoundaryHit{}, false
}

// ExtractBoundaryArc walks poly forward from (startEdge+1)%n up to and
// including endEdge, returning the ordered boundary vertices strictly
// between the two intersection points (exclusive of the intersection points
// themselves, which the caller prepends/appends).
func ExtractBoundaryArc(poly []Point, startEdge, endEdge int) []Point {
	n := len(poly)
	if n == 0 {
		return nil
	}

	arc := make([]Point, 0, n)
	i := (startEdge + 1) % n
	for {
		arc = append(arc, poly[i])
		if i == endEdge {
			break
		}
		i = (i + 1) % n
	}
	return arc
}

// NearestVertexIndex returns the index of the polygon vertex closest to p.
// Used to synthesize an edge index when a tunneling entry has no literal
// boundary intersection.
func NearestVertexIndex(p Point, poly []Point) int {
	best := -1
	bestDist := -1.0
	for i, v := range poly {
		d := p.SquaredDistanceTo(v)
		if best == -1 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
