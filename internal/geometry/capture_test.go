package geometry

import "testing"

// A 100x100 square territory centered at the origin. Its SignedArea is
// negative (counterclockwise in this package's convention); ComputeCapture
// does not depend on the winding of its input.
func captureTestTerritory() []Point {
	return []Point{
		{-50, -50},
		{50, -50},
		{50, 50},
		{-50, 50},
	}
}

func TestComputeCaptureSameEdgePrefersLargerCandidate(t *testing.T) {
	territory := captureTestTerritory()

	// Trail bulges outward from the top edge (index 0: (-50,-50)->(50,-50)),
	// exiting and re-entering through that same edge.
	trail := []Point{{-20, -200}, {20, -200}}
	exitPt := Point{-20, -50}
	entryPt := Point{20, -50}

	result := ComputeCapture(territory, trail, exitPt, 0, entryPt, 0)
	if len(result) == 0 {
		t.Fatal("expected a non-empty capture polygon")
	}

	loopArea := Area(append(append([]Point{exitPt}, trail...), entryPt))
	if Area(result) <= loopArea {
		t.Errorf("expected the larger expansion candidate to win: got area %f, loop-only area %f", Area(result), loopArea)
	}
}

func TestComputeCaptureSameEdgeTinyNotchStillExpands(t *testing.T) {
	territory := captureTestTerritory()

	// A tiny notch barely poking out of the top edge: the loop-only candidate
	// encloses just 2 square units, while the expansion candidate also sweeps
	// the rest of the boundary (10002), so the expansion still wins.
	trail := []Point{{-1, -51}, {1, -51}}
	exitPt := Point{-1, -50}
	entryPt := Point{1, -50}

	result := ComputeCapture(territory, trail, exitPt, 0, entryPt, 0)
	loopOnly := append(append([]Point{exitPt}, trail...), entryPt)
	expansion := append(append([]Point{}, loopOnly...), territory[1], territory[2], territory[3], territory[0])

	if Area(result) != Area(expansion) {
		t.Errorf("expected expansion candidate (area %f) to win over loop-only (area %f), got area %f", Area(expansion), Area(loopOnly), Area(result))
	}
}

func TestComputeCaptureDifferentEdgePicksLargerArc(t *testing.T) {
	territory := captureTestTerritory()

	// Trail runs outside the square from the top edge (0) to the right edge
	// (1), around the top-right corner. Both candidate arcs (short way and long way
	// around) are legal closed polygons; the larger-area one must win.
	trail := []Point{{0, -60}, {60, 0}}
	exitPt := Point{0, -50}
	entryPt := Point{50, 0}

	result := ComputeCapture(territory, trail, exitPt, 0, entryPt, 1)
	if len(result) == 0 {
		t.Fatal("expected a non-empty capture polygon")
	}

	arcA := ExtractBoundaryArc(territory, 0, 1)
	arcB := ExtractBoundaryArc(territory, 1, 0)

	base := append(append([]Point{exitPt}, trail...), entryPt)

	candidateA := append(append([]Point{}, base...), reversePoints(arcA)...)
	candidateB := append(append([]Point{}, base...), arcB...)

	want := candidateA
	if Area(candidateB) > Area(candidateA) {
		want = candidateB
	}

	if Area(result) != Area(want) {
		t.Errorf("expected the larger-area candidate (area %f) to win, got area %f", Area(want), Area(result))
	}
}

func reversePoints(pts []Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

func TestComputeCaptureResultIsFinite(t *testing.T) {
	territory := captureTestTerritory()
	trail := []Point{{-20, -200}, {20, -200}}
	exitPt := Point{-20, -50}
	entryPt := Point{20, -50}

	result := ComputeCapture(territory, trail, exitPt, 0, entryPt, 0)
	for _, p := range result {
		if !p.IsFinite() {
			t.Fatalf("capture result contains a non-finite point: %v", p)
		}
	}
}
