// Package spatial provides cache-efficient spatial data structures for
// broad-phase collision detection and neighbor queries.
//
// All structures use preallocated slices to minimize GC pressure and
// maximize cache locality.
package spatial

import "math"

// ItemKind distinguishes the two kinds of segment a SpatialHash can hold.
// Territory items are only used for identity/debugging; collision logic in
// the owning package treats only trail items as solid.
type ItemKind int

const (
	KindTrail ItemKind = iota
	KindTerritory
)

// Item is a single line segment tagged into the hash: either one edge of a
// player's trail or one edge of a player's territory polygon.
type Item struct {
	Kind     ItemKind
	PlayerID string
	P1, P2   struct{ X, Y float64 }
	// Index is the trail-array index of P1. Required by the self-collision
	// debounce rule (current head minus this index must exceed a threshold).
	Index int
}

// SpatialHash is a uniform grid index of line segments. Cell size equals the
// grid's only tuning knob; callers insert each segment into the cells
// containing both endpoints and the midpoint, which is a cheap approximation
// that is accurate enough because per-tick movement is small relative to a
// cell's width.
type SpatialHash struct {
	cellSize    float64
	invCellSize float64
	cols, rows  int
	originX     float64
	originY     float64
	cells       [][]Item
	scratch     []Item
}

// NewSpatialHash builds a hash covering [originX, originX+width) x
// [originY, originY+height) with square cells of the given size.
func NewSpatialHash(originX, originY, width, height, cellSize float64) *SpatialHash {
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][]Item, cols*rows)
	for i := range cells {
		cells[i] = make([]Item, 0, 4)
	}

	return &SpatialHash{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cols:        cols,
		rows:        rows,
		originX:     originX,
		originY:     originY,
		cells:       cells,
		scratch:     make([]Item, 0, 64),
	}
}

// Clear empties every bucket without deallocating the underlying arrays.
func (h *SpatialHash) Clear() {
	for i := range h.cells {
		h.cells[i] = h.cells[i][:0]
	}
}

func (h *SpatialHash) cellCoords(x, y float64) (col, row int) {
	col = int((x - h.originX) * h.invCellSize)
	row = int((y - h.originY) * h.invCellSize)
	if col < 0 {
		col = 0
	}
	if col >= h.cols {
		col = h.cols - 1
	}
	if row < 0 {
		row = 0
	}
	if row >= h.rows {
		row = h.rows - 1
	}
	return col, row
}

func (h *SpatialHash) bucketAt(x, y float64) int {
	col, row := h.cellCoords(x, y)
	return row*h.cols + col
}

// Insert tags obj into the (at most three) cells containing p1, p2, and their
// midpoint. Duplicate cell keys are fine: a bucket simply receives the item
// more than once, which Query tolerates since callers narrow-phase check the
// actual segment afterward.
func (h *SpatialHash) Insert(obj Item, p1x, p1y, p2x, p2y float64) {
	midx, midy := (p1x+p2x)/2, (p1y+p2y)/2

	obj.P1.X, obj.P1.Y = p1x, p1y
	obj.P2.X, obj.P2.Y = p2x, p2y

	idx1 := h.bucketAt(p1x, p1y)
	idx2 := h.bucketAt(p2x, p2y)
	idx3 := h.bucketAt(midx, midy)

	h.cells[idx1] = append(h.cells[idx1], obj)
	if idx2 != idx1 {
		h.cells[idx2] = append(h.cells[idx2], obj)
	}
	if idx3 != idx1 && idx3 != idx2 {
		h.cells[idx3] = append(h.cells[idx3], obj)
	}
}

// Query returns every item tagged into the 3x3 neighborhood of cells around
// (x, y). The returned slice is reused across calls; copy it if it must
// outlive the next Query.
func (h *SpatialHash) Query(x, y float64) []Item {
	h.scratch = h.scratch[:0]

	col, row := h.cellCoords(x, y)
	for dr := -1; dr <= 1; dr++ {
		r := row + dr
		if r < 0 || r >= h.rows {
			continue
		}
		for dc := -1; dc <= 1; dc++ {
			c := col + dc
			if c < 0 || c >= h.cols {
				continue
			}
			h.scratch = append(h.scratch, h.cells[r*h.cols+c]...)
		}
	}
	return h.scratch
}

// Dimensions returns the grid dimensions, mainly for diagnostics.
func (h *SpatialHash) Dimensions() (cols, rows int, cellSize float64) {
	return h.cols, h.rows, h.cellSize
}
