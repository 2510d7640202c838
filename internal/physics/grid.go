package physics

import (
	"math"
	"sort"
)

// SpatialGrid is a uniform grid for broad-phase collision detection over a
// bounded playfield. Items are inserted by center position and index, then
// nearby items are found through a 3x3 neighborhood lookup.
//
// Cell size must be >= the largest center-to-center distance at which two
// items can still overlap, so every potential collision lands in the
// neighborhood. Positions outside the playfield clamp to the edge cells.
type SpatialGrid struct {
	cellSize    float64
	invCellSize float64
	cols        int
	rows        int
	cells       []gridCell
}

// gridCell stores the indices of items whose center falls within the cell.
// The slice is reused between ticks (reset to [:0]).
type gridCell struct {
	items []int
}

// NewSpatialGrid creates a grid covering width x height.
func NewSpatialGrid(width, height, cellSize float64) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 1
	}
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	return &SpatialGrid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       make([]gridCell, cols*rows),
	}
}

// CellSize returns the grid's cell size.
func (g *SpatialGrid) CellSize() float64 {
	return g.cellSize
}

// Clear removes all items without deallocating cell memory.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i].items = g.cells[i].items[:0]
	}
}

// Insert adds an item (identified by index) at the given position.
func (g *SpatialGrid) Insert(x, y float64, index int) {
	col, row := g.posToCell(x, y)
	idx := row*g.cols + col
	g.cells[idx].items = append(g.cells[idx].items, index)
}

// QueryAround calls fn for each item index in the 3x3 cell neighborhood
// around the given position. If fn returns true, iteration stops early.
func (g *SpatialGrid) QueryAround(x, y float64, fn func(index int) bool) {
	col, row := g.posToCell(x, y)

	for r := row - 1; r <= row+1; r++ {
		if r < 0 || r >= g.rows {
			continue
		}
		rowOffset := r * g.cols
		for c := col - 1; c <= col+1; c++ {
			if c < 0 || c >= g.cols {
				continue
			}
			for _, itemIdx := range g.cells[rowOffset+c].items {
				if fn(itemIdx) {
					return
				}
			}
		}
	}
}

// Candidates appends the neighborhood of (x, y) to buf in ascending index
// order, so callers that pick the first match get a stable answer no matter
// which cell an item sits in.
func (g *SpatialGrid) Candidates(x, y float64, buf []int) []int {
	buf = buf[:0]
	g.QueryAround(x, y, func(i int) bool {
		buf = append(buf, i)
		return false
	})
	sort.Ints(buf)
	return buf
}

// posToCell converts coordinates to cell coordinates, clamping to the grid.
func (g *SpatialGrid) posToCell(x, y float64) (col, row int) {
	col = int(math.Floor(x * g.invCellSize))
	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}

	row = int(math.Floor(y * g.invCellSize))
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}

	return col, row
}
