// Package grid provides the fixed rectangular battle grid.
package grid

// CellFloor is the only cell value currently generated.
const CellFloor = 0

// Grid is a rectangular battle map. Cells is indexed [y][x] and serialises
// as rows of cell values, matching the client wire shape.
//
// Invariant: len(Cells) == Height and len(Cells[y]) == Width for every row.
type Grid struct {
	Width  int
	Height int
	Cells  [][]int
}

// NewFloor creates a width×height grid of floor cells.
//
// Precondition: width and height must be >= 1.
func NewFloor(width, height int) *Grid {
	cells := make([][]int, height)
	for y := range cells {
		cells[y] = make([]int, width)
	}
	return &Grid{Width: width, Height: height, Cells: cells}
}

// InBounds reports whether (x, y) lies on the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// Corners returns the four corner cells in spawn-preference order:
// top-left, top-right, bottom-left, bottom-right.
func (g *Grid) Corners() [4][2]int {
	return Corners(g.Width, g.Height)
}

// Corners returns the four corner cells of a width×height grid in
// spawn-preference order. Usable before any grid has been generated, since
// spawn placement happens for sessions still in the waiting state.
func Corners(width, height int) [4][2]int {
	return [4][2]int{
		{0, 0},
		{width - 1, 0},
		{0, height - 1},
		{width - 1, height - 1},
	}
}
