// Package game holds the pure board rules: grid geometry, gravity and the
// win/draw evaluation. Nothing here touches storage or transport.
package game

// Board dimensions. X grows to the right, Y grows upward from the bottom row.
const (
	Columns = 7
	Rows    = 6
	Cells   = Columns * Rows

	// WinRun is the run length that ends a game.
	WinRun = 4
)

// Coord is one cell of the grid.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// InBounds reports whether (x, y) lies on the 7×6 grid.
func InBounds(x, y int) bool {
	return x >= 0 && x < Columns && y >= 0 && y < Rows
}

// Board is the occupancy of a single player's pieces. The win condition only
// ever links same-color pieces, so opposing pieces are never loaded into it.
type Board struct {
	cells [Columns][Rows]bool
}

// NewBoard builds a board from a set of coordinates. Coordinates outside the
// grid are ignored rather than panicking; the validator rejects them upstream.
func NewBoard(coords []Coord) *Board {
	var b Board
	for _, c := range coords {
		if InBounds(c.X, c.Y) {
			b.cells[c.X][c.Y] = true
		}
	}
	return &b
}

// Occupied reports whether the player has a piece at (x, y). Out-of-bounds
// cells read as empty.
func (b *Board) Occupied(x, y int) bool {
	if !InBounds(x, y) {
		return false
	}
	return b.cells[x][y]
}

// LandingRow applies the gravity rule: a new piece in a column lands on top
// of the pieces already there, so its row equals the current stack height.
// ok is false when the column already holds six pieces.
func LandingRow(columnCount int) (y int, ok bool) {
	return columnCount, columnCount < Rows
}
