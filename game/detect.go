// game/detect.go
package game

// Result of evaluating a placed piece.
type Result int

const (
	ResultOngoing Result = iota
	ResultWin
	ResultDraw
)

func (r Result) String() string {
	switch r {
	case ResultWin:
		return "win"
	case ResultDraw:
		return "draw"
	default:
		return "ongoing"
	}
}

// rayDirections are the seven scan directions, anticlockwise from NW. There
// is deliberately no N ray: a piece can never land below an existing one, so
// an upward run from the newest piece is impossible. The scan is one-sided —
// each ray is walked independently and runs are not joined across the new
// piece. Keep it that way; the turn alternation means only the newest piece
// can complete a line, and a line it completes always extends a single ray.
var rayDirections = [7][2]int{
	{-1, 1},  // NW
	{-1, 0},  // W
	{-1, -1}, // SW
	{0, -1},  // S
	{1, -1},  // SE
	{1, 0},   // E
	{1, 1},   // NE
}

// IsWinningMove walks each ray outward from the new piece at (x, y) over the
// player's own board, counting the new piece itself as the first of the run.
// It returns true the instant any single ray reaches a run of four.
func IsWinningMove(b *Board, x, y int) bool {
	for _, d := range rayDirections {
		run := 1
		cx, cy := x+d[0], y+d[1]
		for b.Occupied(cx, cy) {
			run++
			if run == WinRun {
				return true
			}
			cx += d[0]
			cy += d[1]
		}
	}
	return false
}

// Evaluate decides the outcome of a move. own is the set of the acting
// player's pieces excluding the one just placed at newPiece; totalBefore is
// the whole game's piece count before this move. Detection is skipped when
// the player holds fewer than four pieces including the new one. A draw is
// declared when no win is found and the board held 41 pieces before the
// move, i.e. this placement fills it.
func Evaluate(own []Coord, newPiece Coord, totalBefore int) Result {
	if len(own)+1 >= WinRun {
		if IsWinningMove(NewBoard(own), newPiece.X, newPiece.Y) {
			return ResultWin
		}
	}
	if totalBefore == Cells-1 {
		return ResultDraw
	}
	return ResultOngoing
}
