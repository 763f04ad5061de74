package rules

import (
	"fmt"

	"github.com/notnil/chess"

	"chess3d/internal/server/core"
)

// Piece is one occupied square; the zero value is an empty square
type Piece struct {
	Type  string     // "p", "n", "b", "r", "q" or "k"
	Color core.Color // core.ColorWhite or core.ColorBlack
}

func (p Piece) Empty() bool {
	return p.Type == ""
}

// Grid is the board as displayed: row 0 is rank 8, column 0 is file a
type Grid [8][8]Piece

// Files and ranks in display order
var (
	Files = [8]string{"a", "b", "c", "d", "e", "f", "g", "h"}
	Ranks = [8]string{"8", "7", "6", "5", "4", "3", "2", "1"}
)

// SquareName returns the algebraic name of a grid cell
func SquareName(row, col int) string {
	return Files[col] + Ranks[row]
}

// GridIndex maps an algebraic square to its grid cell
func GridIndex(square string) (row, col int, ok bool) {
	if !ValidSquare(square) {
		return 0, 0, false
	}
	return int('8' - square[1]), int(square[0] - 'a'), true
}

// At returns the piece on an algebraic square
func (g Grid) At(square string) Piece {
	row, col, ok := GridIndex(square)
	if !ok {
		return Piece{}
	}
	return g[row][col]
}

func ValidSquare(s string) bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}

// IsBackRank reports whether square is on rank 1 or 8, the only ranks a
// pawn can promote on
func IsBackRank(square string) bool {
	return ValidSquare(square) && (square[1] == '1' || square[1] == '8')
}

func IsPromotionPiece(p string) bool {
	switch p {
	case "q", "r", "b", "n":
		return true
	default:
		return false
	}
}

func parseSquare(s string) (chess.Square, error) {
	if !ValidSquare(s) {
		return chess.NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	return squareAt(int(s[0]-'a'), int(s[1]-'1')), nil
}

func squareAt(file, rank int) chess.Square {
	return chess.Square(rank*8 + file)
}
