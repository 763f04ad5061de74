// Package view turns game state into the models the presentations draw:
// the mini-board, the 3D scene, and the status and controls panels.
package view

import (
	"fmt"
	"strings"

	"chess3d/internal/server/core"
	"chess3d/internal/server/rules"
)

// Letter returns the FEN letter for a piece, uppercase for white, or '.'
// for an empty square
func Letter(p rules.Piece) byte {
	if p.Empty() {
		return '.'
	}
	c := p.Type[0]
	if p.Color == core.ColorWhite {
		c -= 'a' - 'A'
	}
	return c
}

// ASCII renders the grid with file and rank labels on every side
func ASCII(g rules.Grid) string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")

	for r := 0; r < 8; r++ {
		sb.WriteString(fmt.Sprintf("%s ", rules.Ranks[r]))
		for f := 0; f < 8; f++ {
			sb.WriteByte(Letter(g[r][f]))
			sb.WriteByte(' ')
		}
		sb.WriteString(fmt.Sprintf(" %s\n", rules.Ranks[r]))
	}
	sb.WriteString("  a b c d e f g h")

	return sb.String()
}

// IsDark reports the shade of a grid cell; a8 is light
func IsDark(row, col int) bool {
	return (row+col)%2 == 1
}

// Squares lays the grid out for the mini-board
func Squares(g rules.Grid) [][]core.SquareInfo {
	out := make([][]core.SquareInfo, 8)
	for r := 0; r < 8; r++ {
		out[r] = make([]core.SquareInfo, 8)
		for f := 0; f < 8; f++ {
			info := core.SquareInfo{
				Square: rules.SquareName(r, f),
				Dark:   IsDark(r, f),
			}
			if p := g[r][f]; !p.Empty() {
				info.Piece = p.Type
				info.Color = p.Color.String()
			}
			out[r][f] = info
		}
	}
	return out
}

// Board builds the board response for a position
func Board(fen string, g rules.Grid) core.BoardResponse {
	return core.BoardResponse{
		FEN:     fen,
		Board:   ASCII(g),
		Squares: Squares(g),
	}
}
