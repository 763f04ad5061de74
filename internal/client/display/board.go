package display

import (
	"fmt"
	"io"
	"slices"

	"chess3d/internal/server/core"
)

// RenderBoard draws the board grid with colored pieces. The selected square
// is shown inverted and its targets are marked with '*'.
func RenderBoard(w io.Writer, squares [][]core.SquareInfo, selected string, targets []string) {
	fmt.Fprintf(w, "  %sa b c d e f g h%s\n", Cyan, Reset)

	for r, row := range squares {
		rank := 8 - r
		fmt.Fprintf(w, "%s%d%s ", Cyan, rank, Reset)
		for _, sq := range row {
			cell := pieceCell(sq)
			switch {
			case sq.Square == selected:
				cell = Inverse + cell + Reset
			case slices.Contains(targets, sq.Square):
				cell = Green + "*" + Reset
			}
			fmt.Fprintf(w, "%s ", cell)
		}
		fmt.Fprintf(w, " %s%d%s\n", Cyan, rank, Reset)
	}

	fmt.Fprintf(w, "  %sa b c d e f g h%s\n", Cyan, Reset)
}

func pieceCell(sq core.SquareInfo) string {
	if sq.Piece == "" {
		return "."
	}
	if sq.Color == "w" {
		return Blue + string(sq.Piece[0]-'a'+'A') + Reset
	}
	return Red + sq.Piece + Reset
}

// ColorForTurn returns colored turn indicator
func ColorForTurn(turn core.Color) string {
	if turn == core.ColorBlack {
		return Red + "Black" + Reset
	}
	return Blue + "White" + Reset
}
