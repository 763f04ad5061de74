// Package rules is the move gateway. Every legality question goes to
// github.com/notnil/chess; this package only translates between FEN/UCI text
// and the library's types.
package rules

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"unicode"

	"github.com/notnil/chess"

	"chess3d/internal/server/core"
)

const (
	StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
)

var (
	ErrInvalidFEN    = errors.New("invalid FEN")
	ErrInvalidSquare = errors.New("invalid square")
	ErrIllegalMove   = errors.New("illegal move")
)

// FEN validation regex
var fenPattern = regexp.MustCompile(`^[rnbqkpRNBQKP1-8/]+ [wb] [KQkq-]+ [a-h1-8-]+ \d+ \d+$`)

var pieceLetters = map[chess.PieceType]string{
	chess.King:   "k",
	chess.Queen:  "q",
	chess.Rook:   "r",
	chess.Bishop: "b",
	chess.Knight: "n",
	chess.Pawn:   "p",
}

// Result is an accepted move and the position it produced
type Result struct {
	Move     core.MoveRecord
	Position core.Position
}

// Gateway validates and applies moves. It holds no game state: each call
// rebuilds the rules library's game from the FEN it is given.
type Gateway struct{}

func New() *Gateway {
	return &Gateway{}
}

// TryMove applies mv to the position in fen. A pawn move to the last rank
// without a promotion piece is rejected like any other illegal move; the
// caller decides whether to ask for a piece.
func (gw *Gateway) TryMove(fen string, mv core.Move) (*Result, error) {
	if !ValidSquare(mv.From) || !ValidSquare(mv.To) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSquare, mv.UCI())
	}
	if mv.Promotion != "" && !IsPromotionPiece(mv.Promotion) {
		return nil, fmt.Errorf("%w: bad promotion piece %q", ErrIllegalMove, mv.Promotion)
	}

	g, err := gw.load(fen)
	if err != nil {
		return nil, err
	}

	before := g.Position()
	decoded, err := chess.UCINotation{}.Decode(before, mv.UCI())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrIllegalMove, mv.UCI())
	}
	if err = g.Move(decoded); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrIllegalMove, mv.UCI())
	}

	moves := g.Moves()
	applied := moves[len(moves)-1]
	board := before.Board()
	moved := board.Piece(applied.S1())

	record := core.MoveRecord{
		Color:     colorOf(moved.Color()),
		Piece:     pieceLetters[moved.Type()],
		From:      applied.S1().String(),
		To:        applied.S2().String(),
		Promotion: pieceLetters[applied.Promo()],
		SAN:       chess.AlgebraicNotation{}.Encode(before, applied),
	}
	if applied.HasTag(chess.EnPassant) {
		record.Captured = "p"
	} else if target := board.Piece(applied.S2()); target != chess.NoPiece {
		record.Captured = pieceLetters[target.Type()]
	}
	record.UCI = record.From + record.To + record.Promotion

	return &Result{
		Move:     record,
		Position: describe(g, applied),
	}, nil
}

// Describe derives turn and terminal flags for a position
func (gw *Gateway) Describe(fen string) (core.Position, error) {
	g, err := gw.load(fen)
	if err != nil {
		return core.Position{}, err
	}
	return describe(g, nil), nil
}

// LegalTargets returns the sorted destinations reachable from square
func (gw *Gateway) LegalTargets(fen, square string) ([]string, error) {
	from, err := parseSquare(square)
	if err != nil {
		return nil, err
	}
	g, err := gw.load(fen)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	targets := []string{}
	for _, m := range g.ValidMoves() {
		if m.S1() != from {
			continue
		}
		to := m.S2().String()
		if !seen[to] {
			// Promotions repeat the destination once per piece
			seen[to] = true
			targets = append(targets, to)
		}
	}
	sort.Strings(targets)
	return targets, nil
}

// Board returns the piece grid for fen
func (gw *Gateway) Board(fen string) (Grid, error) {
	g, err := gw.load(fen)
	if err != nil {
		return Grid{}, err
	}

	var grid Grid
	board := g.Position().Board()
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := board.Piece(squareAt(col, 7-row))
			if p == chess.NoPiece {
				continue
			}
			grid[row][col] = Piece{Type: pieceLetters[p.Type()], Color: colorOf(p.Color())}
		}
	}
	return grid, nil
}

func (gw *Gateway) load(fen string) (*chess.Game, error) {
	if !isFENSafe(fen) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFEN, fen)
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	return chess.NewGame(opt, chess.UseNotation(chess.UCINotation{})), nil
}

// isFENSafe rejects control characters that could inject engine commands
func isFENSafe(fen string) bool {
	for _, r := range fen {
		if unicode.IsControl(r) {
			return false
		}
	}
	return fenPattern.MatchString(fen)
}

// describe derives the flags for g's current position. last is the move
// that produced it, when known.
func describe(g *chess.Game, last *chess.Move) core.Position {
	pos := g.Position()

	var check bool
	if last != nil {
		check = last.HasTag(chess.Check)
	} else {
		check = inCheck(pos)
	}

	noMoves := len(g.ValidMoves()) == 0
	checkmate := noMoves && check
	draw := !checkmate && (noMoves || g.Outcome() == chess.Draw || claimableDraw(g))

	return core.Position{
		FEN:       pos.String(),
		Turn:      colorOf(pos.Turn()),
		InCheck:   check,
		Checkmate: checkmate,
		Draw:      draw,
		GameOver:  checkmate || draw,
	}
}

func claimableDraw(g *chess.Game) bool {
	for _, m := range g.EligibleDraws() {
		if m == chess.FiftyMoveRule || m == chess.ThreefoldRepetition {
			return true
		}
	}
	return false
}

// inCheck reports whether the king of the side to move is attacked. The
// library keeps that flag private, so hand the move to the opponent and
// see whether any of its replies lands on the king. The opponent's own king
// is lifted first so pinned attackers still count.
func inCheck(pos *chess.Position) bool {
	turn := pos.Turn()
	squares := pos.Board().SquareMap()

	king := chess.NoSquare
	for sq, p := range squares {
		if p.Type() != chess.King {
			continue
		}
		if p.Color() == turn {
			king = sq
		} else {
			delete(squares, sq)
		}
	}
	if king == chess.NoSquare {
		return false
	}

	fen := chess.NewBoard(squares).String() + " " + turn.Other().String() + " - - 0 1"
	opt, err := chess.FEN(fen)
	if err != nil {
		return false
	}
	for _, m := range chess.NewGame(opt).ValidMoves() {
		if m.S2() == king {
			return true
		}
	}
	return false
}

func colorOf(c chess.Color) core.Color {
	if c == chess.Black {
		return core.ColorBlack
	}
	return core.ColorWhite
}
