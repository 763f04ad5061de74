package rules

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chess3d/internal/server/core"
)

const promotionFEN = "8/P6k/8/8/8/8/8/K7 w - - 0 1"

func play(t *testing.T, gw *Gateway, fen string, moves ...string) *Result {
	t.Helper()
	var res *Result
	for _, uci := range moves {
		mv := core.Move{From: uci[0:2], To: uci[2:4]}
		if len(uci) == 5 {
			mv.Promotion = uci[4:]
		}
		var err error
		res, err = gw.TryMove(fen, mv)
		require.NoError(t, err, "move %s", uci)
		fen = res.Position.FEN
	}
	return res
}

func TestTryMove_LegalFlipsTurn(t *testing.T) {
	gw := New()

	res, err := gw.TryMove(StartingFEN, core.Move{From: "e2", To: "e4"})
	require.NoError(t, err)

	assert.Equal(t, core.ColorBlack, res.Position.Turn)
	assert.True(t, strings.HasPrefix(res.Position.FEN, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b"))

	want := core.MoveRecord{
		Color: core.ColorWhite,
		Piece: "p",
		From:  "e2",
		To:    "e4",
		SAN:   "e4",
		UCI:   "e2e4",
	}
	if diff := cmp.Diff(want, res.Move); diff != "" {
		t.Errorf("move record mismatch (-want +got):\n%s", diff)
	}
}

func TestTryMove_EveryLegalMoveFlipsTurn(t *testing.T) {
	gw := New()
	for _, from := range []string{"a2", "b1", "e2", "g1", "h2"} {
		targets, err := gw.LegalTargets(StartingFEN, from)
		require.NoError(t, err)
		require.NotEmpty(t, targets, from)
		for _, to := range targets {
			res, err := gw.TryMove(StartingFEN, core.Move{From: from, To: to})
			require.NoError(t, err, "%s%s", from, to)
			assert.Equal(t, core.ColorBlack, res.Position.Turn, "%s%s", from, to)
		}
	}
}

func TestTryMove_Illegal(t *testing.T) {
	gw := New()
	tests := []struct {
		name string
		move core.Move
		err  error
	}{
		{"pawn three squares", core.Move{From: "e2", To: "e5"}, ErrIllegalMove},
		{"empty source", core.Move{From: "e4", To: "e5"}, ErrIllegalMove},
		{"opponent piece", core.Move{From: "e7", To: "e5"}, ErrIllegalMove},
		{"blocked bishop", core.Move{From: "c1", To: "e3"}, ErrIllegalMove},
		{"promotion on ordinary move", core.Move{From: "e2", To: "e4", Promotion: "q"}, ErrIllegalMove},
		{"bad promotion piece", core.Move{From: "e2", To: "e4", Promotion: "k"}, ErrIllegalMove},
		{"off board", core.Move{From: "e2", To: "e9"}, ErrInvalidSquare},
		{"garbage", core.Move{From: "zz", To: "e4"}, ErrInvalidSquare},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := gw.TryMove(StartingFEN, tt.move)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, tt.err), "got %v", err)
		})
	}
}

func TestTryMove_InvalidFEN(t *testing.T) {
	gw := New()
	for _, fen := range []string{"", "not a fen", StartingFEN + "\nquit", "rnbqkbnr/pppppppp/8/8 w KQkq - 0 1"} {
		_, err := gw.TryMove(fen, core.Move{From: "e2", To: "e4"})
		assert.True(t, errors.Is(err, ErrInvalidFEN), "fen %q: got %v", fen, err)
	}
}

func TestTryMove_PromotionRequiresPiece(t *testing.T) {
	gw := New()

	_, err := gw.TryMove(promotionFEN, core.Move{From: "a7", To: "a8"})
	require.ErrorIs(t, err, ErrIllegalMove)
	assert.True(t, IsBackRank("a8"))

	for _, piece := range []string{"q", "r", "b", "n"} {
		t.Run(piece, func(t *testing.T) {
			res, err := gw.TryMove(promotionFEN, core.Move{From: "a7", To: "a8", Promotion: piece})
			require.NoError(t, err)
			assert.Equal(t, piece, res.Move.Promotion)
			assert.Equal(t, "a7a8"+piece, res.Move.UCI)

			grid, err := gw.Board(res.Position.FEN)
			require.NoError(t, err)
			assert.Equal(t, Piece{Type: piece, Color: core.ColorWhite}, grid.At("a8"))
			assert.True(t, grid.At("a7").Empty())
		})
	}
}

func TestTryMove_Capture(t *testing.T) {
	gw := New()
	res := play(t, gw, StartingFEN, "e2e4", "d7d5", "e4d5")
	assert.Equal(t, "p", res.Move.Captured)
	assert.Equal(t, "exd5", res.Move.SAN)
}

func TestTryMove_Checkmate(t *testing.T) {
	gw := New()
	res := play(t, gw, StartingFEN, "f2f3", "e7e5", "g2g4", "d8h4")

	assert.True(t, strings.HasPrefix(res.Move.SAN, "Qh4"))
	assert.True(t, res.Position.InCheck)
	assert.True(t, res.Position.Checkmate)
	assert.True(t, res.Position.GameOver)
	assert.False(t, res.Position.Draw)
	assert.Equal(t, core.ColorWhite, res.Position.Turn)
}

func TestTryMove_InsufficientMaterialDraw(t *testing.T) {
	gw := New()
	res, err := gw.TryMove("4k3/8/8/8/8/8/8/3qK3 w - - 0 1", core.Move{From: "e1", To: "d1"})
	require.NoError(t, err)

	assert.Equal(t, "q", res.Move.Captured)
	assert.True(t, res.Position.Draw)
	assert.True(t, res.Position.GameOver)
	assert.False(t, res.Position.Checkmate)
}

func TestDescribe(t *testing.T) {
	gw := New()
	tests := []struct {
		name string
		fen  string
		want core.Position
	}{
		{
			name: "start",
			fen:  StartingFEN,
			want: core.Position{Turn: core.ColorWhite},
		},
		{
			name: "restored check",
			fen:  "4k3/8/8/8/8/8/8/4R2K b - - 0 1",
			want: core.Position{Turn: core.ColorBlack, InCheck: true},
		},
		{
			name: "restored pinned checker",
			fen:  "7k/6n1/4K3/8/8/8/8/B7 w - - 0 1",
			want: core.Position{Turn: core.ColorWhite, InCheck: true},
		},
		{
			name: "restored pawn check",
			fen:  "4k3/8/8/8/8/8/3p4/4K3 w - - 0 1",
			want: core.Position{Turn: core.ColorWhite, InCheck: true},
		},
		{
			name: "stalemate",
			fen:  "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1",
			want: core.Position{Turn: core.ColorBlack, Draw: true, GameOver: true},
		},
		{
			name: "restored checkmate",
			fen:  "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3",
			want: core.Position{Turn: core.ColorWhite, InCheck: true, Checkmate: true, GameOver: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gw.Describe(tt.fen)
			require.NoError(t, err)
			got.FEN = ""
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Describe() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLegalTargets(t *testing.T) {
	gw := New()
	tests := []struct {
		square string
		want   []string
	}{
		{"e2", []string{"e3", "e4"}},
		{"g1", []string{"f3", "h3"}},
		{"e1", []string{}},
		{"e4", []string{}},
		{"e7", []string{}},
	}
	for _, tt := range tests {
		got, err := gw.LegalTargets(StartingFEN, tt.square)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.square)
	}

	got, err := gw.LegalTargets(promotionFEN, "a7")
	require.NoError(t, err)
	assert.Equal(t, []string{"a8"}, got)

	_, err = gw.LegalTargets(StartingFEN, "i9")
	assert.ErrorIs(t, err, ErrInvalidSquare)
}

func TestBoard(t *testing.T) {
	gw := New()
	grid, err := gw.Board(StartingFEN)
	require.NoError(t, err)

	assert.Equal(t, Piece{Type: "r", Color: core.ColorBlack}, grid[0][0])
	assert.Equal(t, Piece{Type: "k", Color: core.ColorBlack}, grid.At("e8"))
	assert.Equal(t, Piece{Type: "q", Color: core.ColorWhite}, grid.At("d1"))
	assert.Equal(t, Piece{Type: "p", Color: core.ColorWhite}, grid[6][4])
	assert.True(t, grid.At("e4").Empty())
	assert.Equal(t, "a8", SquareName(0, 0))
	assert.Equal(t, "h1", SquareName(7, 7))
}

func TestIsBackRank(t *testing.T) {
	assert.True(t, IsBackRank("a8"))
	assert.True(t, IsBackRank("h1"))
	assert.False(t, IsBackRank("e4"))
	assert.False(t, IsBackRank("e9"))
	assert.False(t, IsBackRank(""))
}
