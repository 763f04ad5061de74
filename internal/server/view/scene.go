package view

import (
	"math"
	"time"

	"chess3d/internal/server/core"
	"chess3d/internal/server/rules"
)

// AnimationDuration is how long a moved piece takes to slide to its square
const AnimationDuration = 300 * time.Millisecond

// Easing names the curve renderers apply over AnimationDuration
const Easing = "easeOutCubic"

// Vec3 is a point in scene space: x across files, y up, z across ranks
type Vec3 = [3]float64

// SquarePosition is the scene coordinate of a grid cell. The board is
// centered on the origin with one unit per square.
func SquarePosition(row, col int) Vec3 {
	return Vec3{float64(col) - 3.5, 0, float64(row) - 3.5}
}

// BuildScene places every piece of the grid. When last is set, the piece
// now standing on last.To animates from last.From.
func BuildScene(fen string, g rules.Grid, last *core.MoveRecord) core.SceneResponse {
	var from *Vec3
	toRow, toCol := -1, -1
	if last != nil {
		if r, c, ok := rules.GridIndex(last.From); ok {
			p := SquarePosition(r, c)
			from = &p
		}
		if r, c, ok := rules.GridIndex(last.To); ok {
			toRow, toCol = r, c
		}
	}

	pieces := make([]core.ScenePiece, 0, 32)
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			p := g[r][c]
			if p.Empty() {
				continue
			}
			sp := core.ScenePiece{
				Type:     p.Type,
				Color:    p.Color.String(),
				Square:   rules.SquareName(r, c),
				Position: SquarePosition(r, c),
			}
			if from != nil && r == toRow && c == toCol {
				start := *from
				sp.AnimateFrom = &start
			}
			pieces = append(pieces, sp)
		}
	}

	return core.SceneResponse{
		FEN:        fen,
		Pieces:     pieces,
		DurationMs: AnimationDuration.Milliseconds(),
		Easing:     Easing,
	}
}

// EaseOutCubic maps linear progress t in [0,1] onto 1-(1-t)^3
func EaseOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// Interpolate returns where an animating piece stands elapsed after the
// animation started. It is at to once AnimationDuration has passed.
func Interpolate(from, to Vec3, elapsed time.Duration) Vec3 {
	t := float64(elapsed) / float64(AnimationDuration)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	e := EaseOutCubic(t)

	var out Vec3
	for i := range out {
		out[i] = from[i] + (to[i]-from[i])*e
	}
	return out
}
