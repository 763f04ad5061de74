package engine

import (
	"strings"
	"time"

	"chess3d/internal/server/core"
	"chess3d/internal/server/rules"
)

const (
	baseMoveTime    = 300 * time.Millisecond
	moveTimePerStep = 200 * time.Millisecond
)

// MoveTime is the engine thinking time for a difficulty level. Levels
// outside the valid range are clamped.
func MoveTime(d core.Difficulty) time.Duration {
	if d < core.MinDifficulty {
		d = core.MinDifficulty
	} else if d > core.MaxDifficulty {
		d = core.MaxDifficulty
	}
	return baseMoveTime + time.Duration(d)*moveTimePerStep
}

// ParseBestMove decodes a "bestmove <move> [ponder <move>]" line. It reports
// false for any other line, for "(none)" and for malformed moves.
func ParseBestMove(line string) (core.Move, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "bestmove" {
		return core.Move{}, false
	}

	mv := fields[1]
	if len(mv) != 4 && len(mv) != 5 {
		return core.Move{}, false
	}

	m := core.Move{From: mv[0:2], To: mv[2:4]}
	if len(mv) == 5 {
		m.Promotion = mv[4:5]
	}
	if !rules.ValidSquare(m.From) || !rules.ValidSquare(m.To) {
		return core.Move{}, false
	}
	if m.Promotion != "" && !rules.IsPromotionPiece(m.Promotion) {
		return core.Move{}, false
	}
	return m, true
}
