package view

import (
	"fmt"

	"chess3d/internal/server/core"
)

// Status panel texts
const (
	StatusThinking = "CPU Thinking..."
	StatusReady    = "Ready to Play"
	StatusGameOver = "Game Over"
)

// Status builds the status panel text
func Status(st core.GameState, thinking bool) core.StatusView {
	var v core.StatusView

	switch {
	case thinking:
		v.MoveInfo = StatusThinking
	case st.LastMove != nil:
		v.MoveInfo = fmt.Sprintf("%s moved %s to %s", st.LastMove.Color.Name(), st.LastMove.From, st.LastMove.To)
	default:
		v.MoveInfo = StatusReady
	}

	if st.Checkmate || st.Draw {
		v.Turn = StatusGameOver
	} else {
		v.Turn = st.Turn.Name() + "'s Turn"
	}

	switch {
	case st.Checkmate:
		v.Alert = "Checkmate!"
	case st.InCheck:
		v.Alert = "Check!"
	case st.Draw:
		v.Alert = "Draw"
	}
	return v
}

var modeLabels = []struct {
	mode  core.Mode
	label string
}{
	{core.ModeComputer, "Vs CPU"},
	{core.ModeHuman, "Vs Friend"},
}

// Controls builds the controls panel. Once the game has started the mode
// not in use is disabled and the difficulty slider is read-only.
func Controls(mode core.Mode, difficulty core.Difficulty, started bool) core.ControlsView {
	v := core.ControlsView{
		WhiteLabel:        "Player 1",
		BlackLabel:        "Player 2",
		Locked:            started,
		ShowDifficulty:    mode == core.ModeComputer,
		DifficultyEnabled: mode == core.ModeComputer && !started,
		Difficulty:        difficulty,
		MinDifficulty:     core.MinDifficulty,
		MaxDifficulty:     core.MaxDifficulty,
	}
	if mode == core.ModeComputer {
		v.BlackLabel = "CPU"
	}
	if started {
		v.LockHint = "Reset to change"
	}

	for _, m := range modeLabels {
		v.Modes = append(v.Modes, core.ModeOption{
			Mode:     m.mode,
			Label:    m.label,
			Selected: m.mode == mode,
			Disabled: started && m.mode != mode,
		})
	}
	return v
}

// PromotionChoices lists the pieces a pawn may promote to, strongest first
func PromotionChoices() []core.PieceChoice {
	return []core.PieceChoice{
		{ID: "q", Label: "Queen"},
		{ID: "r", Label: "Rook"},
		{ID: "b", Label: "Bishop"},
		{ID: "n", Label: "Knight"},
	}
}
