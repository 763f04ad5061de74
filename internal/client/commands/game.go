package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"chess3d/internal/client/display"
	"chess3d/internal/server/core"
	"chess3d/internal/server/view"
)

// maxComputerWaits bounds the long polls spent waiting for one computer reply
const maxComputerWaits = 2

func (r *Registry) registerGameCommands() {
	r.Register(&Command{
		Name:        "show",
		ShortName:   "h",
		Description: "Show board, status and controls",
		Usage:       "show",
		Handler:     showHandler,
	})

	r.Register(&Command{
		Name:        "select",
		ShortName:   "s",
		Description: "Click a mini-board square",
		Usage:       "select <square>",
		Handler:     selectHandler,
	})

	r.Register(&Command{
		Name:        "move",
		ShortName:   "m",
		Description: "Make a move",
		Usage:       "move <from> <to> | move <from><to>",
		Handler:     moveHandler,
	})

	r.Register(&Command{
		Name:        "promote",
		ShortName:   "p",
		Description: "Choose the pending promotion piece",
		Usage:       "promote <q|r|b|n>",
		Handler:     promoteHandler,
	})

	r.Register(&Command{
		Name:        "cancel",
		ShortName:   "c",
		Description: "Cancel the pending promotion",
		Usage:       "cancel",
		Handler:     cancelHandler,
	})

	r.Register(&Command{
		Name:        "reset",
		ShortName:   "r",
		Description: "Start a new game",
		Usage:       "reset",
		Handler:     resetHandler,
	})

	r.Register(&Command{
		Name:        "mode",
		ShortName:   "o",
		Description: "Play the computer or a friend",
		Usage:       "mode <computer|human>",
		Handler:     modeHandler,
	})

	r.Register(&Command{
		Name:        "level",
		ShortName:   "l",
		Description: "Set the computer difficulty",
		Usage:       "level <0-5>",
		Handler:     levelHandler,
	})

	r.Register(&Command{
		Name:        "targets",
		ShortName:   "t",
		Description: "List legal destinations of a piece",
		Usage:       "targets <square>",
		Handler:     targetsHandler,
	})

	r.Register(&Command{
		Name:        "scene",
		ShortName:   "3",
		Description: "Show the 3D scene layout",
		Usage:       "scene",
		Handler:     sceneHandler,
	})

	r.Register(&Command{
		Name:        "wait",
		ShortName:   "w",
		Description: "Long-poll for game updates",
		Usage:       "wait",
		Handler:     waitHandler,
	})

	r.Register(&Command{
		Name:        "state",
		ShortName:   "j",
		Description: "Show raw game JSON",
		Usage:       "state",
		Handler:     stateHandler,
	})
}

// render prints the board with the current selection and the panels
func render(s Session, g *core.GameResponse) error {
	board, err := s.GetClient().Board()
	if err != nil {
		return err
	}

	out := s.Output()
	sel := s.GetSelector()
	fmt.Fprintln(out)
	display.RenderBoard(out, board.Squares, sel.Selected(), sel.Targets())
	fmt.Fprintln(out)
	display.Status(out, g)
	display.Controls(out, g.Controls)
	if len(g.History) > 0 {
		fmt.Fprintf(out, "History: %s\n", display.History(g.History))
	}
	display.Promotion(out, g)
	return nil
}

func showHandler(s Session, args []string) error {
	g, err := s.GetClient().GetGame()
	if err != nil {
		return err
	}
	s.SetGame(g)
	return render(s, g)
}

func selectHandler(s Session, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: select <square>")
	}
	square := strings.ToLower(args[0])
	c := s.GetClient()

	g := s.GetGame()
	if g == nil {
		var err error
		if g, err = c.GetGame(); err != nil {
			return err
		}
		s.SetGame(g)
	}

	board, err := c.Board()
	if err != nil {
		return err
	}
	occupied := false
	for _, row := range board.Squares {
		for _, sq := range row {
			if sq.Square == square {
				occupied = sq.Piece != ""
			}
		}
	}

	targets := func(sq string) []string {
		resp, err := c.Targets(sq)
		if err != nil {
			return nil
		}
		return resp.Targets
	}

	intent, ok := s.GetSelector().Click(square, occupied, targets)
	if ok {
		return playMove(s, intent)
	}

	return render(s, g)
}

func moveHandler(s Session, args []string) error {
	var from, to string
	switch {
	case len(args) == 2:
		from, to = args[0], args[1]
	case len(args) == 1 && len(args[0]) == 4:
		from, to = args[0][:2], args[0][2:]
	default:
		return errors.New("usage: move <from> <to>")
	}
	s.GetSelector().Clear()
	return playMove(s, view.MoveIntent{From: from, To: to})
}

// playMove submits a move, then shows the promotion chooser or waits for
// the computer's reply
func playMove(s Session, intent view.MoveIntent) error {
	g, err := s.GetClient().MakeMove(intent.From, intent.To)
	if err != nil {
		return err
	}
	s.SetGame(g)

	out := s.Output()
	if g.PromotionPending != nil {
		display.Promotion(out, g)
		return nil
	}
	if g.LastMove != nil {
		fmt.Fprintf(out, "%sMove accepted: %s%s\n", display.Green, g.LastMove.SAN, display.Reset)
	}
	return settle(s, g)
}

func promoteHandler(s Session, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: promote <q|r|b|n>")
	}
	g, err := s.GetClient().Promote(strings.ToLower(args[0]))
	if err != nil {
		return err
	}
	s.SetGame(g)
	if g.LastMove != nil {
		fmt.Fprintf(s.Output(), "%sMove accepted: %s%s\n", display.Green, g.LastMove.SAN, display.Reset)
	}
	return settle(s, g)
}

func cancelHandler(s Session, args []string) error {
	g, err := s.GetClient().CancelPromotion()
	if err != nil {
		return err
	}
	s.SetGame(g)
	fmt.Fprintf(s.Output(), "%sPromotion cancelled%s\n", display.Yellow, display.Reset)
	return nil
}

func resetHandler(s Session, args []string) error {
	g, err := s.GetClient().Reset()
	if err != nil {
		return err
	}
	s.SetGame(g)
	fmt.Fprintf(s.Output(), "%sNew game: %s%s\n", display.Green, g.GameID, display.Reset)
	return settle(s, g)
}

func modeHandler(s Session, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: mode <computer|human>")
	}
	g, err := s.GetClient().Configure(core.SettingsRequest{Mode: core.Mode(strings.ToLower(args[0]))})
	if err != nil {
		return err
	}
	s.SetGame(g)
	display.Controls(s.Output(), g.Controls)
	return settle(s, g)
}

func levelHandler(s Session, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: level <0-5>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid level: %s", args[0])
	}
	d := core.Difficulty(n)
	g, err := s.GetClient().Configure(core.SettingsRequest{Difficulty: &d})
	if err != nil {
		return err
	}
	s.SetGame(g)
	display.Controls(s.Output(), g.Controls)
	return nil
}

func targetsHandler(s Session, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: targets <square>")
	}
	resp, err := s.GetClient().Targets(strings.ToLower(args[0]))
	if err != nil {
		return err
	}
	if len(resp.Targets) == 0 {
		fmt.Fprintf(s.Output(), "No legal moves from %s\n", resp.Square)
		return nil
	}
	fmt.Fprintf(s.Output(), "%s: %s\n", resp.Square, strings.Join(resp.Targets, " "))
	return nil
}

func sceneHandler(s Session, args []string) error {
	scene, err := s.GetClient().Scene()
	if err != nil {
		return err
	}

	out := s.Output()
	fmt.Fprintf(out, "%sScene%s %d pieces, %dms %s\n", display.Cyan, display.Reset, len(scene.Pieces), scene.DurationMs, scene.Easing)
	for _, p := range scene.Pieces {
		if p.AnimateFrom == nil {
			continue
		}
		fmt.Fprintf(out, "Animating %s%s %s: (%.1f, %.1f) -> (%.1f, %.1f)\n",
			p.Color, p.Type, p.Square,
			p.AnimateFrom[0], p.AnimateFrom[2], p.Position[0], p.Position[2])
	}
	return nil
}

func waitHandler(s Session, args []string) error {
	c := s.GetClient()
	g := s.GetGame()
	if g == nil {
		var err error
		if g, err = c.GetGame(); err != nil {
			return err
		}
	}

	out := s.Output()
	fmt.Fprintf(out, "%sLong-polling for updates (move count: %d)...%s\n", display.Cyan, len(g.History), display.Reset)

	next, err := c.WaitGame(g.GameID, len(g.History))
	if err != nil {
		return err
	}
	s.SetGame(next)

	if next.GameID != g.GameID || len(next.History) != len(g.History) {
		fmt.Fprintf(out, "%sGame updated%s\n", display.Green, display.Reset)
		return render(s, next)
	}
	fmt.Fprintf(out, "%sNo updates (timeout)%s\n", display.Yellow, display.Reset)
	return nil
}

func stateHandler(s Session, args []string) error {
	g, err := s.GetClient().GetGame()
	if err != nil {
		return err
	}
	s.SetGame(g)
	fmt.Fprintf(s.Output(), "%sGame State:%s\n", display.Cyan, display.Reset)
	display.PrettyPrintJSON(s.Output(), g)
	return nil
}

// computerToMove reports whether g is waiting on the engine
func computerToMove(g *core.GameResponse) bool {
	return g.Mode == core.ModeComputer && !g.GameOver && g.Turn.String() == g.ComputerColor
}

// settle waits for the computer's reply when it is the computer's turn,
// then draws the board
func settle(s Session, g *core.GameResponse) error {
	out := s.Output()
	c := s.GetClient()

	for i := 0; i < maxComputerWaits && computerToMove(g); i++ {
		fmt.Fprintf(out, "%s%s%s\n", display.Magenta, view.StatusThinking, display.Reset)
		next, err := c.WaitGame(g.GameID, len(g.History))
		if err != nil {
			return fmt.Errorf("waiting for computer: %w", err)
		}
		g = next
		s.SetGame(g)
	}
	if computerToMove(g) {
		fmt.Fprintf(out, "%sNo reply yet, use 'wait' to keep waiting%s\n", display.Yellow, display.Reset)
	}

	return render(s, g)
}
