// Package main implements the terminal client for the chess server
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"chess3d/internal/client/commands"
	"chess3d/internal/client/display"
	"chess3d/internal/client/session"
	"chess3d/internal/server/core"
)

func main() {
	apiURL := flag.String("api", envOr("CHESS_API_URL", "http://localhost:8080"), "Chess server API URL")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	flag.Parse()

	if *noColor || !term.IsTerminal(int(os.Stdout.Fd())) {
		display.DisableColors()
	}

	s := session.New(*apiURL)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          display.Prompt("chess"),
		HistoryFile:     ".chess_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("%s%s%s\n", display.Red, err.Error(), display.Reset)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Printf("%s3D Chess Terminal Client%s\n", display.Cyan, display.Reset)
	fmt.Printf("%sAPI: %s%s\n", display.Cyan, s.APIBaseURL, display.Reset)
	fmt.Printf("Type 'help' for commands, 'select <square>' to click the board\n\n")

	registry := commands.NewRegistry(s)
	registry.Execute("show")

	for {
		rl.SetPrompt(buildPrompt(s))

		line, err := rl.Readline()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" || line == "x" {
			break
		}

		if strings.HasSuffix(line, " -v") {
			s.Verbose = true
			line = strings.TrimSuffix(line, " -v")
		} else {
			s.Verbose = false
		}

		registry.Execute(line)
	}
}

func buildPrompt(s *session.Session) string {
	g := s.Game
	if g == nil {
		return display.Prompt("chess")
	}

	mode := "cpu"
	if g.Mode == core.ModeHuman {
		mode = "2p"
	}
	parts := []string{fmt.Sprintf("%s%s%s", display.White, g.GameID[:8], display.Reset), mode}
	if g.Mode == core.ModeComputer {
		parts = append(parts, fmt.Sprintf("L%d", g.Difficulty))
	}

	promptStr := "chess" + display.Yellow + " [" + display.Reset + strings.Join(parts, " ") + display.Yellow + "]"
	if g.GameOver {
		promptStr += " - " + g.Status.Turn
	} else {
		promptStr += " - Turn:" + display.ColorForTurn(g.Turn)
	}
	if sel := s.Selector.Selected(); sel != "" {
		promptStr += " " + display.Inverse + sel + display.Reset
	}
	return display.Prompt(promptStr)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
