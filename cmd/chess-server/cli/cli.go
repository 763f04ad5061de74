package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"chess3d/internal/server/game"
	"chess3d/internal/server/rules"
	"chess3d/internal/server/storage"
	"chess3d/internal/server/view"
)

// Run is the entry point for the db mini-app
func Run(args []string) error {
	return run(args, os.Stdout)
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: init, delete, query, moves, position")
	}

	switch args[0] {
	case "init":
		return runInit(args[1:], out)
	case "delete":
		return runDelete(args[1:], out)
	case "query":
		return runQuery(args[1:], out)
	case "moves":
		return runMoves(args[1:], out)
	case "position":
		return runPosition(args[1:], out)
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func openStore(path string) (*storage.Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path required")
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel)
	store, err := storage.NewStore(path, false, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}

func runInit(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	fmt.Fprintf(out, "Database initialized at: %s\n", *path)
	return nil
}

func runDelete(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}

	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}

	fmt.Fprintf(out, "Database deleted: %s\n", *path)
	return nil
}

func runQuery(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")
	gameID := fs.String("gameId", "", "Game ID to filter (optional, * for all)")
	limit := fs.Int("limit", 20, "Maximum games to list, newest first (0 for all)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	games, err := store.QueryGames(*gameID, *limit)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(games) == 0 {
		fmt.Fprintln(out, "No games found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Game ID\tMode\tLevel\tComputer\tResult\tStart Time")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, g := range games {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			g.GameID,
			g.Mode,
			g.Difficulty,
			g.ComputerColor,
			g.Result,
			g.StartTimeUTC.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nFound %d game(s)\n", len(games))
	return nil
}

func runMoves(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("moves", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")
	gameID := fs.String("gameId", "", "Game ID (required)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *gameID == "" {
		return fmt.Errorf("game ID required")
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	moves, err := store.QueryMoves(*gameID)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(moves) == 0 {
		fmt.Fprintln(out, "No moves found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tColor\tSAN\tUCI\tTime")
	for _, m := range moves {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			m.MoveNumber,
			m.PlayerColor,
			m.MoveSAN,
			m.MoveUCI,
			m.MoveTimeUTC.Format("15:04:05"),
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nFinal position: %s\n", moves[len(moves)-1].FENAfterMove)
	return nil
}

// runPosition prints the saved position the server resumes from
func runPosition(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("position", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")
	clearSaved := fs.Bool("clear", false, "Remove the saved position so the next start is a new game")

	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	if *clearSaved {
		if err := store.Delete(game.StorageKey); err != nil {
			return fmt.Errorf("failed to clear position: %w", err)
		}
		fmt.Fprintln(out, "Saved position cleared")
		return nil
	}

	fen, ok, err := store.Get(game.StorageKey)
	if err != nil {
		return fmt.Errorf("failed to read position: %w", err)
	}
	if !ok {
		fmt.Fprintln(out, "No saved position (next start is a new game)")
		return nil
	}

	fmt.Fprintf(out, "FEN: %s\n", fen)
	grid, err := rules.New().Board(fen)
	if err != nil {
		fmt.Fprintf(out, "Saved position is unreadable and will be discarded: %v\n", err)
		return nil
	}
	fmt.Fprintf(out, "\n%s\n", view.ASCII(grid))
	return nil
}
