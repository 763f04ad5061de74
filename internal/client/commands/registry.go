package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"chess3d/internal/client/api"
	"chess3d/internal/client/display"
	"chess3d/internal/server/core"
	"chess3d/internal/server/view"
)

type Session interface {
	GetAPIBaseURL() string
	SetAPIBaseURL(string)
	GetClient() *api.Client
	IsVerbose() bool
	Output() io.Writer
	GetGame() *core.GameResponse
	SetGame(*core.GameResponse)
	GetSelector() *view.Selector
}

// Command defines a client command with its handler
type Command struct {
	Name        string
	ShortName   string
	Description string
	Usage       string
	Handler     func(Session, []string) error
}

// Registry manages command registration and execution
type Registry struct {
	session  Session
	commands map[string]*Command
}

func NewRegistry(session Session) *Registry {
	r := &Registry{
		session:  session,
		commands: make(map[string]*Command),
	}

	r.registerGameCommands()
	r.registerDebugCommands()

	r.Register(&Command{
		Name:        "help",
		ShortName:   "?",
		Description: "Show available commands",
		Usage:       "help [command]",
		Handler:     r.helpHandler,
	})

	r.Register(&Command{
		Name:        "exit",
		ShortName:   "x",
		Description: "Exit the client",
		Usage:       "exit",
		Handler:     exitHandler,
	})

	return r
}

func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	if cmd.ShortName != "" {
		r.commands[cmd.ShortName] = cmd
	}
}

// Execute runs one input line and reports whether it succeeded
func (r *Registry) Execute(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	out := r.session.Output()
	cmdName := parts[0]
	args := parts[1:]

	cmd, exists := r.commands[cmdName]
	if !exists {
		fmt.Fprintf(out, "%sUnknown command: %s%s\n", display.Red, cmdName, display.Reset)
		fmt.Fprintf(out, "Type 'help' for available commands\n")
		return false
	}

	r.session.GetClient().SetVerbose(r.session.IsVerbose())

	if err := cmd.Handler(r.session, args); err != nil {
		fmt.Fprintf(out, "%sError: %s%s\n", display.Red, err.Error(), display.Reset)
		return false
	}
	return true
}

func (r *Registry) helpHandler(s Session, args []string) error {
	out := s.Output()
	if len(args) > 0 {
		cmd, exists := r.commands[args[0]]
		if !exists {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		fmt.Fprintf(out, "\n%s%s%s - %s\n", display.Cyan, cmd.Name, display.Reset, cmd.Description)
		if cmd.ShortName != "" {
			fmt.Fprintf(out, "Short form: %s%s%s\n", display.Cyan, cmd.ShortName, display.Reset)
		}
		fmt.Fprintf(out, "Usage: %s\n", cmd.Usage)
		return nil
	}

	fmt.Fprintf(out, "\n%sAvailable Commands:%s\n\n", display.Cyan, display.Reset)

	printCommandGroup := func(title string, names []string) {
		fmt.Fprintf(out, "%s%s:%s\n", display.Yellow, title, display.Reset)
		for _, name := range names {
			cmd, exists := r.commands[name]
			if !exists {
				continue
			}
			shortPart := "    "
			if cmd.ShortName != "" {
				shortPart = fmt.Sprintf("[%s%s%s] ", display.Cyan, cmd.ShortName, display.Reset)
			}
			fmt.Fprintf(out, "  %s%-10s %s\n", shortPart, cmd.Name, cmd.Description)
		}
	}

	printCommandGroup("Game Commands", []string{"show", "select", "move", "promote", "cancel", "reset", "wait", "state"})
	fmt.Fprintln(out)
	printCommandGroup("Settings", []string{"mode", "level"})
	fmt.Fprintln(out)
	printCommandGroup("Views", []string{"targets", "scene"})
	fmt.Fprintln(out)
	printCommandGroup("Utility Commands", []string{"health", "url", "raw", "clear", "help", "exit"})

	fmt.Fprintf(out, "\nType 'help <command>' for detailed usage\n")
	fmt.Fprintf(out, "Add '-v' to any command for verbose output\n")
	return nil
}

func exitHandler(s Session, args []string) error {
	fmt.Fprintf(s.Output(), "%sGoodbye!%s\n", display.Cyan, display.Reset)
	os.Exit(0)
	return nil
}
