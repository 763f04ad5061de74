package commands

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"chess3d/internal/client/display"
)

func (r *Registry) registerDebugCommands() {
	r.Register(&Command{
		Name:        "health",
		ShortName:   ".",
		Description: "Check server health",
		Usage:       "health",
		Handler:     healthHandler,
	})

	r.Register(&Command{
		Name:        "url",
		ShortName:   "/",
		Description: "Show or set API base URL",
		Usage:       "url [apiUrl]",
		Handler:     urlHandler,
	})

	r.Register(&Command{
		Name:        "raw",
		ShortName:   ":",
		Description: "Send raw API request",
		Usage:       "raw <method> <path> [json-body]",
		Handler:     rawRequestHandler,
	})

	r.Register(&Command{
		Name:        "clear",
		ShortName:   "-",
		Description: "Clear screen",
		Usage:       "clear",
		Handler:     clearHandler,
	})
}

func healthHandler(s Session, args []string) error {
	resp, err := s.GetClient().Health()
	if err != nil {
		return err
	}

	out := s.Output()
	fmt.Fprintf(out, "%sServer Health:%s\n", display.Cyan, display.Reset)
	fmt.Fprintf(out, "  Status:  %s\n", resp.Status)
	fmt.Fprintf(out, "  Time:    %s\n", time.Unix(resp.Time, 0).Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  Storage: %s\n", resp.Storage)
	fmt.Fprintf(out, "  Engine:  %s\n", resp.Engine)
	return nil
}

func urlHandler(s Session, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(s.Output(), "Current API URL: %s\n", s.GetAPIBaseURL())
		return nil
	}

	url := args[0]
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}

	s.SetAPIBaseURL(url)
	s.SetGame(nil)
	fmt.Fprintf(s.Output(), "%sAPI URL set to: %s%s\n", display.Cyan, s.GetAPIBaseURL(), display.Reset)
	return nil
}

func rawRequestHandler(s Session, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: raw <method> <path> [json-body]")
	}

	method := strings.ToUpper(args[0])
	path := args[1]

	body := ""
	if len(args) > 2 {
		body = strings.Join(args[2:], " ")
	}

	return s.GetClient().RawRequest(method, path, body)
}

func clearHandler(s Session, args []string) error {
	cmd := exec.Command("clear")
	cmd.Stdout = os.Stdout
	return cmd.Run()
}
