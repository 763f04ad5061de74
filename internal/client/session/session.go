// Package session holds the terminal client's state between commands
package session

import (
	"io"
	"os"

	"chess3d/internal/client/api"
	"chess3d/internal/server/core"
	"chess3d/internal/server/view"
)

type Session struct {
	APIBaseURL string
	Client     *api.Client
	Verbose    bool
	Out        io.Writer

	Game     *core.GameResponse
	Selector view.Selector
}

// New creates a session talking to apiURL and printing to stdout
func New(apiURL string) *Session {
	client := api.New(apiURL)
	return &Session{
		APIBaseURL: client.BaseURL,
		Client:     client,
		Out:        os.Stdout,
	}
}

func (s *Session) GetAPIBaseURL() string { return s.APIBaseURL }

func (s *Session) SetAPIBaseURL(url string) {
	s.Client.SetBaseURL(url)
	s.APIBaseURL = s.Client.BaseURL
}

func (s *Session) GetClient() *api.Client { return s.Client }

func (s *Session) IsVerbose() bool { return s.Verbose }

func (s *Session) Output() io.Writer {
	if s.Out == nil {
		return os.Stdout
	}
	return s.Out
}

func (s *Session) GetGame() *core.GameResponse { return s.Game }

// SetGame stores the latest game. A different game or position drops the
// mini-board selection.
func (s *Session) SetGame(g *core.GameResponse) {
	if s.Game == nil || g == nil || s.Game.GameID != g.GameID || s.Game.FEN != g.FEN {
		s.Selector.Clear()
	}
	s.Game = g
}

func (s *Session) GetSelector() *view.Selector { return &s.Selector }
