package core

// Move is a move intent: built by input or decoded from an engine reply,
// consumed once by the rules gateway
type Move struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// UCI returns the long algebraic form, e.g. "e2e4" or "a7a8q"
func (m Move) UCI() string {
	return m.From + m.To + m.Promotion
}

func (m Move) String() string {
	return m.UCI()
}

// MoveRecord is a move the rules library accepted
type MoveRecord struct {
	Color     Color  `json:"color"`
	Piece     string `json:"piece"`
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
	Captured  string `json:"captured,omitempty"`
	SAN       string `json:"san"`
	UCI       string `json:"uci"`
}

// Position is the FEN plus everything the rules library derives from it
type Position struct {
	FEN       string `json:"fen"`
	Turn      Color  `json:"turn"`
	InCheck   bool   `json:"inCheck"`
	Checkmate bool   `json:"checkmate"`
	Draw      bool   `json:"draw"`
	GameOver  bool   `json:"gameOver"`
}

// GameState is a read-only snapshot; every field describes the same position
type GameState struct {
	Position
	GameID   string      `json:"gameId"`
	LastMove *MoveRecord `json:"lastMove,omitempty"`
	History  []string    `json:"history"`
}

// Started reports whether any move has been made in this game
func (s GameState) Started() bool {
	return len(s.History) > 0
}

// Clone returns a copy that shares no slices or pointers with s
func (s GameState) Clone() GameState {
	c := s
	c.History = append([]string(nil), s.History...)
	if s.LastMove != nil {
		lm := *s.LastMove
		c.LastMove = &lm
	}
	return c
}
