package view

import "slices"

// MoveIntent is a from/to pair the player picked on the mini-board. It is
// not known to be legal beyond being one of the offered targets.
type MoveIntent struct {
	From string
	To   string
}

// TargetsFunc returns the legal destinations for the piece on a square
type TargetsFunc func(square string) []string

// Selector is the click-to-select, click-to-move state of the mini-board.
// The zero value has nothing selected.
type Selector struct {
	selected string
	targets  []string
}

// Click handles a click on square. occupied tells whether a piece stands
// there. It returns a move intent when the click completes a move.
func (s *Selector) Click(square string, occupied bool, targets TargetsFunc) (MoveIntent, bool) {
	if s.selected == square {
		s.Clear()
		return MoveIntent{}, false
	}

	if s.selected != "" && slices.Contains(s.targets, square) {
		intent := MoveIntent{From: s.selected, To: square}
		s.Clear()
		return intent, true
	}

	if occupied {
		s.selected = square
		s.targets = targets(square)
		return MoveIntent{}, false
	}

	s.Clear()
	return MoveIntent{}, false
}

func (s *Selector) Clear() {
	s.selected = ""
	s.targets = nil
}

// Selected returns the selected square, or "" when nothing is selected
func (s *Selector) Selected() string {
	return s.selected
}

// Targets returns the highlighted destinations of the selected piece
func (s *Selector) Targets() []string {
	return slices.Clone(s.targets)
}
