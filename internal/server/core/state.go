package core

import "fmt"

// Color is the side to move, encoded the same way as the FEN turn field
type Color byte

const (
	ColorWhite Color = 'w'
	ColorBlack Color = 'b'
)

func (c Color) String() string {
	switch c {
	case ColorWhite:
		return "w"
	case ColorBlack:
		return "b"
	default:
		return "-"
	}
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Name returns the capitalized color name used in status text
func (c Color) Name() string {
	if c == ColorBlack {
		return "Black"
	}
	return "White"
}

func OppositeColor(c Color) Color {
	if c == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}

// ParseColor accepts "w", "b", "white" or "black"
func ParseColor(s string) (Color, error) {
	switch s {
	case "w", "white":
		return ColorWhite, nil
	case "b", "black":
		return ColorBlack, nil
	default:
		return 0, fmt.Errorf("invalid color %q", s)
	}
}

// Mode selects who plays the computer color
type Mode string

const (
	ModeComputer Mode = "computer"
	ModeHuman    Mode = "human"
)

func (m Mode) Valid() bool {
	return m == ModeComputer || m == ModeHuman
}

// Difficulty scales the engine thinking time, nothing else
type Difficulty int

const (
	MinDifficulty     Difficulty = 0
	MaxDifficulty     Difficulty = 5
	DefaultDifficulty Difficulty = 2
)

func (d Difficulty) Valid() bool {
	return d >= MinDifficulty && d <= MaxDifficulty
}
