package display

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"chess3d/internal/server/core"
)

// PrettyPrintJSON prints formatted JSON
func PrettyPrintJSON(w io.Writer, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "%sError formatting JSON: %s%s\n", Red, err.Error(), Reset)
		return
	}
	fmt.Fprintln(w, string(data))
}

// PrettyPrintRaw indents a JSON payload, printing it as is when it is not JSON
func PrettyPrintRaw(w io.Writer, raw []byte) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		fmt.Fprintln(w, string(raw))
		return
	}
	fmt.Fprintln(w, buf.String())
}

// History numbers SAN moves in pairs: "1.e4 e5 2.Nf3"
func History(moves []string) string {
	var sb strings.Builder
	for i, m := range moves {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if i%2 == 0 {
			fmt.Fprintf(&sb, "%d.", i/2+1)
		}
		sb.WriteString(m)
	}
	return sb.String()
}

// Status prints the status panel
func Status(w io.Writer, g *core.GameResponse) {
	if g.Status.MoveInfo != "" {
		fmt.Fprintf(w, "%s%s%s\n", Magenta, g.Status.MoveInfo, Reset)
	}
	fmt.Fprintf(w, "%s", ColorForTurn(g.Turn))
	if g.Status.Turn != "" {
		fmt.Fprintf(w, " | %s", g.Status.Turn)
	}
	if g.Status.Alert != "" {
		fmt.Fprintf(w, " | %s%s%s", Red, g.Status.Alert, Reset)
	}
	fmt.Fprintln(w)
}

// Controls prints the controls panel on one line
func Controls(w io.Writer, c core.ControlsView) {
	var modes []string
	for _, m := range c.Modes {
		label := m.Label
		switch {
		case m.Selected:
			label = "[" + label + "]"
		case m.Disabled:
			label = "(" + label + ")"
		}
		modes = append(modes, label)
	}

	fmt.Fprintf(w, "%s vs %s | %s", c.WhiteLabel, c.BlackLabel, strings.Join(modes, " "))
	if c.ShowDifficulty {
		fmt.Fprintf(w, " | Difficulty %d", c.Difficulty)
		if !c.DifficultyEnabled {
			fmt.Fprint(w, " (fixed)")
		}
	}
	if c.Locked && c.LockHint != "" {
		fmt.Fprintf(w, " | %s%s%s", Yellow, c.LockHint, Reset)
	}
	fmt.Fprintln(w)
}

// Promotion prints the promotion chooser
func Promotion(w io.Writer, g *core.GameResponse) {
	if g.PromotionPending == nil {
		return
	}
	var choices []string
	for _, c := range g.PromotionChoices {
		choices = append(choices, fmt.Sprintf("%s=%s", c.ID, c.Label))
	}
	fmt.Fprintf(w, "%sPromote %s-%s: %s (promote <piece> or cancel)%s\n",
		Yellow, g.PromotionPending.From, g.PromotionPending.To, strings.Join(choices, " "), Reset)
}
