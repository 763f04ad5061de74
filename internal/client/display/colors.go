package display

// Terminal color codes, emptied by DisableColors
var (
	Reset   = "\033[0m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
	Inverse = "\033[7m"
)

// DisableColors turns every color code into an empty string, for output
// that is not a terminal
func DisableColors() {
	Reset, Red, Green, Yellow, Blue, Magenta, Cyan, White, Inverse = "", "", "", "", "", "", "", "", ""
}

// Prompt returns a colored prompt string
func Prompt(text string) string {
	return Yellow + text + Yellow + " > " + Reset
}
