package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// ASCIILogo is printed at the start of interactive commands
const ASCIILogo = `
  ┌─┐┬ ┬┌─┐┌─┐┬─┐┌─┐┌─┐┌─┐┬─┐
  │ ┬├─┤└─┐│  ├┬┘├─┤├─┘├┤ ├┬┘
  └─┘┴ ┴└─┘└─┘┴└─┴ ┴┴  └─┘┴└─
  github users & repositories
`

var (
	mu      sync.Mutex
	out     io.Writer = os.Stdout
	quiet   bool
	noColor bool
)

// SetOutput redirects all printing, mainly for tests
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// Output returns the current output writer
func Output() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return out
}

// SetQuietMode suppresses everything except errors
func SetQuietMode(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
}

// IsQuietMode reports whether quiet mode is on
func IsQuietMode() bool {
	mu.Lock()
	defer mu.Unlock()
	return quiet
}

// SetNoColor disables styling
func SetNoColor(nc bool) {
	mu.Lock()
	defer mu.Unlock()
	noColor = nc
}

func colorsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return !noColor
}

// Color functions for terminal output
var (
	Cyan    = styled(lipgloss.NewStyle().Foreground(lipgloss.Color("6")))
	Yellow  = styled(lipgloss.NewStyle().Foreground(lipgloss.Color("3")))
	Red     = styled(lipgloss.NewStyle().Foreground(lipgloss.Color("1")))
	Green   = styled(lipgloss.NewStyle().Foreground(lipgloss.Color("2")))
	Magenta = styled(lipgloss.NewStyle().Foreground(lipgloss.Color("5")))
	Dim     = styled(lipgloss.NewStyle().Faint(true))
	Bold    = styled(lipgloss.NewStyle().Bold(true))
)

func styled(style lipgloss.Style) func(string) string {
	return func(text string) string {
		if !colorsEnabled() {
			return text
		}
		return style.Render(text)
	}
}

func printf(format string, args ...interface{}) {
	if IsQuietMode() {
		return
	}
	fmt.Fprintf(Output(), format, args...)
}

// PrintLogo prints the ASCII logo
func PrintLogo() {
	printf("%s\n", Cyan(ASCIILogo))
}

// PrintError prints an error message in red. Errors are shown in quiet mode.
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprint(args[0])
	}
	fmt.Fprintln(Output(), Red(msg))
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	printf("%s\n", Green(msg))
}

// PrintInfo prints a label and value
func PrintInfo(label string, value string) {
	printf("%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprint(args[0])
	}
	printf("%s\n", Yellow(msg))
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	printf("%s\n", Magenta(msg))
}
