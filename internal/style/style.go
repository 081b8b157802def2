// Package style provides consistent terminal styling using Lipgloss.
package style

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Ayu palette, adaptive light/dark.
var (
	ColorPass   = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	ColorWarn   = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	ColorFail   = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	ColorAccent = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
)

const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✖"
)

var (
	// Success style for positive outcomes (green)
	Success = lipgloss.NewStyle().
		Foreground(ColorPass).
		Bold(true)

	// Warning style for cautionary messages (yellow)
	Warning = lipgloss.NewStyle().
		Foreground(ColorWarn).
		Bold(true)

	// Error style for failures (red)
	Error = lipgloss.NewStyle().
		Foreground(ColorFail).
		Bold(true)

	// Info style for informational messages (blue)
	Info = lipgloss.NewStyle().
		Foreground(ColorAccent)

	// Dim style for secondary information (gray)
	Dim = lipgloss.NewStyle().
		Foreground(ColorMuted)

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().
		Bold(true)

	SuccessPrefix = Success.Render(IconPass)
	WarningPrefix = Warning.Render(IconWarn)
	ErrorPrefix   = Error.Render(IconFail)
	ArrowPrefix   = Info.Render("→")
)

// PrintSuccess writes a success line to w. The format and args work like
// fmt.Printf.
func PrintSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", SuccessPrefix, fmt.Sprintf(format, args...))
}

// PrintWarning writes a warning line to w.
func PrintWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", Warning.Render(IconWarn+" Warning:"), fmt.Sprintf(format, args...))
}

// PrintError writes an error line to w.
func PrintError(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", ErrorPrefix, fmt.Sprintf(format, args...))
}

// Header renders a bold section title followed by a dim note, if any.
func Header(title, note string) string {
	if note == "" {
		return Bold.Render(title)
	}
	return Bold.Render(title) + " " + Dim.Render(note)
}
