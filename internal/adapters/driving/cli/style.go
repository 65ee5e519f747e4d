package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Theme defines the colour palette of command output.
type Theme struct {
	// Success indicates positive outcomes.
	Success lipgloss.Color

	// Error indicates problems.
	Error lipgloss.Color

	// Label is used for app headers.
	Label lipgloss.Color

	// Muted is for less important text.
	Muted lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Success: lipgloss.Color("#A6E3A1"), // Green
		Error:   lipgloss.Color("#F38BA8"), // Red
		Label:   lipgloss.Color("#7C3AED"), // Purple
		Muted:   lipgloss.Color("#6C7086"), // Medium gray
	}
}

// Styles render report fragments. Disabled styles return text unchanged.
type Styles struct {
	enabled bool

	success lipgloss.Style
	failure lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
}

// NewStyles creates styles from a theme. When enabled is false every
// style renders plain text.
func NewStyles(theme *Theme, enabled bool) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	return &Styles{
		enabled: enabled,
		success: lipgloss.NewStyle().Foreground(theme.Success),
		failure: lipgloss.NewStyle().Foreground(theme.Error),
		label:   lipgloss.NewStyle().Bold(true).Foreground(theme.Label),
		muted:   lipgloss.NewStyle().Foreground(theme.Muted),
	}
}

// stylesFor enables styling only when w is a terminal.
func stylesFor(w io.Writer) *Styles {
	f, ok := w.(*os.File)
	return NewStyles(nil, ok && term.IsTerminal(int(f.Fd())))
}

func (s *Styles) render(style lipgloss.Style, v any) string {
	text := fmt.Sprint(v)
	if !s.enabled {
		return text
	}
	return style.Render(text)
}

// Success styles a success count; zero stays plain.
func (s *Styles) Success(n int) string {
	if n == 0 {
		return fmt.Sprint(n)
	}
	return s.render(s.success, n)
}

// Failure styles an error count; zero stays plain.
func (s *Styles) Failure(n int) string {
	if n == 0 {
		return fmt.Sprint(n)
	}
	return s.render(s.failure, n)
}

// Label styles an app header.
func (s *Styles) Label(text string) string {
	return s.render(s.label, text)
}

// OK renders a successful step marker.
func (s *Styles) OK() string {
	return s.render(s.success, "OK")
}

// Error renders a failed step marker.
func (s *Styles) Error() string {
	return s.render(s.failure, "Error")
}

// Muted styles secondary text.
func (s *Styles) Muted(text string) string {
	return s.render(s.muted, text)
}
