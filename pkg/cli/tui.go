// Package cli provides terminal UI components for CLI applications.
package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for the TUI.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Dimmed/help text color
	Warn    lipgloss.Color // Warning highlight color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	Warn:    lipgloss.Color("#ffaa00"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title lipgloss.Style
	Label lipgloss.Style
	Value lipgloss.Style
	Help  lipgloss.Style
	Warn  lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Value: lipgloss.NewStyle(),
		Help:  lipgloss.NewStyle().Foreground(t.Dim),
		Warn:  lipgloss.NewStyle().Foreground(t.Warn),
	}
}

// StatusLine renders a single "label value label value ..." status line
// from alternating label/value pairs.
func (s Styles) StatusLine(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if i > 0 {
			b.WriteString(s.Help.Render(" │ "))
		}
		b.WriteString(s.Label.Render(pairs[i] + " "))
		b.WriteString(s.Value.Render(pairs[i+1]))
	}
	return b.String()
}

// Banner renders a titled banner line.
func (s Styles) Banner(title, detail string) string {
	if detail == "" {
		return s.Title.Render(title)
	}
	return fmt.Sprintf("%s %s", s.Title.Render(title), s.Help.Render(detail))
}
