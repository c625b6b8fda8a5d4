package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/runoshun/ledgerloop/internal/domain"
)

// Colors defines the color palette for the TUI.
var Colors = struct {
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Error   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Text    lipgloss.Color
}{
	Primary: lipgloss.Color("#6C5CE7"), // Purple
	Muted:   lipgloss.Color("#636E72"), // Gray
	Error:   lipgloss.Color("#D63031"), // Red
	Success: lipgloss.Color("#00B894"), // Green
	Warning: lipgloss.Color("#FDCB6E"), // Yellow
	Text:    lipgloss.Color("#DFE6E9"), // Light gray
}

// Styles holds the rendered styles of the dashboard.
type Styles struct {
	Header       lipgloss.Style
	Label        lipgloss.Style
	Value        lipgloss.Style
	Panel        lipgloss.Style
	PanelFocused lipgloss.Style
	Error        lipgloss.Style
	Footer       lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Colors.Muted).
		Padding(0, 1)
	return Styles{
		Header:       lipgloss.NewStyle().Bold(true).Foreground(Colors.Primary),
		Label:        lipgloss.NewStyle().Foreground(Colors.Muted),
		Value:        lipgloss.NewStyle().Foreground(Colors.Text).Bold(true),
		Panel:        panel,
		PanelFocused: panel.BorderForeground(Colors.Primary),
		Error:        lipgloss.NewStyle().Foreground(Colors.Error),
		Footer:       lipgloss.NewStyle().Foreground(Colors.Muted),
	}
}

// tableStyles returns the bubbles table styles matching the palette.
func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Colors.Muted).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFEAA7")).
		Background(Colors.Primary).
		Bold(false)
	return s
}

// OutcomeStyle returns the style for an iteration outcome.
func OutcomeStyle(o domain.IterationOutcome) lipgloss.Style {
	base := lipgloss.NewStyle()
	switch o {
	case domain.OutcomeWorked:
		return base.Foreground(Colors.Success)
	case domain.OutcomeReplenished:
		return base.Foreground(Colors.Primary)
	case domain.OutcomePaused:
		return base.Foreground(Colors.Warning)
	case domain.OutcomeHalted:
		return base.Foreground(Colors.Error)
	default:
		return base.Foreground(Colors.Muted)
	}
}
