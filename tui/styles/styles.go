package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme represents a color theme
type Theme struct {
	Name    string
	Primary lipgloss.AdaptiveColor
	Text    lipgloss.AdaptiveColor
	TextDim lipgloss.AdaptiveColor
	Border  lipgloss.AdaptiveColor
	Success lipgloss.AdaptiveColor
	Error   lipgloss.AdaptiveColor
	Accent  lipgloss.AdaptiveColor
}

// Default theme
var DefaultTheme = Theme{
	Name:    "default",
	Primary: lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7B68EE"},
	Text:    lipgloss.AdaptiveColor{Light: "#1E1E1E", Dark: "#E0E0E0"},
	TextDim: lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"},
	Border:  lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#404040"},
	Success: lipgloss.AdaptiveColor{Light: "#4CAF50", Dark: "#66BB6A"},
	Error:   lipgloss.AdaptiveColor{Light: "#F44336", Dark: "#EF5350"},
	Accent:  lipgloss.AdaptiveColor{Light: "#00A0A0", Dark: "#5FD7D7"},
}

// Styles holds the styles shared by the settings form and the spinner
type Styles struct {
	Theme Theme

	// Form
	Title       lipgloss.Style
	Label       lipgloss.Style
	Description lipgloss.Style
	Focused     lipgloss.Style
	Help        lipgloss.Style
	Saved       lipgloss.Style
	Failed      lipgloss.Style
	Frame       lipgloss.Style

	// Indicator
	Spinner lipgloss.Style
	Tooltip lipgloss.Style
	Status  lipgloss.Style
}

// NewStyles creates a new styles instance with the given theme
func NewStyles(theme Theme) *Styles {
	s := &Styles{
		Theme: theme,
	}

	s.Title = lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true).
		MarginBottom(1)

	s.Label = lipgloss.NewStyle().
		Foreground(theme.Text).
		Bold(true)

	s.Description = lipgloss.NewStyle().
		Foreground(theme.TextDim)

	s.Focused = lipgloss.NewStyle().
		Foreground(theme.Primary)

	s.Help = lipgloss.NewStyle().
		Foreground(theme.TextDim).
		MarginTop(1)

	s.Saved = lipgloss.NewStyle().
		Foreground(theme.Success)

	s.Failed = lipgloss.NewStyle().
		Foreground(theme.Error)

	s.Frame = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(1, 2)

	s.Spinner = lipgloss.NewStyle().
		Foreground(theme.Accent)

	s.Tooltip = lipgloss.NewStyle().
		Foreground(theme.Text)

	s.Status = lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Italic(true)

	return s
}

// DefaultStyles returns styles for the default theme
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme)
}
