// Package styles holds the lipgloss colors and styles shared by the status
// view and the error reporter.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors - all colors meet WCAG AA contrast (4.5:1) on both black and dark surfaces
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BorderColor    = lipgloss.Color("#6B7280") // Gray

	// Instance status colors
	StatusOpen    = lipgloss.Color("#10B981") // Green
	StatusClosing = lipgloss.Color("#F59E0B") // Amber
	StatusClosed  = lipgloss.Color("#9CA3AF") // Gray

	// Convenience styles for colors
	Primary   = lipgloss.NewStyle().Foreground(PrimaryColor)
	Secondary = lipgloss.NewStyle().Foreground(SecondaryColor)
	Warning   = lipgloss.NewStyle().Foreground(WarningColor)
	Error     = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted     = lipgloss.NewStyle().Foreground(MutedColor)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		MarginBottom(1)

	ContentBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	InstanceID = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextColor).
			Width(8)

	StatusLine = lipgloss.NewStyle().
			Foreground(MutedColor).
			MarginTop(1)
)

// Instance states shown by the status view.
const (
	StateOpen    = "open"
	StateClosing = "closing"
	StateClosed  = "closed"
)

// StatusColor returns the color for a given instance state
func StatusColor(state string) lipgloss.Color {
	switch state {
	case StateOpen:
		return StatusOpen
	case StateClosing:
		return StatusClosing
	case StateClosed:
		return StatusClosed
	default:
		return MutedColor
	}
}

// StatusIcon returns an icon for a given instance state
func StatusIcon(state string) string {
	switch state {
	case StateOpen:
		return "●"
	case StateClosing:
		return "◐"
	case StateClosed:
		return "○"
	default:
		return "●"
	}
}
