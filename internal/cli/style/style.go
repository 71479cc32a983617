package style

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hamed0406/praesto/internal/domain"
)

var (
	// Colors
	Primary = lipgloss.Color("#7C3AED")
	Green   = lipgloss.Color("#10B981")
	Red     = lipgloss.Color("#EF4444")
	Yellow  = lipgloss.Color("#F59E0B")
	Cyan    = lipgloss.Color("#06B6D4")
	Dim     = lipgloss.Color("#6B7280")
	White   = lipgloss.Color("#F9FAFB")

	Banner = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
		Foreground(Dim).
		Italic(true)

	Bold    = lipgloss.NewStyle().Bold(true).Foreground(White)
	DimText = lipgloss.NewStyle().Foreground(Dim)
	Accent  = lipgloss.NewStyle().Foreground(Cyan)

	Healthy   = lipgloss.NewStyle().Foreground(Green).Bold(true)
	Unhealthy = lipgloss.NewStyle().Foreground(Red).Bold(true)
	Warning   = lipgloss.NewStyle().Foreground(Yellow)

	TableHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Dim).
		PaddingRight(2)

	// validate markers
	OK   = Healthy.Render("✔")
	Warn = Warning.Render("⚠")
	Fail = Unhealthy.Render("✖")
)

// ForLabel picks the style a state label is shown in.
func ForLabel(l domain.Label) lipgloss.Style {
	switch l {
	case domain.LabelReachable:
		return Healthy
	case domain.LabelUnreachable:
		return Unhealthy
	case domain.LabelPendingReachable, domain.LabelPendingUnreachable:
		return Warning
	default:
		return DimText
	}
}

// Dot is a coloured status bullet for l.
func Dot(l domain.Label) string {
	return ForLabel(l).Render("●")
}
