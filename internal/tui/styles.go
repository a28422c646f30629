package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"mutuo/internal/report"
)

// Color Palette
var (
	ColorPrincipal = lipgloss.Color(report.ColorPrincipal)
	ColorInterest  = lipgloss.Color(report.ColorInterest)
	ColorPrimary   = lipgloss.Color("#8B5CF6")
	ColorError     = lipgloss.Color("#EF4444")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorDimmed    = lipgloss.Color("#374151")
	ColorText      = lipgloss.Color("#F8FAFC")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true).
			MarginBottom(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	FocusedLabelStyle = LabelStyle.
				Foreground(ColorPrimary)

	StatStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDimmed).
			Padding(0, 2)

	StatLabelStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	SectionStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true).
			MarginTop(1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			MarginTop(1)

	PrincipalStyle = lipgloss.NewStyle().Foreground(ColorPrincipal)
	InterestStyle  = lipgloss.NewStyle().Foreground(ColorInterest)
)

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorDimmed).
		BorderBottom(true).
		Bold(true)
	// The table is never focused, so no row is highlighted.
	s.Selected = lipgloss.NewStyle()
	return s
}
