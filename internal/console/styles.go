// Package console renders snapshots for the terminal watch view.
package console

import "github.com/charmbracelet/lipgloss"

var (
	White = lipgloss.Color("#E2E2E2")
	Gray  = lipgloss.Color("#888888")
	Muted = lipgloss.Color("#555555")
	Blue  = lipgloss.Color("#5FAFFF")

	Green  = lipgloss.Color("#5FD787")
	Yellow = lipgloss.Color("#FFD787")
	Red    = lipgloss.Color("#FF8787")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(White)

	labelStyle = lipgloss.NewStyle().
			Foreground(Gray).
			Bold(true).
			Width(12)

	mutedStyle = lipgloss.NewStyle().
			Foreground(Muted)

	sparkStyle = lipgloss.NewStyle().
			Foreground(Blue)

	okStyle   = lipgloss.NewStyle().Foreground(Green)
	warnStyle = lipgloss.NewStyle().Foreground(Yellow)
	critStyle = lipgloss.NewStyle().Foreground(Red).Bold(true)

	alertStyle = lipgloss.NewStyle().
			Foreground(Red).
			PaddingLeft(2)
)
