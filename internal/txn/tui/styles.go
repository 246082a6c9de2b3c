package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/qserver-tools/qdiag/utils"
)

// The shared palette lives in utils so the CLI report and the TUI agree.
var (
	CriticalStyle = utils.CriticalStyle
	WarningStyle  = utils.WarningStyle
	GoodStyle     = utils.GoodStyle
	InfoStyle     = utils.InfoStyle
	MutedStyle    = utils.MutedStyle
	TextStyle     = utils.TextStyle
)

var (
	TabActiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(utils.InfoColor).
			Padding(0, 1).
			Bold(true)

	TabInactiveStyle = lipgloss.NewStyle().
				Foreground(utils.MutedColor).
				Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)
)

func impactStyle(level string) lipgloss.Style {
	switch level {
	case "Critical":
		return CriticalStyle
	case "High":
		return WarningStyle
	case "Medium":
		return InfoStyle
	default:
		return MutedStyle
	}
}

func riskStyle(level string) lipgloss.Style {
	switch level {
	case "High":
		return CriticalStyle
	case "Medium":
		return WarningStyle
	default:
		return MutedStyle
	}
}
