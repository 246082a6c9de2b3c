package utils

import (
	"fmt"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

var (
	CriticalColor = lipgloss.Color("#CC3333") // Dark red
	WarningColor  = lipgloss.Color("#FF8800") // Orange
	GoodColor     = lipgloss.Color("#228B22") // Forest green
	InfoColor     = lipgloss.Color("#4682B4") // Steel blue
	TextColor     = lipgloss.Color("#CCCCCC") // Light gray
	MutedColor    = lipgloss.Color("#888888") // Medium gray
	BorderColor   = lipgloss.Color("#666666") // Dark gray
)

var (
	CriticalStyle = lipgloss.NewStyle().Foreground(CriticalColor).Bold(true)
	WarningStyle  = lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
	GoodStyle     = lipgloss.NewStyle().Foreground(GoodColor).Bold(true)
	InfoStyle     = lipgloss.NewStyle().Foreground(InfoColor)
	MutedStyle    = lipgloss.NewStyle().Foreground(MutedColor)
	TextStyle     = lipgloss.NewStyle().Foreground(TextColor)
)

type TerminalCapabilities struct {
	SupportsUnicode bool
	SupportsColor   bool
	Width           int
}

var termCaps *TerminalCapabilities

func init() {
	termCaps = detectTerminalCapabilities()
}

func detectTerminalCapabilities() *TerminalCapabilities {
	caps := &TerminalCapabilities{
		SupportsUnicode: true, // Default to true, fallback if needed
		SupportsColor:   true, // Most modern terminals support color
		Width:           80,   // Default width
	}

	// Check TERM environment variable
	term := os.Getenv("TERM")
	if strings.Contains(term, "xterm") || strings.Contains(term, "color") {
		caps.SupportsColor = true
	}

	// Test unicode support by checking if we can measure unicode characters properly
	testStr := "█░"
	if utf8.RuneCountInString(testStr) != len([]rune(testStr)) {
		caps.SupportsUnicode = false
	}

	return caps
}

type ProgressBarConfig struct {
	Width     int
	FillChar  string
	EmptyChar string
	UseColor  bool
}

func GetProgressBarConfig(width int) ProgressBarConfig {
	config := ProgressBarConfig{
		Width:    width,
		UseColor: termCaps.SupportsColor,
	}

	if termCaps.SupportsUnicode {
		config.FillChar = "█"
		config.EmptyChar = "░"
	} else {
		config.FillChar = "#"
		config.EmptyChar = "-"
	}

	return config
}

func CreateProgressBar(percentage float64, width int, color lipgloss.Color) string {
	if width < 4 {
		return fmt.Sprintf("%.0f%%", percentage*100)
	}

	config := GetProgressBarConfig(width)

	// Calculate filled portion
	filled := int(math.Round(percentage * float64(config.Width)))
	if filled > config.Width {
		filled = config.Width
	}
	if filled < 0 {
		filled = 0
	}

	// Build bar
	bar := strings.Repeat(config.FillChar, filled) +
		strings.Repeat(config.EmptyChar, config.Width-filled)

	if config.UseColor && color != "" {
		style := lipgloss.NewStyle().Foreground(color)
		bar = style.Render(bar)
	}

	return bar
}
