package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
	"github.com/qserver-tools/qdiag/utils"
)

func (m *Model) renderDashboard() string {
	a := m.analysis

	windowInfo := fmt.Sprintf("Transactions: %d (%d finished)", a.TotalCount, a.FinishedCount)
	if !a.StartTime.IsZero() && !a.EndTime.IsZero() {
		window := a.EndTime.Sub(a.StartTime)
		windowInfo += fmt.Sprintf("  Window: %s", utils.FormatDuration(window))
	}

	headerLine := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Render(windowInfo)

	leftWidth := m.width/2 - 2
	rightWidth := m.width - leftWidth - 4

	leftColumn := lipgloss.JoinVertical(lipgloss.Left,
		m.renderWorkloadOverview(leftWidth),
		"",
		m.renderResourceChart(leftWidth),
	)
	rightColumn := lipgloss.JoinVertical(lipgloss.Left,
		m.renderCausesSummary(rightWidth),
		"",
		m.renderLeakSummary(rightWidth),
	)

	columnsContent := lipgloss.JoinHorizontal(
		lipgloss.Top,
		leftColumn,
		"  ",
		rightColumn,
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		headerLine,
		columnsContent,
	)
}

func (m *Model) renderWorkloadOverview(width int) string {
	a := m.analysis
	title := TitleStyle.Render("Workload Overview")

	ratioStatus := "✅"
	if a.WaitProcessRatio > 1 {
		ratioStatus = "🔴"
	} else if a.WaitProcessRatio > 0.5 {
		ratioStatus = "⚠️"
	}

	corrStatus := "✅"
	if a.CountWaitCorr > 0.7 {
		corrStatus = "🔴"
	} else if a.CountWaitCorr > 0.4 {
		corrStatus = "⚠️"
	}

	lines := []string{
		fmt.Sprintf("• Max Concurrent: %d", a.MaxConcurrent),
		fmt.Sprintf("• Active Threads: %d", a.ActiveThreads),
		fmt.Sprintf("• Wait/Proc Ratio: %.2f %s", a.WaitProcessRatio, ratioStatus),
		fmt.Sprintf("• Load↔Wait Correlation: %.2f %s", a.CountWaitCorr, corrStatus),
		fmt.Sprintf("• Duration Outliers: %d (p%.0f)", len(a.LongRunning), a.Options.Percentile),
		fmt.Sprintf("• Wait Outliers: %d", len(a.HighWaiting)),
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		strings.Join(lines, "\n"),
	)
}

// renderResourceChart shows where the total transaction time went, one bar
// per time component.
func (m *Model) renderResourceChart(width int) string {
	a := m.analysis
	title := TitleStyle.Render("Time by Component")

	if len(a.ResourceUtilization) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, MutedStyle.Render("No data"))
	}

	styles := []lipgloss.Style{CriticalStyle, GoodStyle, InfoStyle, WarningStyle, MutedStyle}

	bc := barchart.New(width-2, 10, barchart.WithHorizontalBars())
	for i, comp := range a.ResourceUtilization {
		bc.Push(barchart.BarData{
			Label: comp.Component,
			Values: []barchart.BarValue{{
				Name:  comp.Component,
				Value: comp.Total,
				Style: styles[i%len(styles)],
			}},
		})
	}
	bc.Draw()

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		bc.View(),
	)
}

func (m *Model) renderCausesSummary(width int) string {
	a := m.analysis
	title := TitleStyle.Render("Root Causes")

	var lines []string
	counts := map[string]int{}
	for _, rc := range a.RootCauses {
		counts[rc.ImpactLevel()]++
	}

	if counts["Critical"] > 0 {
		lines = append(lines, CriticalStyle.Render(fmt.Sprintf("🔴 Critical: %d", counts["Critical"])))
	}
	if counts["High"] > 0 {
		lines = append(lines, WarningStyle.Render(fmt.Sprintf("🟠 High: %d", counts["High"])))
	}
	if counts["Medium"] > 0 {
		lines = append(lines, InfoStyle.Render(fmt.Sprintf("🟡 Medium: %d", counts["Medium"])))
	}
	if counts["Low"] > 0 {
		lines = append(lines, MutedStyle.Render(fmt.Sprintf("💡 Low: %d", counts["Low"])))
	}

	if len(lines) == 0 {
		lines = append(lines, GoodStyle.Render("✅ No bottlenecks detected"))
	} else {
		top := a.RootCauses[0]
		lines = append(lines, "",
			MutedStyle.Render("Top Cause:"),
			truncate(top.Description, width-2),
			impactStyle(top.ImpactLevel()).Render(top.ImpactLevel()),
			"",
			MutedStyle.Render("→ View Details [Tab 3]"),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		strings.Join(lines, "\n"),
	)
}

func (m *Model) renderLeakSummary(width int) string {
	a := m.analysis
	title := TitleStyle.Render("Memory Leak Candidates")

	if len(a.LeakSources) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title,
			GoodStyle.Render("✅ None flagged"))
	}

	var lines []string
	for i, leak := range a.LeakSources {
		if i >= 3 {
			lines = append(lines, MutedStyle.Render(fmt.Sprintf("… and %d more", len(a.LeakSources)-i)))
			break
		}
		level := leak.RiskLevel()
		lines = append(lines, fmt.Sprintf("%s %s (risk %.2f)",
			riskStyle(level).Render(level),
			truncate(leak.Action, width-16),
			leak.RiskScore))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		strings.Join(lines, "\n"),
	)
}

func truncate(s string, maxWidth int) string {
	if len(s) <= maxWidth {
		return s
	}
	if maxWidth < 4 {
		return strings.Repeat(".", max(0, maxWidth))
	}
	return s[:maxWidth-3] + "..."
}
