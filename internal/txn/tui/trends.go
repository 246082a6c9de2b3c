package tui

import (
	"fmt"
	"strings"

	tslc "github.com/NimbleMarkets/ntcharts/linechart/timeserieslinechart"
	"github.com/charmbracelet/lipgloss"
)

const (
	ChartMarginWidth = 14
	ChartHeight      = 14
	MinChartWidth    = 40
)

var trendNames = map[TrendSubTab]string{
	ThroughputTrend: "Throughput",
	WaitTrend:       "Waiting Time",
	MemoryTrend:     "Memory",
}

func (m *Model) renderTrends() string {
	if len(m.analysis.MinuteSeries) < 2 {
		return MutedStyle.Render("Insufficient data for trend analysis.\n\nAt least 2 minutes of timestamped transactions are required.")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTrendsHeader(),
		"",
		m.renderTrendsContent())
}

func (m *Model) renderTrendsHeader() string {
	var tabs []string
	for trend := ThroughputTrend; trend <= MemoryTrend; trend++ {
		style := TabInactiveStyle
		if trend == m.trendSubTab {
			style = TabActiveStyle
		}
		tabs = append(tabs, style.Render(trendNames[trend]))
	}

	tabLine := strings.Join(tabs, "  ")
	infoLine := MutedStyle.Render("←/→ to switch trend")

	return lipgloss.JoinVertical(lipgloss.Left, tabLine, infoLine)
}

func (m *Model) renderTrendsContent() string {
	switch m.trendSubTab {
	case ThroughputTrend:
		return m.renderMinuteChart("Transactions per Minute", GoodStyle,
			func(p int) float64 { return float64(m.analysis.MinuteSeries[p].Count) })
	case WaitTrend:
		return m.renderMinuteChart("Mean Waiting Time per Minute (ms)", WarningStyle,
			func(p int) float64 { return m.analysis.MinuteSeries[p].MeanWait })
	case MemoryTrend:
		return m.renderMemoryChart()
	default:
		return "Unknown trend view"
	}
}

// renderMinuteChart plots one metric of the per-minute series as a braille
// line chart.
func (m *Model) renderMinuteChart(header string, style lipgloss.Style, f func(int) float64) string {
	chart := tslc.New(m.chartWidth(), ChartHeight)
	chart.SetStyle(style)

	for i, point := range m.analysis.MinuteSeries {
		chart.Push(tslc.TimePoint{Time: point.Minute, Value: f(i)})
	}

	chart.DrawBraille()

	return lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render(header),
		"",
		chart.View())
}

func (m *Model) renderMemoryChart() string {
	trends := m.analysis.MemoryTrends
	if len(trends) < 2 {
		return MutedStyle.Render("No memory data in the log.")
	}

	chart := tslc.New(m.chartWidth(), ChartHeight)
	chart.SetDataSetStyle("mean", InfoStyle)
	chart.SetDataSetStyle("max", CriticalStyle)

	for _, point := range trends {
		chart.PushDataSet("mean", tslc.TimePoint{Time: point.Minute, Value: point.Stats.TotalMemory.Mean})
		chart.PushDataSet("max", tslc.TimePoint{Time: point.Minute, Value: point.Stats.TotalMemory.Max})
	}

	chart.DrawBrailleAll()

	legend := fmt.Sprintf("%s  %s",
		InfoStyle.Render("── mean allocation/txn (bytes)"),
		CriticalStyle.Render("── max"))

	return lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render("Memory Allocation per Minute"),
		"",
		chart.View(),
		legend)
}

func (m *Model) chartWidth() int {
	return max(MinChartWidth, m.width-ChartMarginWidth)
}
