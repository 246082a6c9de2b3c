package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/qserver-tools/qdiag/utils"
)

func (m *Model) renderKinds() string {
	a := m.analysis

	if len(a.StatsByKind) == 0 {
		return MutedStyle.Render("No finished transactions to group.")
	}

	// Heaviest kinds first.
	kinds := make([]string, 0, len(a.StatsByKind))
	for kind := range a.StatsByKind {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool {
		ti := a.StatsByKind[kinds[i]].Length.Total
		tj := a.StatsByKind[kinds[j]].Length.Total
		if ti != tj {
			return ti > tj
		}
		return kinds[i] < kinds[j]
	})

	header := fmt.Sprintf("%-24s %6s %10s %10s %8s %-12s",
		"Kind", "Count", "Avg (ms)", "Max (ms)", "Wait %", "Dominant")

	var rows []string
	for _, kind := range kinds {
		s := a.StatsByKind[kind]

		waitStyle := TextStyle
		if s.WaitingTimePercentage > 50 {
			waitStyle = CriticalStyle
		} else if s.WaitingTimePercentage > 20 {
			waitStyle = WarningStyle
		}

		rows = append(rows, fmt.Sprintf("%-24s %6d %10.1f %10.1f %s %-12s",
			truncate(kind, 24),
			s.Count,
			s.Length.Mean,
			s.Length.Max,
			waitStyle.Render(fmt.Sprintf("%7.1f%%", s.WaitingTimePercentage)),
			s.MostCommonDominantComponent()))
	}

	sections := []string{
		TitleStyle.Render("Statistics by Transaction Kind"),
		MutedStyle.Render(header),
		strings.Join(rows, "\n"),
	}

	if alloc := m.renderAllocationByKind(kinds); alloc != "" {
		sections = append(sections, "", alloc)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	return m.scrollWindow(content, KindsTab)
}

func (m *Model) renderAllocationByKind(kinds []string) string {
	a := m.analysis
	if len(a.AllocationPatterns) == 0 {
		return ""
	}

	header := fmt.Sprintf("%-24s %12s %12s %10s",
		"Kind", "Total", "Per Txn", "Rate B/ms")

	var rows []string
	for _, kind := range kinds {
		p, ok := a.AllocationPatterns[kind]
		if !ok || p.TotalAllocated == 0 {
			continue
		}
		rows = append(rows, fmt.Sprintf("%-24s %12s %12s %10.1f",
			truncate(kind, 24),
			utils.MemorySize(p.TotalAllocated).String(),
			utils.MemorySize(p.PerTransaction).String(),
			p.AllocationRate))
	}

	if len(rows) == 0 {
		return ""
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render("Memory Allocation by Kind"),
		MutedStyle.Render(header),
		strings.Join(rows, "\n"),
	)
}

// scrollWindow clips content to the viewport height using the saved scroll
// offset for the tab, clamping the offset at the bottom.
func (m *Model) scrollWindow(content string, tab TabType) string {
	lines := strings.Split(content, "\n")
	visible := m.height - 6
	if visible <= 0 || len(lines) <= visible {
		return content
	}

	maxScroll := len(lines) - visible
	if m.scrollPositions[tab] > maxScroll {
		m.scrollPositions[tab] = maxScroll
	}
	offset := m.scrollPositions[tab]

	clipped := strings.Join(lines[offset:offset+visible], "\n")
	indicator := MutedStyle.Render(fmt.Sprintf("… %d/%d (↑/↓ to scroll)", offset+visible, len(lines)))
	return clipped + "\n" + indicator
}
