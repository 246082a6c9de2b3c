package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m *Model) renderCauses() string {
	causes := m.analysis.RootCauses

	if len(causes) == 0 {
		return GoodStyle.Render("✅ No significant performance bottlenecks identified.")
	}

	var sections []string
	sections = append(sections,
		TitleStyle.Render(fmt.Sprintf("Root Causes (%d)", len(causes))),
		MutedStyle.Render("enter to expand, ↑/↓ to select"),
		"")

	for i, rc := range causes {
		cursor := "  "
		if i == m.selectedCause {
			cursor = "❯ "
		}

		level := rc.ImpactLevel()
		head := fmt.Sprintf("%s%s %s  (impact %.2f)",
			cursor,
			impactStyle(level).Render(fmt.Sprintf("[%s]", level)),
			rc.Description,
			rc.ImpactScore)
		sections = append(sections, head)

		if m.expandedCauses[i] {
			detail := []string{TextStyle.Render("  " + rc.Details), ""}
			for _, rec := range rc.Recommendations {
				detail = append(detail, MutedStyle.Render("  • "+rec))
			}
			detail = append(detail, "")
			sections = append(sections, strings.Join(detail, "\n"))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
