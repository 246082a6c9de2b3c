package tui

import (
	"fmt"
	"strings"

	"github.com/qserver-tools/qdiag/internal/txn"
	"github.com/qserver-tools/qdiag/utils"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const PageSize = 10 // Number of lines to scroll per page

func initialModel(analysis *txn.Analysis) *Model {
	return &Model{
		currentTab:      DashboardTab,
		analysis:        analysis,
		keys:            DefaultKeyMap(),
		scrollPositions: make(map[TabType]int),
		expandedCauses:  make(map[int]bool),
		selectedCause:   0,
		trendSubTab:     ThroughputTrend,
	}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "1":
			m.currentTab = DashboardTab
		case "2":
			m.currentTab = KindsTab
		case "3":
			m.currentTab = CausesTab
		case "4":
			m.currentTab = TrendsTab

		case "left", "h":
			return m.handleLeftNavigation()
		case "right", "l":
			return m.handleRightNavigation()

		default:
			// Forward to tab-specific handlers for up/down and other keys
			return m.handleTabSpecificKeys(msg)
		}
	}

	return m, nil
}

func (m *Model) handleLeftNavigation() (tea.Model, tea.Cmd) {
	switch m.currentTab {
	case TrendsTab:
		utils.CycleEnumPtr(&m.trendSubTab, -1, MemoryTrend)
	default:
		utils.CycleEnumPtr(&m.currentTab, -1, TrendsTab)
	}
	return m, nil
}

func (m *Model) handleRightNavigation() (tea.Model, tea.Cmd) {
	switch m.currentTab {
	case TrendsTab:
		utils.CycleEnumPtr(&m.trendSubTab, 1, MemoryTrend)
	default:
		utils.CycleEnumPtr(&m.currentTab, 1, TrendsTab)
	}
	return m, nil
}

func (m *Model) handleTabSpecificKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.currentTab {
	case DashboardTab, KindsTab, TrendsTab:
		return m.handleScrollKeys(msg)

	case CausesTab:
		return m.handleCausesKeys(msg)
	}

	return m, nil
}

func (m *Model) handleScrollKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.scrollPositions[m.currentTab] > 0 {
			m.scrollPositions[m.currentTab]--
		}
	case "down", "j":
		// Bounded in rendering
		m.scrollPositions[m.currentTab]++
	}
	return m, nil
}

func (m *Model) handleCausesKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedCause > 0 {
			m.selectedCause--
		}
	case "down", "j":
		if m.selectedCause < len(m.analysis.RootCauses)-1 {
			m.selectedCause++
		}
	case "enter", " ":
		m.expandedCauses[m.selectedCause] = !m.expandedCauses[m.selectedCause]
	}
	return m, nil
}

func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var content string

	switch m.currentTab {
	case DashboardTab:
		content = m.renderDashboard()
	case KindsTab:
		content = m.renderKinds()
	case CausesTab:
		content = m.renderCauses()
	case TrendsTab:
		content = m.renderTrends()
	}

	header := m.renderHeader()

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		content,
	)
}

func (m *Model) renderHeader() string {
	tabs := []string{}

	tabIcons := []string{"📊", "📋", "🎯", "📈"}
	tabNames := []string{"Dashboard", "Kinds", "Root Causes", "Trends"}

	for i, name := range tabNames {
		style := TabInactiveStyle
		indicator := " "

		if TabType(i) == m.currentTab {
			style = TabActiveStyle
			indicator = "●"
		}

		tabText := fmt.Sprintf("%s %s %s [%d]", indicator, tabIcons[i], name, i+1)
		tabs = append(tabs, style.Render(tabText))
	}

	tabLine := strings.Join(tabs, "  ")
	statusLine := MutedStyle.Render(fmt.Sprintf("Health: %s", m.analysis.Status))

	border := strings.Repeat("─", m.width)

	return lipgloss.JoinVertical(lipgloss.Left,
		tabLine,
		statusLine,
		border,
	)
}

// Run displays the analysis in an interactive terminal UI.
func Run(analysis *txn.Analysis) error {
	model := initialModel(analysis)

	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err := program.Run()
	return err
}
