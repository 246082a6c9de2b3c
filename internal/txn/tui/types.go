package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/qserver-tools/qdiag/internal/txn"
)

type Model struct {
	// Data
	analysis *txn.Analysis

	// UI State
	currentTab TabType
	width      int
	height     int

	scrollPositions map[TabType]int
	trendSubTab     TrendSubTab
	selectedCause   int
	expandedCauses  map[int]bool

	// Key bindings
	keys KeyMap
}

type TabType int

const (
	DashboardTab TabType = iota
	KindsTab
	CausesTab
	TrendsTab
)

type TrendSubTab int

const (
	ThroughputTrend TrendSubTab = iota
	WaitTrend
	MemoryTrend
)

type KeyMap struct {
	Tab1  key.Binding
	Tab2  key.Binding
	Tab3  key.Binding
	Tab4  key.Binding
	Left  key.Binding
	Right key.Binding
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	Quit  key.Binding
}

func k(keys []string, help, desc string) key.Binding {
	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(help, desc),
	)
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Tab1:  k([]string{"1"}, "1", "dashboard"),
		Tab2:  k([]string{"2"}, "2", "kinds"),
		Tab3:  k([]string{"3"}, "3", "root causes"),
		Tab4:  k([]string{"4"}, "4", "trends"),
		Left:  k([]string{"left", "h"}, "←/h", "prev tab"),
		Right: k([]string{"right", "l"}, "→/l", "next tab"),
		Up:    k([]string{"up", "k"}, "↑/k", "up"),
		Down:  k([]string{"down", "j"}, "↓/j", "down"),
		Enter: k([]string{"enter"}, "enter", "expand"),
		Quit:  k([]string{"q", "ctrl+c"}, "q", "quit"),
	}
}
