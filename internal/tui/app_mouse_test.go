package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestTabAtXMatchesTabWidths(t *testing.T) {
	n := len(tabNameWidths)
	for active := 0; active < n; active++ {
		a := App{activeTab: active}
		pos := 0

		for i := 0; i < n; i++ {
			w := tabWidthForTest(i, active)
			x := pos + w/2 // midpoint inside this tab
			if got := a.tabAtX(x); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, x, got, i)
			}
			pos += w
			if i < n-1 {
				pos++ // separator
			}
		}
		if got := a.tabAtX(pos + 5); got != -1 {
			t.Fatalf("active=%d: click past the last tab -> %d, want -1", active, got)
		}
	}
}

func TestMouseClickSwitchesTab(t *testing.T) {
	a := App{loaded: true, activeTab: tabOverview, scroll: 4}
	x := tabWidthForTest(tabOverview, tabOverview) + 1 + 2 // inside "Occupancy"

	m, _ := a.Update(tea.MouseMsg{X: x, Y: 0, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	got := m.(App)
	if got.activeTab != tabOccupancy {
		t.Fatalf("activeTab = %d, want %d", got.activeTab, tabOccupancy)
	}
	if got.scroll != 0 {
		t.Errorf("scroll = %d, want reset to 0", got.scroll)
	}
}

func TestMouseWheelScrolls(t *testing.T) {
	a := App{loaded: true, activeTab: tabCashFlow}
	m, _ := a.Update(tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	m, _ = m.Update(tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	m, _ = m.Update(tea.MouseMsg{Button: tea.MouseButtonWheelUp, Action: tea.MouseActionPress})
	if got := m.(App).scroll; got != 1 {
		t.Errorf("scroll = %d, want 1", got)
	}
}

var tabNameWidths = []int{
	len("Overview"),
	len("Occupancy"),
	len("Vacancies"),
	len("Cash Flow"),
	len("Rooms"),
	len("Settings"),
}

func tabWidthForTest(tabIdx, activeIdx int) int {
	w := tabNameWidths[tabIdx] + 2 // horizontal padding in tab renderer
	if tabIdx != activeIdx && tabIdx == tabSettings {
		w += 3 // inactive Settings adds "[x]"
	}
	return w
}
