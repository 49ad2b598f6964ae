package components

import (
	"fmt"
	"strings"

	"github.com/morehouse/mhouse/internal/model"
	"github.com/morehouse/mhouse/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the bottom bar reports.
type StatusInfo struct {
	Source      string
	DataAge     string
	Sync        model.SyncState
	SyncNote    string
	Refreshing  bool
	AutoRefresh bool
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	left := base.Render(" ") +
		keyStyle.Render("[?]") + base.Render("help  ") +
		keyStyle.Render("[s]") + base.Render("ync  ") +
		keyStyle.Render("[r]") + base.Render("efresh  ") +
		keyStyle.Render("[q]") + base.Render("uit")

	var right []string
	if info.Sync != "" {
		right = append(right, SyncBadge(info.Sync, info.SyncNote))
	}
	switch {
	case info.Refreshing:
		right = append(right, keyStyle.Render("refreshing"))
	case info.DataAge != "":
		right = append(right, base.Render("data "+info.DataAge))
	}
	if info.AutoRefresh {
		right = append(right, dimStyle.Render("auto"))
	}
	if info.Source != "" {
		right = append(right, dimStyle.Render(info.Source))
	}
	rightStr := strings.Join(right, dimStyle.Render(" │ ")) + base.Render(" ")

	padding := width - lipgloss.Width(left) - lipgloss.Width(rightStr)
	if padding < 1 {
		padding = 1
	}
	return left + base.Render(strings.Repeat(" ", padding)) + rightStr
}

// SyncBadge renders a sync state with its colour.
func SyncBadge(state model.SyncState, note string) string {
	t := theme.Active
	s := lipgloss.NewStyle().Foreground(t.SyncState(string(state))).Background(t.Surface).Bold(true).Render("● " + string(state))
	if note != "" {
		s += lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render(fmt.Sprintf(" %s", note))
	}
	return s
}
