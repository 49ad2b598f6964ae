package components

import (
	"fmt"

	"github.com/morehouse/mhouse/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ColorForRate returns green/yellow/orange/red for a 0-1 fill rate where
// higher is better.
func ColorForRate(pct float64) lipgloss.Color {
	t := theme.Active
	switch {
	case pct >= 0.9:
		return t.Green
	case pct >= 0.75:
		return t.Yellow
	case pct >= 0.5:
		return t.Orange
	default:
		return t.Red
	}
}

// ColorForDays colours a countdown: the closer to zero, the hotter.
func ColorForDays(days int) lipgloss.Color {
	t := theme.Active
	switch {
	case days <= 7:
		return t.Red
	case days <= 14:
		return t.Orange
	case days <= 30:
		return t.Yellow
	default:
		return t.TextMuted
	}
}

// Gauge renders a labeled fill bar with percentage and an optional note.
func Gauge(label string, pct float64, note string, labelW, barWidth int) string {
	t := theme.Active

	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	color := ColorForRate(pct)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	noteStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	s := labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		spaceStyle.Render(" ") +
		bar.ViewAs(pct) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%5.1f%%", pct*100))
	if note != "" {
		s += spaceStyle.Render("  ") + noteStyle.Render(note)
	}
	return s
}
