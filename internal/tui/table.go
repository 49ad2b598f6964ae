package tui

import (
	"fmt"
	"strings"

	"github.com/morehouse/mhouse/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// column describes one table column. Right-aligned columns hold numbers.
type column struct {
	title string
	right bool
}

// tableRow is one rendered row; color overrides the text colour when set
// and selected highlights the row.
type tableRow struct {
	cells    []string
	color    lipgloss.Color
	selected bool
}

// renderTable lays rows out in aligned columns on the card surface.
// Columns wider than maxW are truncated from the left-most text column.
func renderTable(cols []column, rows []tableRow, maxW int) string {
	t := theme.Active

	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = lipgloss.Width(c.title)
	}
	for _, r := range rows {
		for i := range cols {
			if i < len(r.cells) {
				if w := lipgloss.Width(r.cells[i]); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}

	total := 0
	for _, w := range widths {
		total += w + 2
	}
	if maxW > 0 && total > maxW {
		// Shrink the widest left-aligned column to fit.
		shrink := -1
		for i, c := range cols {
			if !c.right && (shrink < 0 || widths[i] > widths[shrink]) {
				shrink = i
			}
		}
		if shrink >= 0 {
			widths[shrink] -= total - maxW
			if widths[shrink] < 4 {
				widths[shrink] = 4
			}
		}
	}

	headStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	gapStyle := lipgloss.NewStyle().Background(t.Surface)
	selGapStyle := lipgloss.NewStyle().Background(t.SurfaceBright)

	format := func(i int, s string) string {
		s = truncStr(s, widths[i])
		if cols[i].right {
			return fmt.Sprintf("%*s", widths[i], s)
		}
		return fmt.Sprintf("%-*s", widths[i], s)
	}

	var b strings.Builder
	for i := range cols {
		if i > 0 {
			b.WriteString(gapStyle.Render("  "))
		}
		b.WriteString(headStyle.Render(format(i, cols[i].title)))
	}

	for _, r := range rows {
		b.WriteString("\n")
		style, gap := cellStyle, gapStyle
		if r.selected {
			style, gap = selStyle, selGapStyle
		}
		if r.color != "" {
			style = style.Foreground(r.color)
		}
		for i := range cols {
			cell := ""
			if i < len(r.cells) {
				cell = r.cells[i]
			}
			if i > 0 {
				b.WriteString(gap.Render("  "))
			}
			b.WriteString(style.Render(format(i, cell)))
		}
	}
	return b.String()
}

// labelValue renders "label  value" pairs with aligned labels.
func labelValue(pairs [][2]string) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	w := 0
	for _, p := range pairs {
		if l := lipgloss.Width(p[0]); l > w {
			w = l
		}
	}
	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		lines = append(lines, labelStyle.Render(fmt.Sprintf("%-*s  ", w, p[0]))+valueStyle.Render(p[1]))
	}
	return strings.Join(lines, "\n")
}

// dimText renders a muted one-liner on the card surface.
func dimText(s string) string {
	t := theme.Active
	return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render(s)
}

// monthLabels turns YYYY-MM keys into short axis labels.
func monthLabels(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		if len(k) >= 7 {
			out[i] = shortMonth(k)
		} else {
			out[i] = k
		}
	}
	return out
}

var monthAbbr = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// shortMonth renders "2025-03" as "Mar", or "Jan25" for January so the
// year boundary is visible on an axis.
func shortMonth(key string) string {
	var y, m int
	if _, err := fmt.Sscanf(key, "%d-%d", &y, &m); err != nil || m < 1 || m > 12 {
		return key
	}
	if m == 1 {
		return fmt.Sprintf("Jan%02d", y%100)
	}
	return monthAbbr[m-1]
}
