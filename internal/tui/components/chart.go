package components

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/morehouse/mhouse/internal/cli"
	"github.com/morehouse/mhouse/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

var eighths = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// roomScale is the chart top for a series of room counts: the house capacity
// when known, otherwise the busiest period.
func roomScale(counts []int, capacity int) int {
	top := capacity
	for _, c := range counts {
		if c > top {
			top = c
		}
	}
	if top < 1 {
		top = 1
	}
	return top
}

// OccupancySparkline renders one block per period, scaled so a full house
// is a full block.
func OccupancySparkline(counts []int, capacity int, color lipgloss.Color) string {
	if len(counts) == 0 {
		return ""
	}
	top := roomScale(counts, capacity)
	style := lipgloss.NewStyle().Foreground(color).Background(theme.Active.Surface)

	var buf strings.Builder
	for _, c := range counts {
		idx := 1 + c*7/top
		if c <= 0 {
			idx = 1
		}
		buf.WriteRune(eighths[min(idx, 8)])
	}
	return style.Render(buf.String())
}

// roomTickStep picks a whole-room y-axis step giving at most maxTicks
// intervals up to top.
func roomTickStep(top, maxTicks int) int {
	if maxTicks < 1 {
		maxTicks = 1
	}
	for _, step := range []int{1, 2, 5, 10, 20, 25, 50, 100, 200, 250, 500} {
		if (top+step-1)/step <= maxTicks {
			return step
		}
	}
	return (top + maxTicks - 1) / maxTicks
}

// RoomsChart renders occupied room counts as vertical bars against the house
// capacity. The capacity row is drawn dashed where no bar reaches it.
// capacity <= 0 scales to the busiest period.
func RoomsChart(counts []int, labels []string, capacity int, color lipgloss.Color, width, height int) string {
	if len(counts) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return OccupancySparkline(counts, capacity, color)
	}
	t := theme.Active

	scale := roomScale(counts, capacity)
	step := roomTickStep(scale, max(2, height/2))
	intervals := (scale + step - 1) / step
	rowsPerTick := max(2, height/intervals)
	chartH := rowsPerTick * intervals
	top := float64(step * intervals)

	yLabelW := max(3, len(strconv.Itoa(step*intervals))) + 1
	chartW := max(5, width-yLabelW-1)

	// Thin out periods until each bar gets two cells and a gap.
	n := len(counts)
	if keep := (chartW + 1) / 3; n > keep {
		keep = max(keep, 2)
		thinned := make([]int, keep)
		var thinnedLabels []string
		if len(labels) == n {
			thinnedLabels = make([]string, keep)
		}
		for i := range thinned {
			src := i * (n - 1) / (keep - 1)
			thinned[i] = counts[src]
			if thinnedLabels != nil {
				thinnedLabels[i] = labels[src]
			}
		}
		counts, labels, n = thinned, thinnedLabels, keep
	}
	barW := chartW
	if n > 1 {
		barW = min(6, (chartW-(n-1))/n)
	}
	axisLen := n*barW + n - 1

	capRow := 0
	if capacity > 0 {
		capRow = int(math.Round(float64(capacity) / top * float64(chartH)))
	}

	bg := lipgloss.NewStyle().Background(t.Surface)
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	fullStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

	var b strings.Builder
	for row := chartH; row >= 1; row-- {
		rowTop := top * float64(row) / float64(chartH)
		rowBottom := top * float64(row-1) / float64(chartH)

		label := ""
		if row%rowsPerTick == 0 {
			label = strconv.Itoa(step * row / rowsPerTick)
		}
		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, label)))
		b.WriteString(axisStyle.Render("│"))

		for i, c := range counts {
			if i > 0 {
				b.WriteString(bg.Render(" "))
			}
			style := barStyle
			if capacity > 0 && c >= capacity {
				style = fullStyle
			}
			v := float64(c)
			switch {
			case v >= rowTop:
				b.WriteString(style.Render(strings.Repeat("█", barW)))
			case v > rowBottom:
				idx := int((v - rowBottom) / (rowTop - rowBottom) * 8)
				b.WriteString(style.Render(strings.Repeat(string(eighths[max(1, min(idx, 8))]), barW)))
			case row == capRow:
				b.WriteString(axisStyle.Render(strings.Repeat("╌", barW)))
			default:
				b.WriteString(bg.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, "0")))
	b.WriteString(axisStyle.Render("└" + strings.Repeat("─", axisLen)))

	if len(labels) == n {
		buf := []rune(strings.Repeat(" ", axisLen))
		lastEnd := -1
		for i, lbl := range labels {
			pos := i * (barW + 1)
			if i == n-1 && pos+len(lbl) > axisLen {
				pos = axisLen - len(lbl)
			}
			if pos <= lastEnd || pos < 0 || pos+len(lbl) > axisLen {
				continue
			}
			copy(buf[pos:], []rune(lbl))
			lastEnd = pos + len(lbl)
		}
		b.WriteString("\n")
		b.WriteString(bg.Render(strings.Repeat(" ", yLabelW+1)))
		b.WriteString(axisStyle.Render(strings.TrimRight(string(buf), " ")))
	}

	return b.String()
}

// NetBars renders one horizontal bar per value, growing right of a centre
// axis for positive values and left of it for negative ones.
func NetBars(values []float64, labels []string, width int) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	labelW := 0
	for _, l := range labels {
		if w := lipgloss.Width(l); w > labelW {
			labelW = w
		}
	}
	valueW := 8
	half := (width - labelW - valueW - 3) / 2
	if half < 4 {
		half = 4
	}

	maxAbs := 0.0
	for _, v := range values {
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}
	if maxAbs == 0 {
		maxAbs = 1
	}

	bg := lipgloss.NewStyle().Background(t.Surface)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	posStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	negStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)

	var b strings.Builder
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		n := int(math.Round(math.Abs(v) / maxAbs * float64(half)))
		if n == 0 && v != 0 {
			n = 1
		}

		b.WriteString(labelStyle.Render(fmt.Sprintf("%-*s ", labelW, label)))
		if v < 0 {
			b.WriteString(bg.Render(strings.Repeat(" ", half-n)))
			b.WriteString(negStyle.Render(strings.Repeat("█", n)))
			b.WriteString(axisStyle.Render("│"))
			b.WriteString(bg.Render(strings.Repeat(" ", half)))
		} else {
			b.WriteString(bg.Render(strings.Repeat(" ", half)))
			b.WriteString(axisStyle.Render("│"))
			b.WriteString(posStyle.Render(strings.Repeat("█", n)))
			b.WriteString(bg.Render(strings.Repeat(" ", half-n)))
		}
		style := posStyle
		if v < 0 {
			style = negStyle
		}
		b.WriteString(style.Render(fmt.Sprintf(" %*s", valueW, cli.FormatMoneyShort(v))))
		if i < len(values)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
