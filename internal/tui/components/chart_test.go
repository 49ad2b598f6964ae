package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRoomTickStep(t *testing.T) {
	tests := []struct {
		top, ticks int
		want       int
	}{
		{1, 4, 1},
		{3, 4, 1},
		{8, 4, 2},
		{18, 4, 5},
		{96, 4, 25},
		{96, 3, 50},
		{4000, 3, 1334},
	}
	for _, tt := range tests {
		if got := roomTickStep(tt.top, tt.ticks); got != tt.want {
			t.Errorf("roomTickStep(%d, %d) = %d, want %d", tt.top, tt.ticks, got, tt.want)
		}
	}
}

func TestRoomsChartScalesToCapacity(t *testing.T) {
	out := stripANSI(RoomsChart([]int{40, 96, 70}, []string{"Sep", "Oct", "Nov"}, 100, lipgloss.Color("#00f"), 40, 8))
	lines := strings.Split(out, "\n")
	if got := strings.TrimSpace(strings.SplitN(lines[0], "│", 2)[0]); got != "100" {
		t.Errorf("top tick = %q, want 100", got)
	}
	if !strings.Contains(out, "╌") {
		t.Errorf("capacity row not drawn:\n%s", out)
	}
	if last := lines[len(lines)-1]; !strings.Contains(last, "Sep") || !strings.Contains(last, "Nov") {
		t.Errorf("month labels = %q", last)
	}
	for _, l := range lines {
		if strings.ContainsAny(l, ".kM") {
			t.Errorf("non-integer room tick in %q", l)
		}
	}
}

func TestOccupancySparkline(t *testing.T) {
	got := stripANSI(OccupancySparkline([]int{0, 48, 96}, 96, lipgloss.Color("#00f")))
	if got != "▁▄█" {
		t.Errorf("OccupancySparkline = %q, want ▁▄█", got)
	}
	if OccupancySparkline(nil, 96, lipgloss.Color("#00f")) != "" {
		t.Error("empty series should render nothing")
	}
}

func TestNetBarsDirection(t *testing.T) {
	out := NetBars([]float64{1000, -500}, []string{"Jan", "Feb"}, 60)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	axis := func(s string) (left, right int) {
		plain := []rune(stripANSI(s))
		idx := -1
		for i, r := range plain {
			if r == '│' {
				idx = i
				break
			}
		}
		if idx < 0 {
			t.Fatalf("no axis in %q", s)
		}
		left = strings.Count(string(plain[:idx]), "█")
		right = strings.Count(string(plain[idx+1:]), "█")
		return left, right
	}

	if l, r := axis(lines[0]); l != 0 || r == 0 {
		t.Errorf("positive bar: left=%d right=%d", l, r)
	}
	if l, r := axis(lines[1]); l == 0 || r != 0 {
		t.Errorf("negative bar: left=%d right=%d", l, r)
	}
	if !strings.Contains(lines[1], "-£500") {
		t.Errorf("negative label missing: %q", lines[1])
	}
	if lipgloss.Width(lines[0]) != lipgloss.Width(lines[1]) {
		t.Error("rows differ in width")
	}
}

func TestNetBarsEmpty(t *testing.T) {
	if got := NetBars(nil, nil, 40); got != "" {
		t.Errorf("NetBars(nil) = %q", got)
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEsc = true
		case inEsc && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
			inEsc = false
		case !inEsc:
			b.WriteRune(r)
		}
	}
	return b.String()
}
