package cli

import (
	"strings"
	"testing"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "£0.00"},
		{1234.5, "£1,234.50"},
		{-80, "-£80.00"},
		{999999.999, "£1,000,000.00"},
	}
	for _, tt := range tests {
		if got := FormatMoney(tt.in); got != tt.want {
			t.Fatalf("FormatMoney(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatMoneyShort(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{950, "£950"},
		{12345, "£12.3K"},
		{1234567, "£1.2M"},
		{-4200, "-£4.2K"},
	}
	for _, tt := range tests {
		if got := FormatMoneyShort(tt.in); got != tt.want {
			t.Fatalf("FormatMoneyShort(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDays(t *testing.T) {
	tests := map[int]string{0: "today", 1: "tomorrow", -1: "yesterday", 26: "in 26 days", -3: "3 days ago"}
	for in, want := range tests {
		if got := FormatDays(in); got != want {
			t.Fatalf("FormatDays(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatDateKeys(t *testing.T) {
	if got := FormatDate("2025-11-10"); got != "10 Nov 2025" {
		t.Fatalf("FormatDate = %q, want %q", got, "10 Nov 2025")
	}
	if got := FormatMonth("2025-09"); got != "Sep 2025" {
		t.Fatalf("FormatMonth = %q, want %q", got, "Sep 2025")
	}
	if got := FormatDate("soon"); got != "soon" {
		t.Fatalf("FormatDate passthrough = %q, want %q", got, "soon")
	}
	if got := FormatAgo(nil); got != "never" {
		t.Fatalf("FormatAgo(nil) = %q, want never", got)
	}
}

func TestRenderTableAlignsMultibyteCells(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Month", "Inflows"},
		Rows:    [][]string{{"Sep 2025", "£1,000.00"}, {"Oct 2025", "£12.00"}},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("lines = %d, want 6", len(lines))
	}
	if !strings.Contains(out, "£1,000.00") || !strings.Contains(out, "   £12.00") {
		t.Fatalf("money column not right-aligned:\n%s", out)
	}
}

func TestRenderProgressBar(t *testing.T) {
	if got := RenderProgressBar(3, 0, 10); got != "" {
		t.Errorf("RenderProgressBar(total=0) = %q, want empty", got)
	}

	got := RenderProgressBar(1, 4, 8)
	if !strings.Contains(got, "██░░░░░░") || !strings.HasSuffix(got, "] 1/4") {
		t.Errorf("RenderProgressBar(1, 4, 8) = %q", got)
	}

	got = RenderProgressBar(9, 4, 8)
	if !strings.Contains(got, strings.Repeat("█", 8)) || strings.Contains(got, "░") {
		t.Errorf("RenderProgressBar(9, 4, 8) = %q, want full bar", got)
	}
}
