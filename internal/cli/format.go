// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/morehouse/mhouse/internal/model"
)

// FormatMoney formats a GBP amount with thousands separators.
// e.g., 1234.5 -> "£1,234.50", -80 -> "-£80.00"
func FormatMoney(v float64) string {
	if v < 0 {
		return "-" + FormatMoney(-v)
	}
	pence := int64(math.Round(v * 100))
	return fmt.Sprintf("£%s.%02d", FormatNumber(pence/100), pence%100)
}

// FormatMoneyShort formats a GBP amount with a human-readable suffix.
// e.g., 950 -> "£950", 12345 -> "£12.3K", 1234567 -> "£1.2M"
func FormatMoneyShort(v float64) string {
	abs := math.Abs(v)
	sign := ""
	if v < 0 {
		sign = "-"
	}

	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%s£%.1fM", sign, abs/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%s£%.1fK", sign, abs/1_000)
	default:
		return fmt.Sprintf("%s£%.0f", sign, abs)
	}
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-100 rate as a percentage string.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatSigned formats a movement count with an explicit sign.
func FormatSigned(n int) string {
	if n > 0 {
		return "+" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// FormatDate renders a YYYY-MM-DD key as "2 Jan 2006". Unparseable input
// is returned unchanged.
func FormatDate(key string) string {
	t, err := time.Parse(model.DateLayout, key)
	if err != nil {
		return key
	}
	return t.Format("2 Jan 2006")
}

// FormatMonth renders a YYYY-MM key as "Jan 2006".
func FormatMonth(key string) string {
	t, err := time.Parse(model.MonthLayout, key)
	if err != nil {
		return key
	}
	return t.Format("Jan 2006")
}

// FormatDays describes a day count relative to today.
// e.g., 0 -> "today", 1 -> "tomorrow", 26 -> "in 26 days", -3 -> "3 days ago"
func FormatDays(n int) string {
	switch {
	case n == 0:
		return "today"
	case n == 1:
		return "tomorrow"
	case n == -1:
		return "yesterday"
	case n < 0:
		return fmt.Sprintf("%d days ago", -n)
	default:
		return fmt.Sprintf("in %d days", n)
	}
}

// FormatAgo renders a timestamp relative to now, or "never" for nil.
func FormatAgo(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}
	return humanize.Time(*t)
}

// FormatDuration formats seconds into a human-readable duration.
// e.g., 3725 -> "1h 2m", 125 -> "2m", 45 -> "45s"
func FormatDuration(secs int64) string {
	if secs <= 0 {
		return "0s"
	}

	hours := secs / 3600
	mins := (secs % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	if mins > 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%ds", secs)
}
