package pipeline

import (
	"math"
	"time"

	"github.com/morehouse/mhouse/internal/model"
)

// span is a half-open [start, end) range of calendar days.
type span struct {
	start time.Time
	end   time.Time
}

func (s span) contains(day time.Time) bool {
	day = model.Day(day)
	return !day.Before(s.start) && day.Before(s.end)
}

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday on or before t.
func WeekStart(t time.Time) time.Time {
	day := model.Day(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// ParseMonth parses a YYYY-MM key into the first day of that month.
func ParseMonth(s string) (time.Time, error) {
	return time.Parse(model.MonthLayout, s)
}

// ParseDate parses a YYYY-MM-DD day.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(model.DateLayout, s)
}

// monthSpans returns one span per month from startMonth through endMonth inclusive.
func monthSpans(startMonth, endMonth time.Time) []span {
	start := MonthStart(startMonth)
	last := MonthStart(endMonth)
	var spans []span
	for m := start; !m.After(last); m = m.AddDate(0, 1, 0) {
		spans = append(spans, span{start: m, end: m.AddDate(0, 1, 0)})
	}
	return spans
}

// weekSpans returns n Monday-start weeks beginning with the week containing start.
func weekSpans(start time.Time, n int) []span {
	first := WeekStart(start)
	spans := make([]span, 0, max(n, 0))
	for i := 0; i < n; i++ {
		ws := first.AddDate(0, 0, 7*i)
		spans = append(spans, span{start: ws, end: ws.AddDate(0, 0, 7)})
	}
	return spans
}

// WeeksThrough returns how many Monday-start weeks from start's week cover end.
func WeeksThrough(start, end time.Time) int {
	first := WeekStart(start)
	last := WeekStart(end)
	if last.Before(first) {
		return 0
	}
	return model.DaysBetween(first, last)/7 + 1
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
