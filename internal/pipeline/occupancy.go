// Package pipeline turns snapshots of rooms, contracts and payments into
// occupancy, vacancy and cash-flow views.
package pipeline

import (
	"time"

	"github.com/morehouse/mhouse/internal/model"
)

// Summarize computes headline occupancy for today.
func Summarize(snap model.Snapshot, capacity int, today time.Time) model.OccupancySummary {
	today = model.Day(today)
	summary := model.OccupancySummary{
		TotalRooms: capacity,
		AsOf:       today.Format(model.DateLayout),
	}

	occupiedRooms := make(map[string]struct{})
	var activeRent float64
	var activeCount int
	for _, c := range snap.Contracts {
		if !c.Booked() {
			continue
		}
		summary.ContractCount++
		summary.TotalSignedValue += c.TotalValue
		if c.ActiveOn(today) {
			occupiedRooms[c.RoomID] = struct{}{}
			activeRent += c.WeeklyRate
			activeCount++
		}
	}

	summary.Occupied = clamp(len(occupiedRooms), 0, capacity)
	summary.Vacant = capacity - summary.Occupied
	if capacity > 0 {
		summary.OccupancyRate = round1(float64(summary.Occupied) / float64(capacity) * 100)
	}
	if activeCount > 0 {
		summary.AvgWeeklyRent = round2(activeRent / float64(activeCount))
	}
	summary.TotalSignedValue = round2(summary.TotalSignedValue)
	return summary
}

// AggregateMonthly computes occupancy movement for each month from
// startMonth through endMonth inclusive.
func AggregateMonthly(contracts []model.Contract, capacity int, startMonth, endMonth time.Time) []model.OccupancyPeriod {
	spans := monthSpans(startMonth, endMonth)
	periods := aggregatePeriods(contracts, capacity, spans)
	for i := range periods {
		periods[i].Month = spans[i].start.Format(model.MonthLayout)
	}
	return periods
}

// AggregateWeekly computes occupancy movement for n Monday-start weeks
// beginning with the week containing start.
func AggregateWeekly(contracts []model.Contract, capacity int, start time.Time, weeks int) []model.OccupancyPeriod {
	spans := weekSpans(start, weeks)
	periods := aggregatePeriods(contracts, capacity, spans)
	for i := range periods {
		periods[i].WeekStart = spans[i].start.Format(model.DateLayout)
		periods[i].WeekEnd = spans[i].end.AddDate(0, 0, -1).Format(model.DateLayout)
	}
	return periods
}

// aggregatePeriods walks consecutive spans carrying occupancy forward.
// Opening occupancy counts bookings held over into the first span (started
// before it, ending on or after its first day) so a contract starting on the
// first day is counted once, as a move-in. Each later span opens at the
// previous span's end_occupancy.
func aggregatePeriods(contracts []model.Contract, capacity int, spans []span) []model.OccupancyPeriod {
	if len(spans) == 0 {
		return []model.OccupancyPeriod{}
	}

	rangeStart := spans[0].start
	occupancy := 0
	for _, c := range contracts {
		if !c.Booked() {
			continue
		}
		if model.Day(c.StartDate).Before(rangeStart) && !model.Day(c.EndDate).Before(rangeStart) {
			occupancy++
		}
	}
	occupancy = clamp(occupancy, 0, capacity)

	periods := make([]model.OccupancyPeriod, len(spans))
	for i, s := range spans {
		p := model.OccupancyPeriod{StartOccupancy: occupancy}
		for _, c := range contracts {
			if !c.Booked() {
				continue
			}
			if s.contains(c.StartDate) {
				p.MoveIns++
			}
			if s.contains(c.EndDate) {
				p.MoveOuts++
			}
		}
		p.NetChange = p.MoveIns - p.MoveOuts
		p.EndOccupancy = clamp(p.StartOccupancy+p.NetChange, 0, capacity)
		occupancy = p.EndOccupancy
		periods[i] = p
	}
	return periods
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
