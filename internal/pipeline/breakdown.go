package pipeline

import (
	"sort"
	"time"

	"github.com/morehouse/mhouse/internal/model"
)

// CategoryStats holds occupancy and rent for one room category.
type CategoryStats struct {
	Category      model.RoomCategory `json:"category"`
	Rooms         int                `json:"rooms"`
	Occupied      int                `json:"occupied"`
	AvgWeeklyRate float64            `json:"avg_weekly_rate"`
	BookedValue   float64            `json:"booked_value"`
	SharePercent  float64            `json:"share_percent"`
}

// AggregateCategories breaks occupancy and booked value down by room category.
// Rooms without a category are grouped under "Uncategorised".
func AggregateCategories(snap model.Snapshot, capacity int, today time.Time) []CategoryStats {
	rooms := RoomsOf(snap, capacity)
	states := RoomStates(snap, capacity, today)

	catOf := make(map[string]model.RoomCategory, len(rooms))
	byCat := make(map[model.RoomCategory]*CategoryStats)
	rateSum := make(map[model.RoomCategory]float64)
	rateN := make(map[model.RoomCategory]int)

	get := func(cat model.RoomCategory) *CategoryStats {
		if cat == "" {
			cat = "Uncategorised"
		}
		cs, ok := byCat[cat]
		if !ok {
			cs = &CategoryStats{Category: cat}
			byCat[cat] = cs
		}
		return cs
	}

	for _, r := range rooms {
		catOf[r.ID] = r.Category
		get(r.Category).Rooms++
	}
	for _, st := range states {
		if st.Status == model.RoomOccupied {
			get(st.Category).Occupied++
		}
	}

	var total float64
	for _, c := range snap.Contracts {
		if !c.Booked() {
			continue
		}
		cs := get(catOf[c.RoomID])
		cs.BookedValue += c.TotalValue
		total += c.TotalValue
		if c.WeeklyRate > 0 {
			rateSum[cs.Category] += c.WeeklyRate
			rateN[cs.Category]++
		}
	}

	out := make([]CategoryStats, 0, len(byCat))
	for cat, cs := range byCat {
		if n := rateN[cat]; n > 0 {
			cs.AvgWeeklyRate = round2(rateSum[cat] / float64(n))
		}
		cs.BookedValue = round2(cs.BookedValue)
		if total > 0 {
			cs.SharePercent = round1(cs.BookedValue / total * 100)
		}
		out = append(out, *cs)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BookedValue != out[j].BookedValue {
			return out[i].BookedValue > out[j].BookedValue
		}
		return out[i].Category < out[j].Category
	})
	return out
}
