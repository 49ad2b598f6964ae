package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/morehouse/mhouse/internal/model"
)

// ActivityWindow is a rolling look-back window.
type ActivityWindow struct {
	Key  string
	Days int
}

// ActivityWindows are the look-back windows reported by ActivitySummary.
var ActivityWindows = []ActivityWindow{
	{Key: "1d", Days: 1},
	{Key: "3d", Days: 3},
	{Key: "7d", Days: 7},
	{Key: "1m", Days: 30},
	{Key: "3m", Days: 90},
}

// ActivitySummary counts viewings and newly signed contracts in each rolling
// window ending today. Viewings are de-duplicated by resident name, keeping
// the first one seen.
func ActivitySummary(viewings []model.Viewing, contracts []model.Contract, today time.Time) model.ActivitySummary {
	today = model.Day(today)

	seen := make(map[string]struct{})
	var unique []model.Viewing
	for _, v := range viewings {
		if v.Date.IsZero() {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(v.Name))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, v)
	}

	var signed []model.Contract
	for _, c := range contracts {
		if !c.SignedDate.IsZero() {
			signed = append(signed, c)
		}
	}
	sort.SliceStable(signed, func(i, j int) bool {
		return signed[i].SignedDate.After(signed[j].SignedDate)
	})

	summary := model.ActivitySummary{
		Viewings:  make(map[string]int, len(ActivityWindows)),
		Contracts: make(map[string]model.ContractWindow, len(ActivityWindows)),
		Totals: model.ActivityTotals{
			TotalViewings:  len(unique),
			TotalContracts: len(signed),
		},
	}

	for _, w := range ActivityWindows {
		cutoff := today.AddDate(0, 0, -w.Days)

		n := 0
		for _, v := range unique {
			if !model.Day(v.Date).Before(cutoff) {
				n++
			}
		}
		summary.Viewings[w.Key] = n

		window := model.ContractWindow{Contracts: []model.SignedContract{}}
		for _, c := range signed {
			if model.Day(c.SignedDate).Before(cutoff) {
				continue
			}
			window.Contracts = append(window.Contracts, signedContract(c))
		}
		window.Count = len(window.Contracts)
		summary.Contracts[w.Key] = window
	}
	return summary
}

func signedContract(c model.Contract) model.SignedContract {
	sc := model.SignedContract{
		Name:       c.ResidentName,
		SignDate:   model.Day(c.SignedDate).Format(model.DateLayout),
		Unit:       c.RoomID,
		Rate:       c.WeeklyRate,
		TotalValue: c.TotalValue,
	}
	if !c.StartDate.IsZero() {
		sc.StartDate = model.Day(c.StartDate).Format(model.DateLayout)
	}
	if !c.EndDate.IsZero() {
		sc.EndDate = model.Day(c.EndDate).Format(model.DateLayout)
	}
	return sc
}
