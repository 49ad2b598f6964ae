package pipeline

import (
	"sort"
	"time"

	"github.com/morehouse/mhouse/internal/model"
)

// DefaultVacancyHorizon is the look-ahead used when none is given.
const DefaultVacancyHorizon = 60

// NoFollowOn is the status label on every forecast vacancy.
const NoFollowOn = "No follow-on"

// ForecastVacancies returns rooms whose current booking ends within
// horizonDays of today with no later booking starting on or before that end
// date. Results are ordered by days until vacant, then room ID.
func ForecastVacancies(contracts []model.Contract, today time.Time, horizonDays int) []model.Vacancy {
	if horizonDays <= 0 {
		horizonDays = DefaultVacancyHorizon
	}
	today = model.Day(today)
	horizon := today.AddDate(0, 0, horizonDays)

	// Latest-ending active booking per room.
	current := make(map[string]model.Contract)
	for _, c := range contracts {
		if !c.Booked() || !c.ActiveOn(today) {
			continue
		}
		if prev, ok := current[c.RoomID]; !ok || c.EndDate.After(prev.EndDate) {
			current[c.RoomID] = c
		}
	}

	vacancies := make([]model.Vacancy, 0)
	for roomID, c := range current {
		end := model.Day(c.EndDate)
		if end.After(horizon) {
			continue
		}
		if hasFollowOn(contracts, roomID, today, end) {
			continue
		}
		vacancies = append(vacancies, model.Vacancy{
			RoomID:          roomID,
			CurrentTenant:   c.ResidentName,
			VacatesOn:       end.Format(model.DateLayout),
			DaysUntilVacant: model.DaysBetween(today, end),
			WeeklyRate:      c.WeeklyRate,
			Status:          NoFollowOn,
		})
	}

	sort.Slice(vacancies, func(i, j int) bool {
		if vacancies[i].DaysUntilVacant != vacancies[j].DaysUntilVacant {
			return vacancies[i].DaysUntilVacant < vacancies[j].DaysUntilVacant
		}
		return vacancies[i].RoomID < vacancies[j].RoomID
	})
	return vacancies
}

// hasFollowOn reports whether roomID has a future booking starting on or
// before end.
func hasFollowOn(contracts []model.Contract, roomID string, today, end time.Time) bool {
	for _, c := range contracts {
		if c.RoomID != roomID || !c.Booked() {
			continue
		}
		start := model.Day(c.StartDate)
		if start.After(today) && !start.After(end) {
			return true
		}
	}
	return false
}
