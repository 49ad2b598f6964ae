package tui

import (
	"fmt"
	"strings"

	"github.com/morehouse/mhouse/internal/cli"
	"github.com/morehouse/mhouse/internal/tui/components"
	"github.com/morehouse/mhouse/internal/tui/theme"
)

// vacancyBuckets are the cut-offs summarised above the vacancy list.
var vacancyBuckets = []int{7, 14, 30}

func (a App) renderVacanciesTab(cw int) string {
	t := theme.Active
	d := a.dashboard()
	horizon := a.vacancyDays()
	title := fmt.Sprintf("Rooms vacating in the next %d days", horizon)

	if !d.Vacancies.OK() {
		return components.EmptyCard(title, cw)
	}
	vac := d.Vacancies.Data

	var b strings.Builder
	cards := make([]components.Metric, 0, len(vacancyBuckets)+2)
	for _, days := range vacancyBuckets {
		n := 0
		for _, v := range vac {
			if v.DaysUntilVacant <= days {
				n++
			}
		}
		cards = append(cards, components.Metric{
			Label: fmt.Sprintf("Within %d days", days),
			Value: cli.FormatNumber(int64(n)),
			Color: components.ColorForDays(days),
		})
	}
	var weekly float64
	for _, v := range vac {
		weekly += v.WeeklyRate
	}
	cards = append(cards,
		components.Metric{Label: fmt.Sprintf("Within %d days", horizon), Value: cli.FormatNumber(int64(len(vac)))},
		components.Metric{Label: "Weekly rent at risk", Value: cli.FormatMoney(weekly), Color: t.Orange},
	)
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	if len(vac) == 0 {
		b.WriteString(components.ContentCard(title, dimText("Every current booking runs past the horizon or has a follow-on"), cw))
		return b.String()
	}

	rows := make([]tableRow, 0, len(vac))
	for _, v := range vac {
		rows = append(rows, tableRow{
			cells: []string{
				v.RoomID,
				v.CurrentTenant,
				cli.FormatDate(v.VacatesOn),
				cli.FormatDays(v.DaysUntilVacant),
				cli.FormatMoney(v.WeeklyRate),
				v.Status,
			},
			color: components.ColorForDays(v.DaysUntilVacant),
		})
	}
	cols := []column{
		{title: "Room"},
		{title: "Tenant"},
		{title: "Vacates"},
		{title: "When", right: true},
		{title: "Weekly", right: true},
		{title: "Status"},
	}
	b.WriteString(components.ContentCard(title, renderTable(cols, rows, components.CardInnerWidth(cw)), cw))
	return b.String()
}
