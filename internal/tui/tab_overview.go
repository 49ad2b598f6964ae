package tui

import (
	"fmt"
	"strings"

	"github.com/morehouse/mhouse/internal/cli"
	"github.com/morehouse/mhouse/internal/model"
	"github.com/morehouse/mhouse/internal/pipeline"
	"github.com/morehouse/mhouse/internal/tui/components"
	"github.com/morehouse/mhouse/internal/tui/theme"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	d := a.dashboard()
	var b strings.Builder

	// Row 1: headline occupancy
	if d.Summary.OK() {
		s := d.Summary.Data
		vacantNote := ""
		if d.Vacancies.OK() {
			vacantNote = fmt.Sprintf("%d more within %dd", len(d.Vacancies.Data), a.vacancyDays())
		}
		b.WriteString(components.MetricCardRow([]components.Metric{
			{Label: "Occupied", Value: fmt.Sprintf("%d / %d", s.Occupied, s.TotalRooms), Delta: fmt.Sprintf("%d contracts", s.ContractCount)},
			{Label: "Occupancy", Value: cli.FormatPercent(s.OccupancyRate), Color: components.ColorForRate(s.OccupancyRate / 100)},
			{Label: "Vacant", Value: cli.FormatNumber(int64(s.Vacant)), Delta: vacantNote},
			{Label: "Avg weekly rent", Value: cli.FormatMoney(s.AvgWeeklyRent), Delta: cli.FormatMoneyShort(s.TotalSignedValue) + " signed"},
		}, cw))
	} else {
		b.WriteString(components.EmptyCard("Occupancy", cw))
	}
	b.WriteString("\n")

	// Row 2: occupancy trend + vacating soon
	halves := components.LayoutRow(cw, 2)
	chartH := 8
	if a.isCompactLayout() {
		chartH = 6
	}

	trendW := cw
	if !a.isCompactLayout() {
		trendW = halves[0]
	}
	var trend string
	if d.Monthly.OK() && len(d.Monthly.Data) > 0 {
		keys := make([]string, len(d.Monthly.Data))
		counts := make([]int, len(d.Monthly.Data))
		for i, p := range d.Monthly.Data {
			keys[i] = p.Key()
			counts[i] = p.EndOccupancy
		}
		capacity := 0
		if d.Summary.OK() {
			capacity = d.Summary.Data.TotalRooms
		}
		trend = components.ContentCard(
			fmt.Sprintf("Occupied rooms at month end (%d months)", len(counts)),
			components.RoomsChart(counts, monthLabels(keys), capacity, t.Blue, components.CardInnerWidth(trendW), chartH),
			trendW,
		)
	} else {
		trend = components.EmptyCard("Occupied rooms at month end", trendW)
	}

	vacW := halves[1]
	if a.isCompactLayout() {
		vacW = cw
	}
	var soon string
	title := fmt.Sprintf("Vacating within %d days", a.vacancyDays())
	switch {
	case !d.Vacancies.OK():
		soon = components.EmptyCard(title, vacW)
	case len(d.Vacancies.Data) == 0:
		soon = components.ContentCard(title, dimText("No rooms fall vacant in the horizon"), vacW)
	default:
		limit := chartH + 1
		rows := make([]tableRow, 0, limit)
		for i, v := range d.Vacancies.Data {
			if i == limit {
				break
			}
			rows = append(rows, tableRow{
				cells: []string{v.RoomID, v.CurrentTenant, cli.FormatDays(v.DaysUntilVacant)},
				color: components.ColorForDays(v.DaysUntilVacant),
			})
		}
		body := renderTable([]column{{title: "Room"}, {title: "Tenant"}, {title: "Vacates", right: true}}, rows, components.CardInnerWidth(vacW))
		if more := len(d.Vacancies.Data) - len(rows); more > 0 {
			body += "\n" + dimText(fmt.Sprintf("+%d more on the Vacancies tab", more))
		}
		soon = components.ContentCard(title, body, vacW)
	}

	if a.isCompactLayout() {
		b.WriteString(trend)
		b.WriteString("\n")
		b.WriteString(soon)
	} else {
		b.WriteString(components.CardRow([]string{trend, soon}))
	}
	b.WriteString("\n")

	// Row 3: cash position + activity
	bottom := halves
	if a.isCompactLayout() {
		bottom = []int{cw, cw}
	}
	var cash string
	if d.CashSummary.OK() {
		c := d.CashSummary.Data
		cash = components.ContentCard("Cash this month ("+cli.FormatMonth(c.Month)+")", labelValue([][2]string{
			{"Expected", cli.FormatMoney(c.ExpectedInflows)},
			{"Received", cli.FormatMoney(c.Paid)},
			{"Outstanding", cli.FormatMoney(c.Outstanding)},
			{"Overdue", fmt.Sprintf("%s (%d payments)", cli.FormatMoney(c.OverdueAmount), c.OverdueCount)},
		}), bottom[0])
	} else {
		cash = components.EmptyCard("Cash this month", bottom[0])
	}

	var activity string
	if d.Activity.OK() {
		activity = components.ContentCard("Activity", renderActivity(d.Activity.Data), bottom[1])
	} else {
		activity = components.EmptyCard("Activity", bottom[1])
	}

	if a.isCompactLayout() {
		b.WriteString(cash)
		b.WriteString("\n")
		b.WriteString(activity)
	} else {
		b.WriteString(components.CardRow([]string{cash, activity}))
	}

	return b.String()
}

func renderActivity(act model.ActivitySummary) string {
	rows := make([]tableRow, 0, len(pipeline.ActivityWindows)+1)
	for _, w := range pipeline.ActivityWindows {
		rows = append(rows, tableRow{cells: []string{
			"Last " + w.Key,
			cli.FormatNumber(int64(act.Viewings[w.Key])),
			cli.FormatNumber(int64(act.Contracts[w.Key].Count)),
		}})
	}
	rows = append(rows, tableRow{
		cells: []string{
			"All time",
			cli.FormatNumber(int64(act.Totals.TotalViewings)),
			cli.FormatNumber(int64(act.Totals.TotalContracts)),
		},
		color: theme.Active.TextMuted,
	})
	return renderTable([]column{{title: "Window"}, {title: "Viewings", right: true}, {title: "Signed", right: true}}, rows, 0)
}
