package tui

import (
	"fmt"
	"strings"

	"github.com/morehouse/mhouse/internal/cli"
	"github.com/morehouse/mhouse/internal/model"
	"github.com/morehouse/mhouse/internal/tui/components"
	"github.com/morehouse/mhouse/internal/tui/theme"
)

func (a App) renderOccupancyTab(cw int) string {
	t := theme.Active
	d := a.dashboard()
	var b strings.Builder

	capacity := 0
	if d.Summary.OK() {
		s := d.Summary.Data
		capacity = s.TotalRooms
		inner := components.CardInnerWidth(cw)
		barW := inner - 12 - 9 - 30
		if barW < 10 {
			barW = 10
		}
		gauge := components.Gauge("Today", s.OccupancyRate/100,
			fmt.Sprintf("%d of %d rooms", s.Occupied, s.TotalRooms), 10, barW)
		b.WriteString(components.ContentCard("Occupancy as of "+cli.FormatDate(s.AsOf), gauge, cw))
	} else {
		b.WriteString(components.EmptyCard("Occupancy", cw))
	}
	b.WriteString("\n")

	if d.Monthly.OK() && len(d.Monthly.Data) > 0 {
		counts := make([]int, len(d.Monthly.Data))
		for i, p := range d.Monthly.Data {
			counts[i] = p.EndOccupancy
		}
		body := occupancyTable(d.Monthly.Data, capacity, func(p model.OccupancyPeriod) string {
			return cli.FormatMonth(p.Month)
		}, components.CardInnerWidth(cw))
		body += "\n\n" + dimText("trend ") + components.OccupancySparkline(counts, capacity, t.Blue)
		b.WriteString(components.ContentCard("By month", body, cw))
	} else {
		b.WriteString(components.EmptyCard("By month", cw))
	}
	b.WriteString("\n")

	if d.Weekly.OK() && len(d.Weekly.Data) > 0 {
		body := occupancyTable(d.Weekly.Data, capacity, func(p model.OccupancyPeriod) string {
			return cli.FormatDate(p.WeekStart)
		}, components.CardInnerWidth(cw))
		b.WriteString(components.ContentCard(fmt.Sprintf("By week (%d weeks from Monday)", len(d.Weekly.Data)), body, cw))
	} else {
		b.WriteString(components.EmptyCard("By week", cw))
	}

	return b.String()
}

func occupancyTable(periods []model.OccupancyPeriod, capacity int, label func(model.OccupancyPeriod) string, maxW int) string {
	t := theme.Active
	cols := []column{
		{title: "Period"},
		{title: "In", right: true},
		{title: "Out", right: true},
		{title: "Net", right: true},
		{title: "Start", right: true},
		{title: "End", right: true},
		{title: "Rate", right: true},
	}
	rows := make([]tableRow, 0, len(periods))
	for _, p := range periods {
		rate := "-"
		if capacity > 0 {
			rate = cli.FormatPercent(float64(p.EndOccupancy) / float64(capacity) * 100)
		}
		r := tableRow{cells: []string{
			label(p),
			cli.FormatNumber(int64(p.MoveIns)),
			cli.FormatNumber(int64(p.MoveOuts)),
			cli.FormatSigned(p.NetChange),
			cli.FormatNumber(int64(p.StartOccupancy)),
			cli.FormatNumber(int64(p.EndOccupancy)),
			rate,
		}}
		if p.NetChange < 0 {
			r.color = t.Orange
		}
		rows = append(rows, r)
	}
	return renderTable(cols, rows, maxW)
}
