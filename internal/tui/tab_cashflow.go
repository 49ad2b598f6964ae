package tui

import (
	"fmt"
	"strings"

	"github.com/morehouse/mhouse/internal/cli"
	"github.com/morehouse/mhouse/internal/tui/components"
	"github.com/morehouse/mhouse/internal/tui/theme"
)

func (a App) renderCashFlowTab(cw int) string {
	t := theme.Active
	d := a.dashboard()
	var b strings.Builder

	if d.CashSummary.OK() {
		c := d.CashSummary.Data
		collected := ""
		if c.ExpectedInflows > 0 {
			collected = cli.FormatPercent(c.Paid/c.ExpectedInflows*100) + " collected"
		}
		overdueColor := t.TextPrimary
		if c.OverdueCount > 0 {
			overdueColor = t.Red
		}
		b.WriteString(components.MetricCardRow([]components.Metric{
			{Label: "Expected " + cli.FormatMonth(c.Month), Value: cli.FormatMoney(c.ExpectedInflows)},
			{Label: "Received", Value: cli.FormatMoney(c.Paid), Delta: collected, Color: t.Green},
			{Label: "Outstanding", Value: cli.FormatMoney(c.Outstanding)},
			{Label: "Overdue", Value: cli.FormatMoney(c.OverdueAmount), Delta: fmt.Sprintf("%d payments", c.OverdueCount), Color: overdueColor},
		}, cw))
	} else {
		b.WriteString(components.EmptyCard("Cash position", cw))
	}
	b.WriteString("\n")

	if d.CashMonthly.OK() && len(d.CashMonthly.Data) > 0 {
		periods := d.CashMonthly.Data
		nets := make([]float64, len(periods))
		keys := make([]string, len(periods))
		rows := make([]tableRow, 0, len(periods))
		for i, p := range periods {
			nets[i] = p.NetCashflow
			keys[i] = p.Month
			r := tableRow{cells: []string{
				cli.FormatMonth(p.Month),
				cli.FormatMoney(p.Inflows),
				cli.FormatMoney(p.Paid),
				cli.FormatMoney(p.Outflows),
				cli.FormatMoney(p.NetCashflow),
				cli.FormatMoney(p.RunningBalance),
			}}
			if p.RunningBalance < 0 {
				r.color = t.Balance(p.RunningBalance)
			}
			rows = append(rows, r)
		}
		cols := []column{
			{title: "Month"},
			{title: "Expected", right: true},
			{title: "Paid", right: true},
			{title: "Opex", right: true},
			{title: "Net", right: true},
			{title: "Balance", right: true},
		}
		inner := components.CardInnerWidth(cw)
		body := renderTable(cols, rows, inner) + "\n\n" + components.NetBars(nets, monthLabels(keys), inner)
		b.WriteString(components.ContentCard("Monthly cash flow", body, cw))
	} else {
		b.WriteString(components.EmptyCard("Monthly cash flow", cw))
	}
	b.WriteString("\n")

	switch {
	case !d.Overdue.OK():
		b.WriteString(components.EmptyCard("Overdue payments", cw))
	case len(d.Overdue.Data) == 0:
		b.WriteString(components.ContentCard("Overdue payments", dimText("Nothing overdue"), cw))
	default:
		rows := make([]tableRow, 0, len(d.Overdue.Data))
		var total float64
		for _, p := range d.Overdue.Data {
			rows = append(rows, tableRow{
				cells: []string{
					p.RoomID,
					p.ResidentName,
					cli.FormatDate(p.DueDate),
					fmt.Sprintf("%dd", p.DaysOverdue),
					cli.FormatMoney(p.Outstanding),
				},
				color: components.ColorForDays(30 - p.DaysOverdue),
			})
			total += p.Outstanding
		}
		cols := []column{
			{title: "Room"},
			{title: "Resident"},
			{title: "Due"},
			{title: "Late", right: true},
			{title: "Outstanding", right: true},
		}
		b.WriteString(components.ContentCard(
			fmt.Sprintf("Overdue payments (%s)", cli.FormatMoney(total)),
			renderTable(cols, rows, components.CardInnerWidth(cw)),
			cw,
		))
	}

	return b.String()
}
