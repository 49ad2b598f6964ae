package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/morehouse/mhouse/internal/analytics"
	"github.com/morehouse/mhouse/internal/cli"
	"github.com/morehouse/mhouse/internal/model"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Occupancy, vacancy and cash-flow headline figures",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	src, err := openSource(cmd.Context())
	if err != nil {
		return err
	}
	defer src.close()

	d := analytics.FetchDashboard(cmd.Context(), src.analytics, analytics.DashboardParams{
		Months:      6,
		VacancyDays: src.cfg.General.VacancyHorizon,
	})
	if err := d.Fatal(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("MORE HOUSE  " + cli.FormatDate(d.Summary.Data.AsOf)))
	fmt.Println()

	if d.Summary.OK() {
		s := d.Summary.Data
		fmt.Print(cli.RenderStats([][2]string{
			{"Occupancy", fmt.Sprintf("%s  (%d of %d rooms)", cli.FormatPercent(s.OccupancyRate), s.Occupied, s.TotalRooms)},
			{"Vacant", fmt.Sprintf("%d", s.Vacant)},
			{"Avg weekly rent", cli.FormatMoney(s.AvgWeeklyRent)},
			{"Signed value", cli.FormatMoney(s.TotalSignedValue)},
			{"Contracts", formatNumber(int64(s.ContractCount))},
		}))
	} else {
		fmt.Print(cli.RenderEmpty("Occupancy"))
	}
	fmt.Println()

	if d.CashSummary.OK() {
		c := d.CashSummary.Data
		fmt.Print(cli.RenderStats([][2]string{
			{"Expected " + cli.FormatMonth(c.Month), cli.FormatMoney(c.ExpectedInflows)},
			{"Collected", cli.FormatMoney(c.Paid)},
			{"Outstanding", cli.FormatMoney(c.Outstanding)},
			{"Overdue", fmt.Sprintf("%s across %d payments", cli.FormatMoney(c.OverdueAmount), c.OverdueCount)},
		}))
	} else {
		fmt.Print(cli.RenderEmpty("Cash flow"))
	}
	fmt.Println()

	renderVacancies(d.Vacancies, src.cfg.General.VacancyHorizon, 5)
	renderMonthlyOccupancy(d.Monthly)
	return nil
}

// renderVacancies prints up to limit upcoming vacancies; limit <= 0 prints all.
func renderVacancies(w analytics.Widget[[]model.Vacancy], horizon, limit int) {
	title := fmt.Sprintf("Vacancies in the next %d days", horizon)
	if !w.OK() {
		fmt.Print(cli.RenderEmpty(title))
		return
	}
	if len(w.Data) == 0 {
		fmt.Printf("  %s: none\n\n", title)
		return
	}

	rows := make([][]string, 0, len(w.Data))
	for i, v := range w.Data {
		if limit > 0 && i == limit {
			rows = append(rows, []string{"---"})
			rows = append(rows, []string{fmt.Sprintf("+%d more", len(w.Data)-limit), "", "", "", ""})
			break
		}
		rows = append(rows, []string{
			v.RoomID,
			v.CurrentTenant,
			cli.FormatDate(v.VacatesOn),
			cli.FormatDays(v.DaysUntilVacant),
			cli.FormatMoney(v.WeeklyRate),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   title,
		Headers: []string{"Room", "Tenant", "Vacates", "When", "Weekly"},
		Rows:    rows,
	}))
}

func renderMonthlyOccupancy(w analytics.Widget[[]model.OccupancyPeriod]) {
	if !w.OK() {
		fmt.Print(cli.RenderEmpty("Occupancy by month"))
		return
	}
	rows := make([][]string, 0, len(w.Data))
	for _, p := range w.Data {
		rows = append(rows, []string{
			cli.FormatMonth(p.Month),
			fmt.Sprintf("%d", p.MoveIns),
			fmt.Sprintf("%d", p.MoveOuts),
			cli.FormatSigned(p.NetChange),
			fmt.Sprintf("%d", p.StartOccupancy),
			fmt.Sprintf("%d", p.EndOccupancy),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Occupancy by month",
		Headers: []string{"Month", "In", "Out", "Net", "Start", "End"},
		Rows:    rows,
	}))
}
