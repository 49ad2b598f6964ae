package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/morehouse/mhouse/internal/cli"
	"github.com/morehouse/mhouse/internal/model"
)

var flagExpectedDays int

var cashflowCmd = &cobra.Command{
	Use:     "cashflow",
	Aliases: []string{"cash"},
	Short:   "Monthly expected inflows, opex and running balance",
	RunE:    runCashMonthly,
}

var cashflowWeeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Expected inflows per Monday-start week",
	RunE:  runCashWeekly,
}

var paymentsCmd = &cobra.Command{
	Use:   "payments",
	Short: "Scheduled payments by month",
	RunE:  runPaymentSchedule,
}

var paymentsExpectedCmd = &cobra.Command{
	Use:   "expected",
	Short: "Individual payments due in a date range",
	RunE:  runPaymentsExpected,
}

var paymentsOverdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "Unsettled payments past their due date",
	RunE:  runPaymentsOverdue,
}

func init() {
	addMonthFlags(cashflowCmd)
	addWeekFlags(cashflowWeeklyCmd)
	cashflowCmd.AddCommand(cashflowWeeklyCmd)

	addMonthFlags(paymentsCmd)
	paymentsExpectedCmd.Flags().StringVar(&flagStartDate, "start", "", "First due date, YYYY-MM-DD (default: today)")
	paymentsExpectedCmd.Flags().StringVar(&flagEndDate, "end", "", "Last due date, YYYY-MM-DD (default: --days after --start)")
	paymentsExpectedCmd.Flags().IntVar(&flagExpectedDays, "days", 90, "Days ahead when --end is not given")
	paymentsCmd.AddCommand(paymentsExpectedCmd, paymentsOverdueCmd)

	rootCmd.AddCommand(cashflowCmd, paymentsCmd)
}

func runCashMonthly(cmd *cobra.Command, _ []string) error {
	start, end, err := monthRangeFlags()
	if err != nil {
		return err
	}
	src, err := openSource(cmd.Context())
	if err != nil {
		return err
	}
	defer src.close()

	periods, err := src.analytics.CashMonthly(cmd.Context(), start, end)
	fmt.Println()
	if err != nil {
		fmt.Print(cli.RenderEmpty("Cash flow by month"))
		printFetchError("cash flow", err)
		return nil
	}

	rows := make([][]string, 0, len(periods))
	nets := make([]float64, 0, len(periods))
	for _, p := range periods {
		rows = append(rows, []string{
			cli.FormatMonth(p.Month),
			cli.FormatMoney(p.Inflows),
			cli.FormatMoney(p.Paid),
			cli.FormatMoney(p.Outflows),
			cli.FormatMoney(p.NetCashflow),
			cli.FormatMoney(p.RunningBalance),
		})
		nets = append(nets, p.NetCashflow)
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Cash flow by month",
		Headers: []string{"Month", "Expected", "Paid", "Opex", "Net", "Balance"},
		Rows:    rows,
	}))

	maxAbs := 0.0
	for _, n := range nets {
		if n < 0 {
			n = -n
		}
		if n > maxAbs {
			maxAbs = n
		}
	}
	if maxAbs > 0 {
		fmt.Println()
		for i, p := range periods {
			fmt.Println(cli.RenderHorizontalBar(cli.FormatMonth(p.Month), nets[i], maxAbs, 40, cli.FormatMoneyShort(nets[i])))
		}
		fmt.Println()
	}
	return nil
}

func runCashWeekly(cmd *cobra.Command, _ []string) error {
	start, weeks, err := weekRangeFlags()
	if err != nil {
		return err
	}
	src, err := openSource(cmd.Context())
	if err != nil {
		return err
	}
	defer src.close()

	periods, err := src.analytics.CashWeekly(cmd.Context(), start, weeks)
	fmt.Println()
	if err != nil {
		fmt.Print(cli.RenderEmpty("Cash flow by week"))
		printFetchError("cash flow", err)
		return nil
	}

	rows := make([][]string, 0, len(periods))
	var total float64
	for _, p := range periods {
		rows = append(rows, []string{
			cli.FormatDate(p.WeekStart) + " - " + cli.FormatDate(p.WeekEnd),
			fmt.Sprintf("%d", p.PaymentsDue),
			cli.FormatMoney(p.ExpectedInflows),
		})
		total += p.ExpectedInflows
	}
	rows = append(rows, []string{"---"}, []string{"Total", "", cli.FormatMoney(total)})
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Cash flow by week",
		Headers: []string{"Week", "Payments", "Expected"},
		Rows:    rows,
	}))
	return nil
}

func runPaymentSchedule(cmd *cobra.Command, _ []string) error {
	start, end, err := monthRangeFlags()
	if err != nil {
		return err
	}
	src, err := openSource(cmd.Context())
	if err != nil {
		return err
	}
	defer src.close()

	schedule, err := src.analytics.PaymentSchedule(cmd.Context(), start, end)
	fmt.Println()
	if err != nil {
		fmt.Print(cli.RenderEmpty("Payment schedule"))
		printFetchError("payment schedule", err)
		return nil
	}

	rows := make([][]string, 0, len(schedule))
	for _, r := range schedule {
		rows = append(rows, []string{
			cli.FormatMonth(r.Month),
			fmt.Sprintf("%d", r.NumPayments),
			cli.FormatMoney(r.TotalExpected),
			cli.FormatMoney(r.TotalPaid),
			cli.FormatMoney(r.Outstanding),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Payment schedule",
		Headers: []string{"Month", "Payments", "Expected", "Paid", "Outstanding"},
		Rows:    rows,
	}))
	return nil
}

func runPaymentsExpected(cmd *cobra.Command, _ []string) error {
	from, err := dateFlag(flagStartDate, model.Today())
	if err != nil {
		return err
	}
	to, err := dateFlag(flagEndDate, from.AddDate(0, 0, flagExpectedDays))
	if err != nil {
		return err
	}
	if to.Before(from) {
		return fmt.Errorf("--end is before --start")
	}
	src, err := openSource(cmd.Context())
	if err != nil {
		return err
	}
	defer src.close()

	payments, err := src.analytics.ExpectedPayments(cmd.Context(), from, to)
	title := fmt.Sprintf("Payments due %s to %s", from.Format("2 Jan"), to.Format("2 Jan 2006"))
	fmt.Println()
	if err != nil {
		fmt.Print(cli.RenderEmpty(title))
		printFetchError("expected payments", err)
		return nil
	}
	if len(payments) == 0 {
		fmt.Printf("  %s: none\n\n", title)
		return nil
	}

	rows := make([][]string, 0, len(payments))
	var total float64
	for _, p := range payments {
		rows = append(rows, []string{
			cli.FormatDate(p.DueDate),
			p.RoomID,
			p.ResidentName,
			string(p.PaymentType),
			string(p.Status),
			cli.FormatMoney(p.Amount),
		})
		total += p.Amount
	}
	rows = append(rows, []string{"---"}, []string{"Total", "", "", "", "", cli.FormatMoney(total)})
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   title,
		Headers: []string{"Due", "Room", "Resident", "Type", "Status", "Amount"},
		Rows:    rows,
	}))
	return nil
}

func runPaymentsOverdue(cmd *cobra.Command, _ []string) error {
	src, err := openSource(cmd.Context())
	if err != nil {
		return err
	}
	defer src.close()

	overdue, err := src.analytics.OverduePayments(cmd.Context())
	fmt.Println()
	if err != nil {
		fmt.Print(cli.RenderEmpty("Overdue payments"))
		printFetchError("overdue payments", err)
		return nil
	}
	if len(overdue) == 0 {
		fmt.Println("  Overdue payments: none")
		fmt.Println()
		return nil
	}

	rows := make([][]string, 0, len(overdue))
	var total float64
	for _, p := range overdue {
		rows = append(rows, []string{
			p.RoomID,
			p.ResidentName,
			cli.FormatDate(p.DueDate),
			fmt.Sprintf("%dd", p.DaysOverdue),
			cli.FormatMoney(p.Outstanding),
		})
		total += p.Outstanding
	}
	rows = append(rows, []string{"---"}, []string{"Total", "", "", "", cli.FormatMoney(total)})
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Overdue payments",
		Headers: []string{"Room", "Resident", "Due", "Late", "Outstanding"},
		Rows:    rows,
	}))
	return nil
}
