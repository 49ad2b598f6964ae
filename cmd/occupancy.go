package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/morehouse/mhouse/internal/analytics"
	"github.com/morehouse/mhouse/internal/cli"
	"github.com/morehouse/mhouse/internal/model"
	"github.com/morehouse/mhouse/internal/pipeline"
)

var (
	flagFromMonth string
	flagToMonth   string
	flagStartDate string
	flagEndDate   string
	flagWeeks     int
)

var occupancyCmd = &cobra.Command{
	Use:   "occupancy",
	Short: "Monthly move-ins, move-outs and occupancy",
	RunE:  runOccupancyMonthly,
}

var occupancyWeeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Weekly occupancy starting on Mondays",
	RunE:  runOccupancyWeekly,
}

func init() {
	addMonthFlags(occupancyCmd)
	addWeekFlags(occupancyWeeklyCmd)
	occupancyCmd.AddCommand(occupancyWeeklyCmd)
	rootCmd.AddCommand(occupancyCmd)
}

func addMonthFlags(c *cobra.Command) {
	c.Flags().StringVar(&flagFromMonth, "from", "", "First month, YYYY-MM (default: this month)")
	c.Flags().StringVar(&flagToMonth, "to", "", "Last month, YYYY-MM (default: a year ahead)")
}

func addWeekFlags(c *cobra.Command) {
	c.Flags().StringVar(&flagStartDate, "start", "", "Any day in the first week, YYYY-MM-DD (default: today)")
	c.Flags().StringVar(&flagEndDate, "end", "", "Any day in the last week, YYYY-MM-DD (overrides --weeks)")
	c.Flags().IntVarP(&flagWeeks, "weeks", "w", 8, "Number of weeks")
}

// monthRangeFlags resolves --from and --to.
func monthRangeFlags() (start, end time.Time, err error) {
	today := model.Today()
	start, err = monthFlag(flagFromMonth, pipeline.MonthStart(today))
	if err != nil {
		return start, end, err
	}
	end, err = monthFlag(flagToMonth, pipeline.MonthStart(today.AddDate(0, 0, 365)))
	if err != nil {
		return start, end, err
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("--to %s is before --from %s", end.Format(model.MonthLayout), start.Format(model.MonthLayout))
	}
	return start, end, nil
}

// weekRangeFlags resolves --start with either --end or --weeks.
func weekRangeFlags() (time.Time, int, error) {
	start, err := dateFlag(flagStartDate, model.Today())
	if err != nil {
		return start, 0, err
	}
	if flagEndDate != "" {
		end, err := dateFlag(flagEndDate, start)
		if err != nil {
			return start, 0, err
		}
		if end.Before(start) {
			return start, 0, fmt.Errorf("--end is before --start")
		}
		return start, pipeline.WeeksThrough(start, end), nil
	}
	if flagWeeks < 1 {
		return start, 0, fmt.Errorf("--weeks must be at least 1")
	}
	return start, flagWeeks, nil
}

func runOccupancyMonthly(cmd *cobra.Command, _ []string) error {
	start, end, err := monthRangeFlags()
	if err != nil {
		return err
	}
	src, err := openSource(cmd.Context())
	if err != nil {
		return err
	}
	defer src.close()

	periods, err := src.analytics.OccupancyMonthly(cmd.Context(), start, end)
	fmt.Println()
	renderMonthlyOccupancy(analytics.Widget[[]model.OccupancyPeriod]{Data: periods, Err: err})
	if err != nil {
		printFetchError("occupancy", err)
		return nil
	}
	renderOccupancyBars(periods, src.cfg.General.TotalRooms)
	return nil
}

func runOccupancyWeekly(cmd *cobra.Command, _ []string) error {
	start, weeks, err := weekRangeFlags()
	if err != nil {
		return err
	}
	src, err := openSource(cmd.Context())
	if err != nil {
		return err
	}
	defer src.close()

	periods, err := src.analytics.OccupancyWeekly(cmd.Context(), start, weeks)
	fmt.Println()
	if err != nil {
		fmt.Print(cli.RenderEmpty("Occupancy by week"))
		printFetchError("occupancy", err)
		return nil
	}

	rows := make([][]string, 0, len(periods))
	for _, p := range periods {
		rows = append(rows, []string{
			cli.FormatDate(p.WeekStart) + " - " + cli.FormatDate(p.WeekEnd),
			fmt.Sprintf("%d", p.MoveIns),
			fmt.Sprintf("%d", p.MoveOuts),
			cli.FormatSigned(p.NetChange),
			fmt.Sprintf("%d", p.EndOccupancy),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Occupancy by week",
		Headers: []string{"Week", "In", "Out", "Net", "Occupied"},
		Rows:    rows,
	}))
	return nil
}

func renderOccupancyBars(periods []model.OccupancyPeriod, capacity int) {
	if len(periods) == 0 || capacity <= 0 {
		return
	}
	fmt.Println()
	values := make([]float64, 0, len(periods))
	for _, p := range periods {
		values = append(values, float64(p.EndOccupancy))
		annotation := fmt.Sprintf("%d/%d", p.EndOccupancy, capacity)
		fmt.Println(cli.RenderHorizontalBar(cli.FormatMonth(p.Month), float64(p.EndOccupancy), float64(capacity), 40, annotation))
	}
	fmt.Printf("\n  Trend  %s\n\n", cli.RenderSparkline(values))
}
