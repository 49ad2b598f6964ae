package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/morehouse/mhouse/internal/analytics"
	"github.com/morehouse/mhouse/internal/cli"
	"github.com/morehouse/mhouse/internal/model"
	"github.com/morehouse/mhouse/internal/pipeline"
)

var (
	flagRoomFloor  string
	flagRoomVacant bool
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "Every room with its current occupant",
	RunE:  runRooms,
}

var roomTimelineCmd = &cobra.Command{
	Use:   "timeline <room-id>",
	Short: "All bookings of one room in start-date order",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoomTimeline,
}

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Viewings and signed contracts over rolling windows",
	RunE:  runActivity,
}

func init() {
	roomsCmd.Flags().StringVar(&flagRoomFloor, "floor", "", "Only rooms on this floor")
	roomsCmd.Flags().BoolVar(&flagRoomVacant, "vacant", false, "Only vacant rooms")
	roomsCmd.AddCommand(roomTimelineCmd)
	rootCmd.AddCommand(roomsCmd, activityCmd)
}

func runRooms(cmd *cobra.Command, _ []string) error {
	src, err := openSource(cmd.Context())
	if err != nil {
		return err
	}
	defer src.close()

	rooms, err := src.analytics.Rooms(cmd.Context())
	fmt.Println()
	if err != nil {
		fmt.Print(cli.RenderEmpty("Rooms"))
		printFetchError("rooms", err)
		return nil
	}

	rows := make([][]string, 0, len(rooms))
	occupied := 0
	for _, r := range rooms {
		if flagRoomFloor != "" && !strings.EqualFold(r.Floor, flagRoomFloor) {
			continue
		}
		if flagRoomVacant && r.Status != model.RoomVacant {
			continue
		}
		if r.Status == model.RoomOccupied {
			occupied++
		}
		until := ""
		if r.OccupiedUntil != "" {
			until = cli.FormatDate(r.OccupiedUntil)
		}
		rows = append(rows, []string{
			r.RoomID,
			r.Floor,
			string(r.Category),
			cli.FormatMoney(r.WeeklyRate),
			r.Status,
			r.CurrentTenant,
			until,
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Rooms  %d shown, %d occupied", len(rows), occupied),
		Headers: []string{"Room", "Floor", "Category", "Weekly", "Status", "Tenant", "Until"},
		Rows:    rows,
	}))
	return nil
}

func runRoomTimeline(cmd *cobra.Command, args []string) error {
	src, err := openSource(cmd.Context())
	if err != nil {
		return err
	}
	defer src.close()

	tl, err := src.analytics.RoomTimeline(cmd.Context(), args[0])
	var se *analytics.StatusError
	if errors.Is(err, pipeline.ErrRoomNotFound) || (errors.As(err, &se) && se.Code == http.StatusNotFound) {
		return fmt.Errorf("room %q not found", args[0])
	}
	fmt.Println()
	if err != nil {
		fmt.Print(cli.RenderEmpty("Room " + args[0]))
		printFetchError("timeline", err)
		return nil
	}

	title := fmt.Sprintf("Room %s  floor %s, %s", tl.RoomID, tl.Floor, tl.Category)
	if len(tl.Contracts) == 0 {
		fmt.Printf("  %s: no bookings\n\n", title)
		return nil
	}
	rows := make([][]string, 0, len(tl.Contracts))
	for _, c := range tl.Contracts {
		rows = append(rows, []string{
			c.ResidentName,
			cli.FormatDate(c.StartDate),
			cli.FormatDate(c.EndDate),
			cli.FormatMoney(c.WeeklyRate),
			cli.FormatMoney(c.TotalValue),
			string(c.Status),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   title,
		Headers: []string{"Resident", "From", "To", "Weekly", "Total", "Status"},
		Rows:    rows,
	}))
	return nil
}

func runActivity(cmd *cobra.Command, _ []string) error {
	src, err := openSource(cmd.Context())
	if err != nil {
		return err
	}
	defer src.close()

	act, err := src.analytics.Activity(cmd.Context())
	fmt.Println()
	if err != nil {
		fmt.Print(cli.RenderEmpty("Activity"))
		printFetchError("activity", err)
		return nil
	}

	rows := make([][]string, 0, len(pipeline.ActivityWindows))
	for _, w := range pipeline.ActivityWindows {
		rows = append(rows, []string{
			"Last " + w.Key,
			formatNumber(int64(act.Viewings[w.Key])),
			formatNumber(int64(act.Contracts[w.Key].Count)),
		})
	}
	rows = append(rows, []string{"---"}, []string{
		"All time",
		formatNumber(int64(act.Totals.TotalViewings)),
		formatNumber(int64(act.Totals.TotalContracts)),
	})
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Activity",
		Headers: []string{"Window", "Viewings", "Signed"},
		Rows:    rows,
	}))

	recent := act.Contracts["7d"].Contracts
	if len(recent) > 0 {
		fmt.Println()
		fmt.Println("  Signed in the last 7 days")
		sort.Slice(recent, func(i, j int) bool { return recent[i].SignDate > recent[j].SignDate })
		for _, c := range recent {
			fmt.Printf("  %s  %-6s %s  %s\n", cli.FormatDate(c.SignDate), c.Unit, c.Name, cli.FormatMoney(c.TotalValue))
		}
		fmt.Println()
	}
	return nil
}
