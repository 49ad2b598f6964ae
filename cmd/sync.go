package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/morehouse/mhouse/internal/analytics"
	"github.com/morehouse/mhouse/internal/cli"
	"github.com/morehouse/mhouse/internal/daemon"
	"github.com/morehouse/mhouse/internal/model"
	"github.com/morehouse/mhouse/internal/syncer"
)

var (
	flagSyncNoWait   bool
	flagSyncInterval time.Duration
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Show CRM sync status",
	RunE:  runSyncStatus,
}

var syncRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Pull rooms, contracts and viewings from Monday.com",
	RunE:  runSyncRun,
}

func init() {
	syncRunCmd.Flags().BoolVar(&flagSyncNoWait, "no-wait", false, "Return once the run has started (only with --api)")
	syncRunCmd.Flags().DurationVar(&flagSyncInterval, "interval", syncer.DefaultPollInterval, "Status polling interval while syncing")
	syncCmd.AddCommand(syncRunCmd)
	rootCmd.AddCommand(syncCmd)
}

// openSyncControl skips the snapshot load; sync commands only need the
// store and the runner.
func openSyncControl() (analytics.SyncControl, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if flagAPI != "" {
		return analytics.NewRemote(flagAPI), func() {}, nil
	}

	log := newLogger(cfg, "")
	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	tracker := syncer.NewTracker()
	if last, err := st.LastSyncRun(context.Background()); err == nil {
		tracker.Restore(last)
	}
	runner := newRunner(cfg, st, log, tracker, nil)
	closeFn := func() {
		runner.Wait()
		_ = st.Close()
		_ = log.Sync()
	}
	return &analytics.LocalSync{Runner: runner, Counts: st}, closeFn, nil
}

func runSyncStatus(cmd *cobra.Command, _ []string) error {
	sc, closeFn, err := openSyncControl()
	if err != nil {
		return err
	}
	defer closeFn()

	st, err := sc.SyncStatus(cmd.Context())
	fmt.Println()
	if err != nil {
		fmt.Print(cli.RenderEmpty("Sync"))
		printFetchError("sync status", err)
		return nil
	}
	renderSyncStatus(st)
	return nil
}

func runSyncRun(cmd *cobra.Command, _ []string) error {
	sc, closeFn, err := openSyncControl()
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	res, err := sc.TriggerSync(ctx)
	if err != nil {
		return fmt.Errorf("starting sync: %w", err)
	}
	switch res.Status {
	case analytics.TriggerAlreadySyncing:
		fmt.Println("  A sync is already running; following it.")
	default:
		fmt.Printf("  Sync started (run %s)\n", res.RunID)
	}
	if flagSyncNoWait && flagAPI != "" {
		return nil
	}

	var last model.SyncRun
	poller := syncer.Poller{Interval: flagSyncInterval}
	started := time.Now()
	for u := range poller.Watch(ctx, analytics.SyncRunFetcher(sc)) {
		if u.Err != nil {
			fmt.Fprintf(os.Stderr, "\r  status check failed: %v\n", u.Err)
			continue
		}
		last = u.Run
		if !flagQuiet && last.Status == model.SyncSyncing {
			fmt.Fprintf(os.Stderr, "\r  Syncing... %s", cli.FormatDuration(int64(time.Since(started).Seconds())))
		}
	}
	if ctx.Err() != nil {
		fmt.Println()
		return ctx.Err()
	}
	fmt.Fprint(os.Stderr, "\r")

	switch last.Status {
	case model.SyncCompleted:
		fmt.Printf("  Sync completed in %s\n", cli.FormatDuration(int64(time.Since(started).Seconds())))
		renderSyncResult(last.Result)
		return nil
	case model.SyncError:
		msg := "unknown error"
		if last.Result != nil && last.Result.Error != "" {
			msg = last.Result.Error
		}
		return fmt.Errorf("sync failed: %s", msg)
	default:
		fmt.Printf("  Sync state: %s\n", last.Status)
		return nil
	}
}

func renderSyncStatus(st daemon.SyncStatus) {
	run := st.Sync
	pairs := [][2]string{
		{"State", string(run.Status)},
		{"Last synced", cli.FormatAgo(run.LastSyncedAt)},
	}
	if run.ID != "" {
		pairs = append(pairs, [2]string{"Run", run.ID})
	}
	if run.StartedAt != nil {
		pairs = append(pairs, [2]string{"Started", run.StartedAt.Local().Format(time.RFC3339)})
	}
	if run.Result != nil && run.Result.Error != "" {
		pairs = append(pairs, [2]string{"Error", run.Result.Error})
	}
	if !st.Snapshot.LoadedAt.IsZero() {
		pairs = append(pairs, [2]string{"Snapshot", fmt.Sprintf("%d contracts, loaded %s",
			st.Snapshot.Contracts, cli.FormatAgo(&st.Snapshot.LoadedAt))})
	}
	if st.LastError != "" {
		pairs = append(pairs, [2]string{"Reload error", st.LastError})
	}
	fmt.Print(cli.RenderStats(pairs))

	if len(st.Boards) > 0 {
		fmt.Println()
		rows := make([][]string, 0, len(st.Boards))
		for _, b := range st.Boards {
			rows = append(rows, []string{b.Name, b.ID, formatNumber(int64(b.ItemsCount)), b.UpdatedAt})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "CRM boards",
			Headers: []string{"Board", "ID", "Items", "Updated"},
			Rows:    rows,
		}))
	}
	if len(st.DBCounts) > 0 {
		fmt.Println()
		fmt.Print(renderCounts("Stored records", st.DBCounts))
	}
	fmt.Println()
}

func renderSyncResult(r *model.SyncResult) {
	if r == nil {
		return
	}
	if len(r.Changes) > 0 {
		keys := make([]string, 0, len(r.Changes))
		for k := range r.Changes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([][2]string, 0, len(keys)+1)
		for _, k := range keys {
			pairs = append(pairs, [2]string{k, cli.FormatSigned(r.Changes[k])})
		}
		if r.Skipped > 0 {
			pairs = append(pairs, [2]string{"skipped", formatNumber(int64(r.Skipped))})
		}
		fmt.Print(cli.RenderStats(pairs))
	}
	if len(r.After) > 0 {
		fmt.Println()
		fmt.Print(renderCounts("Stored records", r.After))
	}
}

func renderCounts(title string, counts model.TableCounts) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, formatNumber(int64(counts[k]))})
	}
	return cli.RenderTable(cli.Table{Title: title, Headers: []string{"Table", "Rows"}, Rows: rows})
}
