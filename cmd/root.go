// Package cmd implements the mhouse CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/morehouse/mhouse/internal/analytics"
	"github.com/morehouse/mhouse/internal/cli"
	"github.com/morehouse/mhouse/internal/config"
	"github.com/morehouse/mhouse/internal/logger"
	"github.com/morehouse/mhouse/internal/model"
	"github.com/morehouse/mhouse/internal/monday"
	"github.com/morehouse/mhouse/internal/pipeline"
	"github.com/morehouse/mhouse/internal/store"
	"github.com/morehouse/mhouse/internal/syncer"
)

var (
	flagAPI      string
	flagDB       string
	flagOffline  bool
	flagQuiet    bool
	flagCapacity int
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:           "mhouse",
	Short:         "More House occupancy and cash-flow analytics",
	Long:          "Analyse room occupancy, upcoming vacancies and expected cash flow for More House.",
	RunE:          runSummary,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPI, "api", "", "Read from a running mhouse API (e.g. http://127.0.0.1:8002)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Local SQLite store path")
	rootCmd.PersistentFlags().BoolVar(&flagOffline, "offline", false, "Skip the Postgres upstream and read the local store only")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().IntVar(&flagCapacity, "capacity", 0, "Total rooms (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flagDB != "" {
		cfg.Database.SQLitePath = flagDB
	}
	if flagCapacity > 0 {
		cfg.General.TotalRooms = flagCapacity
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagAPI == "" {
		flagAPI = cfg.TUI.APIURL
	}
	return cfg, nil
}

// newLogger builds the process logger. CLI commands log to stderr in
// console format; only the daemon honours the configured format.
func newLogger(cfg config.Config, format string) *zap.Logger {
	if format == "" {
		format = "console"
	}
	log, err := logger.New(cfg.Log.Level, format, "mhouse")
	if err != nil {
		return logger.NewNop()
	}
	return log
}

func openStore(cfg config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.Database.SQLitePathOrDefault())
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}
	return st, nil
}

// loadData is the shared data loading path used by all local commands.
// With a Postgres DSN configured the snapshot is read upstream and mirrored
// into the local store; otherwise, or when upstream fails, the local store
// is read directly.
func loadData(ctx context.Context, cfg config.Config, st *store.Store) (*pipeline.LoadResult, error) {
	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		if current%100 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Scheduling payments %s", cli.RenderProgressBar(current, total, 24))
		}
	}

	if cfg.Database.PostgresDSN != "" && !flagOffline {
		pg, err := store.OpenPostgres(ctx, cfg.Database.PostgresDSN, cfg.Database.Schema)
		if err != nil {
			if !flagQuiet {
				fmt.Fprintf(os.Stderr, "  Postgres unavailable, using local store\n")
			}
		} else {
			defer pg.Close()
			cr, err := pipeline.LoadWithCache(ctx, pg, st, progressFn)
			if err != nil {
				return nil, err
			}
			if !flagQuiet {
				if cr.FromMirror {
					fmt.Fprintf(os.Stderr, "\r  Upstream failed (%v), using local store\n", cr.UpstreamErr)
				}
				reportLoad(&cr.LoadResult)
			}
			return &cr.LoadResult, nil
		}
	}

	result, err := pipeline.Load(ctx, st, progressFn)
	if err != nil {
		return nil, err
	}
	if !flagQuiet {
		reportLoad(result)
	}
	return result, nil
}

func reportLoad(r *pipeline.LoadResult) {
	fmt.Fprintf(os.Stderr, "\r  Loaded %s contracts, %s payments (%s scheduled from terms)    \n",
		cli.FormatNumber(int64(len(r.Snapshot.Contracts))),
		cli.FormatNumber(int64(r.StoredPayments+r.GeneratedPayments)),
		cli.FormatNumber(int64(r.GeneratedPayments)),
	)
}

// source bundles what a command reads from and how it controls syncs.
type source struct {
	cfg       config.Config
	log       *zap.Logger
	analytics analytics.Analytics
	sync      analytics.SyncControl
	close     func()
}

// openSource returns the remote API client when --api is set, or a local
// view over a freshly loaded snapshot.
func openSource(ctx context.Context) (*source, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg, "")

	if flagAPI != "" {
		remote := analytics.NewRemote(flagAPI)
		return &source{cfg: cfg, log: log, analytics: remote, sync: remote, close: func() { _ = log.Sync() }}, nil
	}

	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	result, err := loadData(ctx, cfg, st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	local := &analytics.Local{
		Snapshot:       result.Snapshot,
		Capacity:       cfg.General.TotalRooms,
		OpeningBalance: cfg.General.OpeningBalance,
	}
	runner := newRunner(cfg, st, log, nil, nil)
	return &source{
		cfg:       cfg,
		log:       log,
		analytics: local,
		sync:      &analytics.LocalSync{Runner: runner, Counts: st},
		close: func() {
			runner.Wait()
			_ = st.Close()
			_ = log.Sync()
		},
	}, nil
}

// newRunner wires the CRM client, store and board configuration into a
// sync runner. The runner refuses to start without an API token.
func newRunner(cfg config.Config, st *store.Store, log *zap.Logger, tracker *syncer.Tracker, onFinish func(model.SyncRun)) *syncer.Runner {
	rc := syncer.RunnerConfig{
		Tracker:  tracker,
		Store:    st,
		Boards:   boardsOf(cfg),
		Columns:  monday.DefaultColumns().With(cfg.Monday.ColumnOverrides),
		Logger:   log,
		OnFinish: onFinish,
	}
	if crm := newMondayClient(cfg); crm != nil {
		rc.CRM = crm
	}
	return syncer.NewRunner(rc)
}

func newMondayClient(cfg config.Config) *monday.Client {
	return monday.NewClient(cfg.Monday.APIToken, monday.Options{
		BaseURL:  cfg.Monday.BaseURL,
		PageSize: cfg.Monday.PageSize,
		Timeout:  time.Duration(cfg.Monday.TimeoutSec) * time.Second,
		Retries:  2,
	})
}

func boardsOf(cfg config.Config) syncer.Boards {
	return syncer.Boards{
		Rooms:     cfg.Monday.RoomsBoard,
		Contracts: cfg.Monday.ContractsBoard,
		Qualified: cfg.Monday.QualifiedBoard,
	}
}

// printFetchError explains a failed read in terms of where it came from.
func printFetchError(what string, err error) {
	var se *analytics.StatusError
	switch {
	case errors.Is(err, analytics.ErrUnavailable):
		fmt.Println(cli.RenderWarning(fmt.Sprintf("%s: API unreachable at %s", what, flagAPI)))
	case errors.As(err, &se):
		fmt.Println(cli.RenderWarning(fmt.Sprintf("%s: %s", what, se.Error())))
	default:
		fmt.Println(cli.RenderWarning(fmt.Sprintf("%s: %v", what, err)))
	}
}

func formatNumber(n int64) string {
	return cli.FormatNumber(n)
}

func monthFlag(raw string, def time.Time) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	t, err := pipeline.ParseMonth(raw)
	if err != nil {
		return def, fmt.Errorf("invalid month %q (want YYYY-MM)", raw)
	}
	return t, nil
}

func dateFlag(raw string, def time.Time) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	t, err := pipeline.ParseDate(raw)
	if err != nil {
		return def, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", raw)
	}
	return t, nil
}
