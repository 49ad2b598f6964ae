package cmd

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/morehouse/mhouse/internal/analytics"
	"github.com/morehouse/mhouse/internal/config"
	"github.com/morehouse/mhouse/internal/syncer"
	"github.com/morehouse/mhouse/internal/tui"
	"github.com/morehouse/mhouse/internal/tui/theme"
)

var (
	flagTUIMonths int
	flagTUIWeeks  int
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().IntVar(&flagTUIMonths, "months", 12, "Months shown in monthly views")
	tuiCmd.Flags().IntVar(&flagTUIWeeks, "weeks", 12, "Weeks shown in weekly views")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	needSetup := !config.Exists()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	theme.SetActive(cfg.TUI.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	opts := tui.Options{
		VacancyDays:     cfg.General.VacancyHorizon,
		Months:          flagTUIMonths,
		Weeks:           flagTUIWeeks,
		AutoRefresh:     cfg.TUI.AutoRefresh,
		RefreshInterval: time.Duration(cfg.TUI.RefreshIntervalSec) * time.Second,
		PollInterval:    syncer.DefaultPollInterval,
		NeedSetup:       needSetup,
	}

	var (
		an analytics.Analytics
		sc analytics.SyncControl
	)
	if flagAPI != "" {
		remote := analytics.NewRemote(flagAPI)
		an, sc = remote, remote
		opts.Source = flagAPI
	} else {
		// Progress output would corrupt the alternate screen.
		flagQuiet = true
		log := newLogger(cfg, "")
		defer func() { _ = log.Sync() }()

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		tracker := syncer.NewTracker()
		if last, err := st.LastSyncRun(context.Background()); err == nil {
			tracker.Restore(last)
		}
		runner := newRunner(cfg, st, log, tracker, nil)
		defer runner.Wait()

		local := &analytics.Local{
			Capacity:       cfg.General.TotalRooms,
			OpeningBalance: cfg.General.OpeningBalance,
		}
		an = local
		sc = &analytics.LocalSync{Runner: runner, Counts: st}
		opts.Source = "local " + cfg.Database.SQLitePathOrDefault()
		opts.Reload = func(ctx context.Context) error {
			res, err := loadData(ctx, cfg, st)
			if err != nil {
				return err
			}
			local.SetSnapshot(res.Snapshot)
			return nil
		}
	}

	app := tui.NewApp(an, sc, opts)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
