package cmd

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/morehouse/mhouse/internal/cli"
	"github.com/morehouse/mhouse/internal/config"
	"github.com/morehouse/mhouse/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Load existing config or defaults
	cfg, _ := config.Load()

	fmt.Println()
	fmt.Println("  Welcome to mhouse!")
	if config.Exists() {
		fmt.Printf("  Editing %s\n", config.ConfigPath())
	}
	fmt.Println()

	vals := tui.NewSetupValues(cfg)
	if err := tui.NewSetupForm(&vals).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}
	if err := vals.Apply(&cfg); err != nil {
		return err
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Total rooms:     %d\n", cfg.General.TotalRooms)
	fmt.Printf("  Opening balance: %s\n", cli.FormatMoney(cfg.General.OpeningBalance))
	if cfg.Monday.APIToken != "" {
		fmt.Printf("  Monday token:    %s\n", maskAPIKey(cfg.Monday.APIToken))
	}
	if cfg.Database.PostgresDSN != "" {
		fmt.Printf("  Postgres:        %s\n", maskDSN(cfg.Database.PostgresDSN))
	}
	if cfg.TUI.APIURL != "" {
		fmt.Printf("  Dashboard API:   %s\n", cfg.TUI.APIURL)
	}
	fmt.Printf("  Theme:           %s\n", cfg.TUI.Theme)
	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `mhouse setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}

func maskAPIKey(key string) string {
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}

// maskDSN hides the password of a URL-style connection string. Key/value
// DSNs are shown only by host.
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "(key/value DSN)"
	}
	return u.Redacted()
}
