package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/morehouse/mhouse/internal/cli"
	"github.com/morehouse/mhouse/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Total rooms:     %d\n", cfg.General.TotalRooms)
	fmt.Printf("    Opening balance: %s\n", cli.FormatMoney(cfg.General.OpeningBalance))
	fmt.Printf("    Vacancy horizon: %d days\n", cfg.General.VacancyHorizon)
	fmt.Println()

	fmt.Println("  [Database]")
	fmt.Printf("    Local store: %s\n", cfg.Database.SQLitePathOrDefault())
	if cfg.Database.PostgresDSN != "" {
		fmt.Printf("    Postgres:    %s (schema %s)\n", maskDSN(cfg.Database.PostgresDSN), cfg.Database.Schema)
	} else {
		fmt.Println("    Postgres:    not configured")
	}
	fmt.Println()

	fmt.Println("  [Monday.com]")
	if cfg.Monday.APIToken != "" {
		fmt.Printf("    API token:       %s\n", maskAPIKey(cfg.Monday.APIToken))
	} else {
		fmt.Println("    API token:       not configured (sync disabled)")
	}
	fmt.Printf("    Rooms board:     %s\n", cfg.Monday.RoomsBoard)
	fmt.Printf("    Contracts board: %s\n", cfg.Monday.ContractsBoard)
	fmt.Printf("    Qualified board: %s\n", cfg.Monday.QualifiedBoard)
	if len(cfg.Monday.ColumnOverrides) > 0 {
		keys := make([]string, 0, len(cfg.Monday.ColumnOverrides))
		for k := range cfg.Monday.ColumnOverrides {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("    Column %-9s %s\n", k+":", cfg.Monday.ColumnOverrides[k])
		}
	}
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:  %s\n", cfg.Server.Addr)
	fmt.Printf("    Reload:   every %s\n", cfg.Server.RefreshInterval())
	if cfg.Redis.Addr != "" {
		fmt.Printf("    Cache:    redis %s db %d, ttl %ds\n", cfg.Redis.Addr, cfg.Redis.DB, cfg.Redis.TTLSec)
	} else {
		fmt.Println("    Cache:    in-memory")
	}
	fmt.Printf("    Logging:  %s, %s\n", cfg.Log.Level, cfg.Log.Format)
	fmt.Println()

	fmt.Println("  [TUI]")
	fmt.Printf("    Theme:        %s\n", cfg.TUI.Theme)
	fmt.Printf("    Auto refresh: %v (every %ds)\n", cfg.TUI.AutoRefresh, cfg.TUI.RefreshIntervalSec)
	if cfg.TUI.APIURL != "" {
		fmt.Printf("    API:          %s\n", cfg.TUI.APIURL)
	}
	fmt.Println()

	fmt.Println("  Run `mhouse setup` to reconfigure.")
	return nil
}
