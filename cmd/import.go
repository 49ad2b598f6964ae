package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/morehouse/mhouse/internal/cli"
	"github.com/morehouse/mhouse/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load contracts or opex budgets from files into the local store",
}

var importContractsCmd = &cobra.Command{
	Use:   "contracts <workbook.xlsx>",
	Short: "Import the Booked Units sheet of a bookings workbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportContracts,
}

var importOpexCmd = &cobra.Command{
	Use:   "opex <budget.yaml>",
	Short: "Import monthly operating-expense budgets",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportOpex,
}

func init() {
	importCmd.AddCommand(importContractsCmd, importOpexCmd)
	rootCmd.AddCommand(importCmd)
}

func runImportContracts(cmd *cobra.Command, args []string) error {
	return runImport("contracts", func(im *importer.Importer) (importer.Summary, error) {
		return im.ImportContracts(cmd.Context(), args[0])
	})
}

func runImportOpex(cmd *cobra.Command, args []string) error {
	return runImport("opex", func(im *importer.Importer) (importer.Summary, error) {
		return im.ImportOpex(cmd.Context(), args[0])
	})
}

func runImport(what string, fn func(*importer.Importer) (importer.Summary, error)) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg, "")
	defer func() { _ = log.Sync() }()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	sum, err := fn(importer.New(st, log))
	if err != nil {
		return fmt.Errorf("importing %s: %w", what, err)
	}
	fmt.Println()
	pairs := [][2]string{{"Store", cfg.Database.SQLitePathOrDefault()}}
	switch what {
	case "opex":
		pairs = append(pairs, [2]string{"Opex lines", formatNumber(int64(sum.OpexLines))})
	default:
		pairs = append(pairs,
			[2]string{"Rooms", formatNumber(int64(sum.Rooms))},
			[2]string{"Contracts", fmt.Sprintf("%s (%d new)", formatNumber(int64(sum.Contracts)), sum.ContractsCreated)},
			[2]string{"Payments", formatNumber(int64(sum.Payments))},
		)
	}
	fmt.Print(cli.RenderStats(pairs))
	if len(sum.Skipped) > 0 {
		fmt.Println()
		fmt.Print(cli.RenderWarning(fmt.Sprintf("%d rows skipped", len(sum.Skipped))))
		for _, s := range sum.Skipped {
			fmt.Printf("    %s\n", s)
		}
	}
	fmt.Println()
	return nil
}
