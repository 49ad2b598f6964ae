package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/morehouse/mhouse/internal/analytics"
	"github.com/morehouse/mhouse/internal/cli"
	"github.com/morehouse/mhouse/internal/model"
)

var flagVacancyDays int

var vacanciesCmd = &cobra.Command{
	Use:   "vacancies",
	Short: "Rooms falling vacant with no follow-on booking",
	RunE:  runVacancies,
}

func init() {
	vacanciesCmd.Flags().IntVar(&flagVacancyDays, "days", 0, "Forecast horizon in days (default from config, 60)")
	rootCmd.AddCommand(vacanciesCmd)
}

func runVacancies(cmd *cobra.Command, _ []string) error {
	if flagVacancyDays < 0 {
		return fmt.Errorf("--days must not be negative")
	}
	src, err := openSource(cmd.Context())
	if err != nil {
		return err
	}
	defer src.close()

	days := flagVacancyDays
	if days == 0 {
		days = src.cfg.General.VacancyHorizon
	}

	vacancies, err := src.analytics.Vacancies(cmd.Context(), days)
	fmt.Println()
	renderVacancies(analytics.Widget[[]model.Vacancy]{Data: vacancies, Err: err}, days, 0)
	if err != nil {
		printFetchError("vacancies", err)
		return nil
	}

	var lost float64
	for _, v := range vacancies {
		lost += v.WeeklyRate
	}
	if len(vacancies) > 0 {
		fmt.Printf("\n  %d rooms, %s/week at current rates\n\n", len(vacancies), cli.FormatMoney(lost))
	}
	return nil
}
