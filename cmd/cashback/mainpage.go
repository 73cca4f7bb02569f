package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-cashback-must-flow/internal/model"
)

func mainPageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "main-page",
		Short: "Show the month to date summary",
		Long: `Show the main page: a greeting, spending and cashback per card and the five
largest expenses from the first day of the month up to --date, followed by the
currency rates and stock prices listed in user_settings.json.`,
		RunE: runMainPage,
	}

	cmd.Flags().String("date", "", "last day of the window, dd.mm.yyyy or YYYY-MM-DD (default: today)")

	return cmd
}

func runMainPage(cmd *cobra.Command, _ []string) error {
	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		date = model.FormatDate(time.Now())
	}
	return printMainPage(cmd, date)
}

func printMainPage(cmd *cobra.Command, date string) error {
	assembler, err := newAssembler(cmd)
	if err != nil {
		return err
	}

	resp, err := assembler.Build(cmd.Context(), date)
	if err != nil {
		return friendly(err)
	}

	data, err := resp.Render()
	if err != nil {
		return fmt.Errorf("failed to render main page: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
