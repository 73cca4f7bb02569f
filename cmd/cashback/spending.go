package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-cashback-must-flow/internal/cli"
	"github.com/Veraticus/the-cashback-must-flow/internal/report"
)

func spendingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spending",
		Short: "List expenses in one category over the last three months",
		Long: `List the successful expenses in --category during the three months up to
--date. The result is also saved as JSON in the data directory.`,
		RunE: runSpending,
	}

	cmd.Flags().String("category", "", "category name, case insensitive")
	cmd.Flags().String("date", "", "last day of the window, dd.mm.yyyy or YYYY-MM-DD (default: today)")
	cmd.Flags().String("file", report.SpendingReportFile, "file name of the saved report")
	cmd.Flags().Bool("json", false, "print JSON instead of a table")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func runSpending(cmd *cobra.Command, _ []string) error {
	category, _ := cmd.Flags().GetString("category")
	date, _ := cmd.Flags().GetString("date")
	fileName, _ := cmd.Flags().GetString("file")
	asJSON, _ := cmd.Flags().GetBool("json")

	return printSpending(cmd, category, date, fileName, asJSON)
}

func printSpending(cmd *cobra.Command, category, date, fileName string, asJSON bool) error {
	ctx := cmd.Context()

	table, err := newSource().Load(ctx)
	if err != nil {
		return err
	}

	saver, cleanup := newSaver(ctx)
	defer cleanup()

	rep := report.Persisted(newReporter().SpendingReport(), saver, fileName)
	result, err := rep.Run(ctx, table, report.SpendingParams{Category: category, Date: date})
	if err != nil {
		return friendly(err)
	}

	if err := writeOutput(cmd, result.Records(), asJSON); err != nil {
		return err
	}
	if !asJSON {
		_, err = fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess("Saved to "+filepath.Join(cfg.DataDir, fileName)))
	}
	return err
}
