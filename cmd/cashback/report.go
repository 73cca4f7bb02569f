package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-cashback-must-flow/internal/cli"
	"github.com/Veraticus/the-cashback-must-flow/internal/report"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run a report over the whole operations spreadsheet",
	}

	cmd.PersistentFlags().Bool("save", false, "also save the result as JSON in the data directory")
	cmd.PersistentFlags().String("file", "", "file name of the saved report (default: report_YYYYMMDD_HHMMSS.json)")
	cmd.PersistentFlags().Bool("json", false, "print JSON instead of a table")

	cmd.AddCommand(&cobra.Command{
		Use:   "cards",
		Short: "Total spent per card",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, newReporter().CardsReport())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "card-cashback",
		Short: "Cashback earned per card",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, newReporter().CardCashbackReport())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "top",
		Short: "Five largest expenses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, newReporter().TopReport())
		},
	})

	return cmd
}

func runReport[R report.Recorder](cmd *cobra.Command, rep report.Report[report.NoParams, R]) error {
	ctx := cmd.Context()
	save, _ := cmd.Flags().GetBool("save")
	fileName, _ := cmd.Flags().GetString("file")
	asJSON, _ := cmd.Flags().GetBool("json")

	table, err := newSource().Load(ctx)
	if err != nil {
		return err
	}

	if save {
		saver, cleanup := newSaver(ctx)
		defer cleanup()
		rep = report.Persisted(rep, saver, fileName)
	}

	result, err := rep.Run(ctx, table, report.NoParams{})
	if err != nil {
		return friendly(err)
	}

	if !asJSON {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), cli.FormatTitle(rep.Description)); err != nil {
			return err
		}
	}
	return writeOutput(cmd, result.Records(), asJSON)
}
