package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-cashback-must-flow/internal/cli"
	"github.com/Veraticus/the-cashback-must-flow/internal/report"
)

func interactiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Answer three questions and get the main page, cashback and spending reports",
		Long: `Ask for a date and print the main page for that month, then ask for a
YYYY-MM period and rank its categories by cashback, then ask for a category and
a date and list its expenses over the preceding three months. The last report
is also saved to the data directory.`,
		RunE: runInteractive,
	}
}

func runInteractive(cmd *cobra.Command, _ []string) error {
	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := handler.HandleInterrupts(cmd.Context(), "")
	cmd.SetContext(ctx)

	prompter := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())

	date, err := prompter.AskMainPageDate(ctx)
	if err != nil {
		return err
	}
	if err := printMainPage(cmd, date); err != nil {
		return err
	}

	year, month, err := prompter.AskPeriod(ctx)
	if err != nil {
		return err
	}
	if err := printCashback(cmd, year, month); err != nil {
		return err
	}

	category, date, err := prompter.AskCategory(ctx)
	if err != nil {
		return err
	}
	if err := printSpending(cmd, category, date, report.SpendingReportFile, false); err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Done"))
	return err
}
