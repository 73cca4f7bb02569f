package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-cashback-must-flow/internal/cli"
	"github.com/Veraticus/the-cashback-must-flow/internal/common"
	"github.com/Veraticus/the-cashback-must-flow/internal/report"
)

func cashbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cashback",
		Short: "Rank categories by the cashback they earned in a month",
		Example: `  cashback cashback --period 2021-08
  cashback cashback --year 2021 --month 8`,
		RunE: runCashback,
	}

	cmd.Flags().String("period", "", "year and month as YYYY-MM")
	cmd.Flags().String("year", "", "year, used with --month")
	cmd.Flags().String("month", "", "month number, used with --year")
	cmd.MarkFlagsMutuallyExclusive("period", "year")
	cmd.MarkFlagsMutuallyExclusive("period", "month")
	cmd.MarkFlagsRequiredTogether("year", "month")

	return cmd
}

func runCashback(cmd *cobra.Command, _ []string) error {
	year, month, err := periodFlags(cmd)
	if err != nil {
		return friendly(err)
	}
	return printCashback(cmd, year, month)
}

func periodFlags(cmd *cobra.Command) (year, month string, err error) {
	if period, _ := cmd.Flags().GetString("period"); period != "" {
		return cli.SplitPeriod(period)
	}
	year, _ = cmd.Flags().GetString("year")
	month, _ = cmd.Flags().GetString("month")
	if year == "" || month == "" {
		return "", "", common.InvalidArgument("period", "", nil)
	}
	return year, month, nil
}

func printCashback(cmd *cobra.Command, year, month string) error {
	result, err := newReporter().CashbackByCategory(cmd.Context(), newSource(), year, month)
	if err != nil {
		return friendly(err)
	}

	data, err := report.EncodeJSON(result)
	if err != nil {
		return fmt.Errorf("failed to encode cashback: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
