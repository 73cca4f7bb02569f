package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-cashback-must-flow/internal/cli"
	"github.com/Veraticus/the-cashback-must-flow/internal/model"
)

func journalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List the reports saved so far",
		RunE:  runJournalList,
	}

	cmd.Flags().Int("limit", 20, "maximum number of reports to list")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print the rows of a saved report",
		Args:  cobra.ExactArgs(1),
		RunE:  runJournalShow,
	})

	return cmd
}

func runJournalList(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	saved, err := store.ListReports(cmd.Context(), limit)
	if err != nil {
		return friendly(err)
	}

	records := make([]model.Record, 0, len(saved))
	for _, s := range saved {
		records = append(records, model.Record{
			{Name: "ID", Value: s.ID},
			{Name: "Report", Value: s.Name},
			{Name: "Rows", Value: strconv.Itoa(s.Rows)},
			{Name: "Saved", Value: s.CreatedAt.Local().Format("02.01.2006 15:04")},
			{Name: "Path", Value: s.Path},
		})
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable(records))
	return err
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	saved, records, err := store.GetReport(cmd.Context(), args[0])
	if err != nil {
		return friendly(err)
	}

	title := fmt.Sprintf("%s (%s)", saved.Name, saved.CreatedAt.Local().Format("02.01.2006 15:04"))
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), cli.FormatTitle(title)); err != nil {
		return err
	}
	return writeOutput(cmd, records, false)
}
