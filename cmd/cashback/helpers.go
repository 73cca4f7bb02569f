package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/the-cashback-must-flow/internal/cli"
	"github.com/Veraticus/the-cashback-must-flow/internal/common"
	"github.com/Veraticus/the-cashback-must-flow/internal/config"
	"github.com/Veraticus/the-cashback-must-flow/internal/ingest"
	"github.com/Veraticus/the-cashback-must-flow/internal/mainpage"
	"github.com/Veraticus/the-cashback-must-flow/internal/market"
	"github.com/Veraticus/the-cashback-must-flow/internal/model"
	"github.com/Veraticus/the-cashback-must-flow/internal/report"
	"github.com/Veraticus/the-cashback-must-flow/internal/settings"
	"github.com/Veraticus/the-cashback-must-flow/internal/sheets"
	"github.com/Veraticus/the-cashback-must-flow/internal/storage"
)

func newReporter() *report.Reporter {
	return report.NewReporter(logger, nil)
}

func newSource() *ingest.Loader {
	return ingest.NewLoader(cfg.OperationsPath, logger)
}

// initStorage opens the report journal and runs migrations.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.JournalPath, logger)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newSaver returns a saver writing into the data directory. The journal and,
// when configured, the spreadsheet receive every saved report. Neither is
// required: if one cannot be opened the report is still written.
func newSaver(ctx context.Context) (*report.Saver, func()) {
	var sinks []report.Sink
	cleanup := func() {}

	store, err := initStorage(ctx)
	if err != nil {
		logger.Warn("Report journal unavailable", "path", cfg.JournalPath, "error", err)
	} else {
		sinks = append(sinks, store)
		cleanup = func() { _ = store.Close() }
	}

	sheetsCfg, enabled, err := config.LoadSheets(viper.GetViper())
	switch {
	case err != nil:
		logger.Warn("Google Sheets export misconfigured", "error", err)
	case enabled:
		writer, err := sheets.NewWriter(ctx, sheetsCfg, logger)
		if err != nil {
			logger.Warn("Google Sheets export unavailable", "error", err)
		} else {
			sinks = append(sinks, writer)
		}
	}

	return report.NewSaver(cfg.DataDir, logger, report.WithSinks(sinks...)), cleanup
}

// newAssembler wires the main page to the spreadsheet, the settings file and
// both market APIs.
func newAssembler(cmd *cobra.Command) (*mainpage.Assembler, error) {
	httpClient := &http.Client{Timeout: cfg.MarketTimeout}

	rates, err := market.NewRatesClient(cfg.Rates, httpClient, logger)
	if err != nil {
		return nil, common.NewUserError("set "+config.EnvExchangeRatesKey+" to look up currency rates", err)
	}
	prices, err := market.NewStocksClient(cfg.Stocks, httpClient, logger)
	if err != nil {
		return nil, common.NewUserError("set "+config.EnvStockPricesKey+" to look up stock prices", err)
	}

	return mainpage.NewAssembler(
		newSource(),
		settings.NewLoader(cfg.SettingsPath, logger),
		rates,
		prices,
		newReporter(),
		logger,
		mainpage.WithProgress(cli.ProgressFactory(cmd.ErrOrStderr())),
	), nil
}

// writeOutput prints JSON when asJSON is set, otherwise a table.
func writeOutput(cmd *cobra.Command, records []model.Record, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		formatted := make([]model.Record, 0, len(records))
		for _, record := range records {
			formatted = append(formatted, record.WithFormattedDates())
		}
		data, err := report.EncodeJSON(formatted)
		if err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	_, err := fmt.Fprintln(out, cli.RenderTable(records))
	return err
}

// friendly turns caller mistakes into messages for the terminal.
func friendly(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrInvalidArgument):
		return common.NewUserError("check the command arguments", err)
	case errors.Is(err, common.ErrMissingConfig), errors.Is(err, common.ErrInvalidConfig):
		return common.NewUserError("check the configuration", err)
	default:
		return err
	}
}
