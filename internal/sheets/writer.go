package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/the-cashback-must-flow/internal/common"
	"github.com/Veraticus/the-cashback-must-flow/internal/model"
	"github.com/Veraticus/the-cashback-must-flow/internal/report"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Writer copies every saved report into a tab of one spreadsheet. The tab is
// named after the report and is overwritten by each export.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a new Google Sheets report writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		config:  config,
		service: service,
		logger:  common.OrDiscard(logger).With("component", "sheets"),
	}, nil
}

// Export implements report.Sink.
func (w *Writer) Export(ctx context.Context, saved report.SavedReport, records []model.Record) error {
	title := SheetTitle(saved.Name)
	w.logger.Info("Exporting report to Google Sheets",
		"report", saved.Name,
		"sheet", title,
		"rows", len(records))

	retryOpts := common.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	var sheetID int64
	err := common.WithRetry(ctx, w.logger, func() error {
		id, ensureErr := w.ensureSheet(ctx, title)
		sheetID = id
		return classifyAPIError(ensureErr)
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to prepare sheet %s: %w", title, err)
	}

	if clearErr := w.clearSheet(ctx, title); clearErr != nil {
		return fmt.Errorf("failed to clear sheet: %w", clearErr)
	}

	values := PrepareValues(saved, records)

	err = common.WithRetry(ctx, w.logger, func() error {
		return classifyAPIError(w.writeData(ctx, title, values))
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, w.logger, func() error {
			return classifyAPIError(w.applyFormatting(ctx, sheetID, len(headerOf(records))))
		}, retryOpts)
		if err != nil {
			// Formatting is cosmetic; the data is already written.
			w.logger.Warn("Failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("Report exported",
		"spreadsheet_id", w.config.SpreadsheetID,
		"sheet", title,
		"rows_written", len(values))

	return nil
}

// classifyAPIError marks rate limiting for the retry loop and makes other
// client errors permanent.
func classifyAPIError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code >= 400 && apiErr.Code < 500:
		return &common.RetryableError{Err: err, Retryable: false}
	default:
		return err
	}
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := oauthConfig(config.ClientID, config.ClientSecret, "")
		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}
		tokenSource = client.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// ensureSheet returns the id of the tab called title, adding it when missing.
func (w *Writer) ensureSheet(ctx context.Context, title string) (int64, error) {
	spreadsheet, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == title {
			return sheet.Properties.SheetId, nil
		}
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(w.config.SpreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("unable to add sheet %s: %w", title, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil {
		return 0, fmt.Errorf("unable to add sheet %s: empty reply", title)
	}

	w.logger.Info("Added sheet", "sheet", title)
	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

// clearSheet clears all data from the tab.
func (w *Writer) clearSheet(ctx context.Context, title string) error {
	_, err := w.service.Spreadsheets.Values.Clear(w.config.SpreadsheetID, quoteRange(title, "A:Z"), &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// writeData writes values to the tab in batches.
func (w *Writer) writeData(ctx context.Context, title string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := i + w.config.BatchSize
		if end > len(values) {
			end = len(values)
		}

		batch := values[i:end]
		valueRange := &sheets.ValueRange{
			Values: batch,
		}

		_, err := w.service.Spreadsheets.Values.Update(w.config.SpreadsheetID, quoteRange(title, fmt.Sprintf("A%d", i+1)), valueRange).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("Wrote batch", "start_row", i+1, "rows", len(batch))
	}

	return nil
}

// applyFormatting bolds the title and header rows, freezes them and resizes
// the columns.
func (w *Writer) applyFormatting(ctx context.Context, sheetID int64, columns int) error {
	if columns < 2 {
		columns = 2
	}

	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   2,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{
							Bold:     true,
							FontSize: 14,
						},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    headerRowIndex,
					EndRowIndex:      headerRowIndex + 1,
					StartColumnIndex: 0,
					EndColumnIndex:   int64(columns),
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{
							Bold: true,
						},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   int64(columns),
				},
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: sheetID,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount: headerRowIndex + 1,
					},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	_, err := w.service.Spreadsheets.BatchUpdate(w.config.SpreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}

// headerRowIndex is the zero based row of the column headers.
const headerRowIndex = 2

// maxTitleLength is the longest tab name Google Sheets accepts.
const maxTitleLength = 100

// SheetTitle turns a report name into a valid tab name.
func SheetTitle(reportName string) string {
	title := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '*', '?', '/', '\\', ':':
			return '_'
		}
		return r
	}, strings.TrimSpace(reportName))
	if title == "" {
		title = "report"
	}
	if runes := []rune(title); len(runes) > maxTitleLength {
		title = string(runes[:maxTitleLength])
	}
	return title
}

func quoteRange(title, cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(title, "'", "''"), cells)
}

// PrepareValues lays a report out as a title row, an empty row, the column
// headers and one row per record. Missing values become empty cells.
func PrepareValues(saved report.SavedReport, records []model.Record) [][]any {
	header := headerOf(records)

	values := make([][]any, 0, len(records)+headerRowIndex+1)
	values = append(values,
		[]any{saved.Name, saved.CreatedAt.Format("02.01.2006 15:04:05")},
		[]any{},
	)

	headerRow := make([]any, len(header))
	for i, name := range header {
		headerRow[i] = name
	}
	values = append(values, headerRow)

	for _, record := range records {
		row := make([]any, len(header))
		for i, name := range header {
			v, ok := record.Get(name)
			if !ok || v == nil {
				row[i] = ""
				continue
			}
			row[i] = v
		}
		values = append(values, row)
	}

	return values
}

// headerOf returns every column name in order of first appearance.
func headerOf(records []model.Record) []string {
	var header []string
	seen := make(map[string]bool)
	for _, record := range records {
		for _, name := range record.Names() {
			if !seen[name] {
				seen[name] = true
				header = append(header, name)
			}
		}
	}
	return header
}
