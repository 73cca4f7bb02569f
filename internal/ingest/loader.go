// Package ingest reads the bank export spreadsheet into a transaction table.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/the-cashback-must-flow/internal/common"
	"github.com/Veraticus/the-cashback-must-flow/internal/model"
	"github.com/tealeg/xlsx"
)

// requiredColumns must all be present in the header row. The cashback column
// is optional; without it every row has no reported cashback.
var requiredColumns = []string{
	model.ColumnPaymentDate,
	model.ColumnAmount,
	model.ColumnStatus,
	model.ColumnCategory,
	model.ColumnCardNumber,
	model.ColumnDescription,
}

// Loader reads transactions from an .xlsx bank export.
type Loader struct {
	logger *slog.Logger
	path   string
}

// NewLoader creates a Loader for the spreadsheet at path.
func NewLoader(path string, logger *slog.Logger) *Loader {
	return &Loader{
		path:   path,
		logger: common.OrDiscard(logger).With("component", "ingest"),
	}
}

// Path returns the spreadsheet location.
func (l *Loader) Path() string {
	return l.path
}

// Load reads the spreadsheet. A missing or unreadable file is logged and
// yields an empty table, so reports over it come out empty.
func (l *Loader) Load(ctx context.Context) (model.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table, err := l.Read()
	switch {
	case err == nil:
		return table, nil
	case errors.Is(err, common.ErrNotFound):
		l.logger.Error("Transactions file not found", "path", l.path, "error", err)
		return model.Table{}, nil
	case errors.Is(err, common.ErrUnreadableSource):
		l.logger.Error("Transactions file is empty or unreadable", "path", l.path, "error", err)
		return model.Table{}, nil
	default:
		return nil, err
	}
}

// Read parses the first sheet of the spreadsheet. The first row is the
// header; columns are located by name and extra columns are ignored.
func (l *Loader) Read() (model.Table, error) {
	if _, err := os.Stat(l.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrNotFound, l.path)
		}
		return nil, fmt.Errorf("%w: %s: %v", common.ErrUnreadableSource, l.path, err)
	}

	file, err := xlsx.OpenFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrUnreadableSource, l.path, err)
	}
	if len(file.Sheets) == 0 || len(file.Sheets[0].Rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no rows", common.ErrUnreadableSource, l.path)
	}

	sheet := file.Sheets[0]
	columns, err := locateColumns(sheet.Rows[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrUnreadableSource, l.path, err)
	}

	table := make(model.Table, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		if row == nil || isBlank(row) {
			continue
		}
		table = append(table, columns.transaction(row, file.Date1904))
	}

	l.logger.Info("Loaded transactions",
		"path", l.path,
		"sheet", sheet.Name,
		"rows", len(table))
	return table, nil
}

// columnIndex maps column names to cell positions; -1 means absent.
type columnIndex map[string]int

func locateColumns(header *xlsx.Row) (columnIndex, error) {
	index := columnIndex{model.ColumnCashback: -1}
	if header == nil {
		return nil, errors.New("missing header row")
	}
	for i, cell := range header.Cells {
		name := strings.TrimSpace(cell.Value)
		if name == "" {
			continue
		}
		if prev, seen := index[name]; seen && prev >= 0 {
			continue
		}
		index[name] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns %s", strings.Join(missing, ", "))
	}
	return index, nil
}

func (c columnIndex) cell(row *xlsx.Row, name string) *xlsx.Cell {
	i, ok := c[name]
	if !ok || i < 0 || i >= len(row.Cells) {
		return nil
	}
	return row.Cells[i]
}

func (c columnIndex) text(row *xlsx.Row, name string) string {
	cell := c.cell(row, name)
	if cell == nil {
		return ""
	}
	return strings.TrimSpace(cell.Value)
}

func (c columnIndex) transaction(row *xlsx.Row, date1904 bool) model.Transaction {
	return model.Transaction{
		PaymentDate: parseDateCell(c.cell(row, model.ColumnPaymentDate), date1904),
		Amount:      parseAmount(c.text(row, model.ColumnAmount)),
		Status:      c.text(row, model.ColumnStatus),
		Category:    c.text(row, model.ColumnCategory),
		CardNumber:  c.text(row, model.ColumnCardNumber),
		Description: c.text(row, model.ColumnDescription),
		Cashback:    parseCashback(c.text(row, model.ColumnCashback)),
	}
}

// parseDateCell accepts a dd.mm.yyyy text cell or a numeric Excel date.
// Anything else is a missing date.
func parseDateCell(cell *xlsx.Cell, date1904 bool) time.Time {
	if cell == nil {
		return time.Time{}
	}
	value := strings.TrimSpace(cell.Value)
	if parsed := model.ParsePaymentDate(value); !parsed.IsZero() {
		return parsed
	}

	serial, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 1 {
		return time.Time{}
	}
	return model.TruncateDay(xlsx.TimeFromExcelTime(serial, date1904))
}

// parseAmount accepts a dot or comma decimal separator and spaces between
// digit groups. Unparsable input is NaN.
func parseAmount(value string) float64 {
	value = normalizeNumber(value)
	if value == "" {
		return math.NaN()
	}
	amount, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsInf(amount, 0) {
		return math.NaN()
	}
	return amount
}

func parseCashback(value string) *float64 {
	value = normalizeNumber(value)
	if value == "" {
		return nil
	}
	cashback, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(cashback) || math.IsInf(cashback, 0) {
		return nil
	}
	return model.Float(cashback)
}

var numberReplacer = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", ",", ".")

func normalizeNumber(value string) string {
	return numberReplacer.Replace(strings.TrimSpace(value))
}

func isBlank(row *xlsx.Row) bool {
	for _, cell := range row.Cells {
		if cell != nil && strings.TrimSpace(cell.Value) != "" {
			return false
		}
	}
	return true
}
