package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/the-cashback-must-flow/internal/common"
	"github.com/Veraticus/the-cashback-must-flow/internal/model"
	"github.com/google/uuid"
)

// Recorder is a report result that can be written as a list of rows.
type Recorder interface {
	Records() []model.Record
}

// Report is a named report operation over a transaction table.
type Report[P any, R Recorder] struct {
	Run         func(ctx context.Context, table model.Table, params P) (R, error)
	Name        string
	Description string
}

// Persisted wraps rep so that every successful run also writes its result to
// a JSON file through saver. An empty fileName picks a timestamped name. The
// wrapper keeps the name and description of rep and returns the unmodified
// result. When rep fails nothing is written. saver is required: with a nil
// saver Run fails without running rep.
func Persisted[P any, R Recorder](rep Report[P, R], saver *Saver, fileName string) Report[P, R] {
	return Report[P, R]{
		Name:        rep.Name,
		Description: rep.Description,
		Run: func(ctx context.Context, table model.Table, params P) (R, error) {
			if saver == nil {
				var zero R
				return zero, common.InvalidArgument("saver", nil, fmt.Errorf("report %s has no saver", rep.Name))
			}

			result, err := rep.Run(ctx, table, params)
			if err != nil {
				var zero R
				return zero, err
			}

			if _, err := saver.Save(ctx, rep.Name, fileName, result.Records()); err != nil {
				var zero R
				return zero, fmt.Errorf("failed to save report %s: %w", rep.Name, err)
			}

			return result, nil
		},
	}
}

// SavedReport describes a report file that was written.
type SavedReport struct {
	CreatedAt time.Time
	ID        string
	Name      string
	Path      string
	Rows      int
}

// Sink receives every saved report after its file is written, e.g. the
// report journal or a spreadsheet export.
type Sink interface {
	Export(ctx context.Context, saved SavedReport, records []model.Record) error
}

// Saver writes report results as JSON files into a directory.
type Saver struct {
	logger *slog.Logger
	now    func() time.Time
	dir    string
	sinks  []Sink
}

// SaverOption configures a Saver.
type SaverOption func(*Saver)

// WithClock overrides the clock used for default file names.
func WithClock(now func() time.Time) SaverOption {
	return func(s *Saver) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSinks adds sinks notified after each save.
func WithSinks(sinks ...Sink) SaverOption {
	return func(s *Saver) {
		for _, sink := range sinks {
			if sink != nil {
				s.sinks = append(s.sinks, sink)
			}
		}
	}
}

// NewSaver creates a Saver writing into dir.
func NewSaver(dir string, logger *slog.Logger, opts ...SaverOption) *Saver {
	s := &Saver{
		dir:    dir,
		now:    time.Now,
		logger: common.OrDiscard(logger).With("component", "report_saver"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultFileName returns the timestamped file name used when none is given.
func DefaultFileName(now time.Time) string {
	return fmt.Sprintf("report_%s.json", now.Format("20060102_150405"))
}

// Save writes records to dir/fileName. Dates are written as dd.mm.yyyy.
// A failed write is returned; failing sinks are only logged.
func (s *Saver) Save(ctx context.Context, reportName, fileName string, records []model.Record) (SavedReport, error) {
	createdAt := s.now()
	if fileName == "" {
		fileName = DefaultFileName(createdAt)
	}
	path := filepath.Join(s.dir, fileName)

	formatted := make([]model.Record, 0, len(records))
	for _, record := range records {
		formatted = append(formatted, record.WithFormattedDates())
	}

	data, err := EncodeJSON(formatted)
	if err != nil {
		return SavedReport{}, fmt.Errorf("failed to encode report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return SavedReport{}, fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return SavedReport{}, fmt.Errorf("failed to write report file: %w", err)
	}

	saved := SavedReport{
		ID:        uuid.NewString(),
		Name:      reportName,
		Path:      path,
		Rows:      len(records),
		CreatedAt: createdAt,
	}

	s.logger.Info("Saved report",
		"report", reportName,
		"path", path,
		"rows", saved.Rows)

	for _, sink := range s.sinks {
		if err := sink.Export(ctx, saved, formatted); err != nil {
			s.logger.Warn("Report sink failed",
				"report", reportName,
				"sink", fmt.Sprintf("%T", sink),
				"error", err)
		}
	}

	return saved, nil
}
