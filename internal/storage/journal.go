package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/the-cashback-must-flow/internal/common"
	"github.com/Veraticus/the-cashback-must-flow/internal/model"
	"github.com/Veraticus/the-cashback-must-flow/internal/report"
)

// SaveReport records a saved report and its rows.
func (s *SQLiteStorage) SaveReport(ctx context.Context, saved report.SavedReport, records []model.Record) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSavedReport(saved); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reports (id, name, path, row_count, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, saved.ID, saved.Name, saved.Path, saved.Rows, saved.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert report %s: %w", saved.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO report_rows (report_id, position, payload)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, record := range records {
		var payload []byte
		payload, err = json.Marshal(record.WithFormattedDates())
		if err != nil {
			return fmt.Errorf("failed to encode row %d: %w", i, err)
		}
		if _, err = stmt.ExecContext(ctx, saved.ID, i, string(payload)); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report %s: %w", saved.ID, err)
	}

	s.logger.Debug("Journaled report", "id", saved.ID, "report", saved.Name, "rows", len(records))
	return nil
}

// Export implements report.Sink by journaling every saved report.
func (s *SQLiteStorage) Export(ctx context.Context, saved report.SavedReport, records []model.Record) error {
	return s.SaveReport(ctx, saved, records)
}

// ListReports returns up to limit journal entries, newest first.
func (s *SQLiteStorage) ListReports(ctx context.Context, limit int) ([]report.SavedReport, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, path, row_count, created_at
		FROM reports
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reports []report.SavedReport
	for rows.Next() {
		saved, scanErr := scanReport(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		reports = append(reports, saved)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}

	return reports, nil
}

// GetReport returns one journal entry with its rows.
func (s *SQLiteStorage) GetReport(ctx context.Context, id string) (report.SavedReport, []model.Record, error) {
	if err := validateContext(ctx); err != nil {
		return report.SavedReport{}, nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return report.SavedReport{}, nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, path, row_count, created_at
		FROM reports
		WHERE id = ?
	`, id)
	saved, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return report.SavedReport{}, nil, fmt.Errorf("%w: report %s", common.ErrNotFound, id)
	}
	if err != nil {
		return report.SavedReport{}, nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT payload
		FROM report_rows
		WHERE report_id = ?
		ORDER BY position
	`, id)
	if err != nil {
		return report.SavedReport{}, nil, fmt.Errorf("failed to query report rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]model.Record, 0, saved.Rows)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return report.SavedReport{}, nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		var record model.Record
		if err := json.Unmarshal([]byte(payload), &record); err != nil {
			return report.SavedReport{}, nil, fmt.Errorf("failed to decode report row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return report.SavedReport{}, nil, fmt.Errorf("failed to iterate report rows: %w", err)
	}

	return saved, records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (report.SavedReport, error) {
	var saved report.SavedReport
	var createdAt time.Time
	if err := row.Scan(&saved.ID, &saved.Name, &saved.Path, &saved.Rows, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return report.SavedReport{}, err
		}
		return report.SavedReport{}, fmt.Errorf("failed to scan report: %w", err)
	}
	saved.CreatedAt = createdAt
	return saved, nil
}
