package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/the-cashback-must-flow/internal/report"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name    string
		str     string
		wantErr bool
	}{
		{name: "valid string", str: "test"},
		{name: "empty string", str: "", wantErr: true},
		{name: "whitespace only", str: " \t\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, "param")
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrEmptyString) {
				t.Errorf("validateString() error = %v, want ErrEmptyString", err)
			}
		})
	}
}

func TestValidateSavedReport(t *testing.T) {
	valid := report.SavedReport{
		ID:        "id",
		Name:      "cards",
		Path:      "data/cards.json",
		Rows:      3,
		CreatedAt: time.Now(),
	}

	tests := []struct {
		mutate  func(*report.SavedReport)
		name    string
		wantErr bool
	}{
		{name: "valid", mutate: func(*report.SavedReport) {}},
		{name: "missing id", mutate: func(r *report.SavedReport) { r.ID = "" }, wantErr: true},
		{name: "missing name", mutate: func(r *report.SavedReport) { r.Name = " " }, wantErr: true},
		{name: "missing path", mutate: func(r *report.SavedReport) { r.Path = "" }, wantErr: true},
		{name: "zero time", mutate: func(r *report.SavedReport) { r.CreatedAt = time.Time{} }, wantErr: true},
		{name: "negative rows", mutate: func(r *report.SavedReport) { r.Rows = -1 }, wantErr: true},
		{name: "zero rows", mutate: func(r *report.SavedReport) { r.Rows = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saved := valid
			tt.mutate(&saved)
			err := validateSavedReport(saved)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateSavedReport() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidReport) {
				t.Errorf("validateSavedReport() error = %v, want ErrInvalidReport", err)
			}
		})
	}
}
