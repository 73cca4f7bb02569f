// Package sheets exports saved reports to a Google Sheets spreadsheet.
package sheets

import (
	"fmt"
	"time"

	"github.com/Veraticus/the-cashback-must-flow/internal/common"
)

// Config holds the configuration for the Google Sheets writer.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SpreadsheetID      string
	TimeZone           string
	BatchSize          int
	RetryAttempts      int
	RetryDelay         time.Duration
	EnableFormatting   bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EnableFormatting: true,
		TimeZone:         "Europe/Moscow",
		BatchSize:        1000,
		RetryAttempts:    3,
		RetryDelay:       time.Second,
	}
}

// Enabled reports whether an export target is configured at all.
func (c *Config) Enabled() bool {
	return c.SpreadsheetID != ""
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.SpreadsheetID == "" {
		return fmt.Errorf("%w: spreadsheet id", common.ErrMissingConfig)
	}

	hasOAuth := c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
	hasServiceAccount := c.ServiceAccountPath != ""

	if !hasOAuth && !hasServiceAccount {
		return fmt.Errorf("%w: no authentication method configured", common.ErrMissingConfig)
	}

	if hasOAuth && hasServiceAccount {
		return fmt.Errorf("%w: multiple authentication methods configured; use either OAuth2 or service account", common.ErrInvalidConfig)
	}

	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", common.ErrInvalidConfig)
	}

	if c.RetryAttempts < 0 {
		return fmt.Errorf("%w: retry attempts cannot be negative", common.ErrInvalidConfig)
	}

	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry delay cannot be negative", common.ErrInvalidConfig)
	}

	return nil
}
