// Package settings loads the user's currency and stock watch lists.
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/the-cashback-must-flow/internal/common"
	"github.com/spf13/viper"
)

// Settings lists the currencies and stock symbols shown on the main page.
type Settings struct {
	UserCurrencies []string `mapstructure:"user_currencies" json:"user_currencies"`
	UserStocks     []string `mapstructure:"user_stocks" json:"user_stocks"`
}

// Default returns the settings used when no settings file exists.
func Default() Settings {
	return Settings{
		UserCurrencies: []string{"USD"},
		UserStocks:     []string{"AAPL", "GOOGL"},
	}
}

// Loader reads settings from a JSON file.
type Loader struct {
	logger *slog.Logger
	path   string
}

// NewLoader creates a Loader for the settings file at path.
func NewLoader(path string, logger *slog.Logger) *Loader {
	return &Loader{
		path:   path,
		logger: common.OrDiscard(logger).With("component", "settings"),
	}
}

// Load reads the settings file. A missing file yields Default; a file that
// is not valid JSON is an error.
func (l *Loader) Load() (Settings, error) {
	if _, err := os.Stat(l.path); errors.Is(err, os.ErrNotExist) {
		l.logger.Info("Settings file not found, using defaults", "path", l.path)
		return Default(), nil
	}

	v := viper.New()
	v.SetConfigFile(l.path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return Settings{}, fmt.Errorf("failed to read settings %s: %w", l.path, err)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings %s: %w", l.path, err)
	}
	s.UserCurrencies = normalize(s.UserCurrencies)
	s.UserStocks = normalize(s.UserStocks)

	l.logger.Debug("Loaded settings",
		"path", l.path,
		"currencies", len(s.UserCurrencies),
		"stocks", len(s.UserStocks))
	return s, nil
}

// normalize upper-cases symbols and drops blanks and duplicates.
func normalize(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
