package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/Veraticus/the-cashback-must-flow/internal/common"
	"github.com/Veraticus/the-cashback-must-flow/internal/market"
	"github.com/Veraticus/the-cashback-must-flow/internal/sheets"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read through viper.
const EnvPrefix = "CASHBACK"

// Environment variables that hold the API credentials. They are read in
// addition to the prefixed names.
const (
	EnvExchangeRatesKey = "API_KEY_EXCHANGE_RATES"
	EnvStockPricesKey   = "API_KEY_STOCK_PRICES"
)

// Default file names inside the data directory.
const (
	OperationsFile = "operations.xlsx"
	SettingsFile   = "user_settings.json"
	JournalFile    = "reports.db"
)

// Config is the resolved application configuration.
type Config struct {
	Logging        common.LogConfig
	Rates          market.RatesConfig
	Stocks         market.StocksConfig
	DataDir        string
	OperationsPath string
	SettingsPath   string
	JournalPath    string
	MarketTimeout  time.Duration
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data.dir", "./data")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "./logs/cashback.log")
	v.SetDefault("market.exchange_rates.url", market.DefaultRatesURL)
	v.SetDefault("market.exchange_rates.base_currency", market.DefaultBaseCurrency)
	v.SetDefault("market.stocks.url", market.DefaultStocksURL)
	v.SetDefault("market.timeout", market.DefaultTimeout)
}

// BindEnv makes v read CASHBACK_* variables for every key, plus the bare
// credential variable names and the GOOGLE_SHEETS_* variables.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string][]string{
		"market.exchange_rates.api_key": {EnvPrefix + "_MARKET_EXCHANGE_RATES_API_KEY", EnvExchangeRatesKey},
		"market.stocks.api_key":         {EnvPrefix + "_MARKET_STOCKS_API_KEY", EnvStockPricesKey},
		"sheets.service_account_path":   {EnvPrefix + "_SHEETS_SERVICE_ACCOUNT_PATH", "GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"},
		"sheets.client_id":              {EnvPrefix + "_SHEETS_CLIENT_ID", "GOOGLE_SHEETS_CLIENT_ID"},
		"sheets.client_secret":          {EnvPrefix + "_SHEETS_CLIENT_SECRET", "GOOGLE_SHEETS_CLIENT_SECRET"},
		"sheets.refresh_token":          {EnvPrefix + "_SHEETS_REFRESH_TOKEN", "GOOGLE_SHEETS_REFRESH_TOKEN"},
		"sheets.spreadsheet_id":         {EnvPrefix + "_SHEETS_SPREADSHEET_ID", "GOOGLE_SHEETS_SPREADSHEET_ID"},
	}
	for key, names := range bindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// Load resolves the configuration from v. Credentials are not checked here;
// the clients that need them validate on construction.
func Load(v *viper.Viper) (Config, error) {
	dataDir := ExpandPath(v.GetString("data.dir"))
	if strings.TrimSpace(dataDir) == "" {
		return Config{}, fmt.Errorf("%w: data.dir is empty", common.ErrInvalidConfig)
	}

	timeout := v.GetDuration("market.timeout")
	if timeout <= 0 {
		return Config{}, fmt.Errorf("%w: market.timeout must be positive", common.ErrInvalidConfig)
	}

	cfg := Config{
		DataDir:        dataDir,
		OperationsPath: resolvePath(v.GetString("data.operations"), dataDir, OperationsFile),
		SettingsPath:   resolvePath(v.GetString("data.settings"), dataDir, SettingsFile),
		JournalPath:    resolvePath(v.GetString("journal.path"), dataDir, JournalFile),
		Logging: common.LogConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
			File:   ExpandPath(v.GetString("logging.file")),
		},
		Rates: market.RatesConfig{
			APIKey:       strings.TrimSpace(v.GetString("market.exchange_rates.api_key")),
			URL:          v.GetString("market.exchange_rates.url"),
			BaseCurrency: strings.ToUpper(v.GetString("market.exchange_rates.base_currency")),
		},
		Stocks: market.StocksConfig{
			APIKey: strings.TrimSpace(v.GetString("market.stocks.api_key")),
			URL:    v.GetString("market.stocks.url"),
		},
		MarketTimeout: timeout,
	}

	if _, err := common.ParseLevel(cfg.Logging.Level); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadSheets returns the Google Sheets export configuration, or ok=false when
// no spreadsheet is configured.
func LoadSheets(v *viper.Viper) (cfg sheets.Config, ok bool, err error) {
	cfg = sheets.DefaultConfig()

	if s := v.GetString("sheets.service_account_path"); s != "" {
		cfg.ServiceAccountPath = ExpandPath(s)
	}
	cfg.ClientID = v.GetString("sheets.client_id")
	cfg.ClientSecret = v.GetString("sheets.client_secret")
	cfg.RefreshToken = v.GetString("sheets.refresh_token")
	cfg.SpreadsheetID = v.GetString("sheets.spreadsheet_id")
	if s := v.GetString("sheets.time_zone"); s != "" {
		cfg.TimeZone = s
	}
	if v.IsSet("sheets.enable_formatting") {
		cfg.EnableFormatting = v.GetBool("sheets.enable_formatting")
	}

	if !cfg.Enabled() {
		return cfg, false, nil
	}
	if err = cfg.Validate(); err != nil {
		return cfg, false, err
	}
	return cfg, true, nil
}
