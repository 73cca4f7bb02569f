package market

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/Veraticus/the-cashback-must-flow/internal/common"
)

// DefaultRatesURL is the currency conversion endpoint.
const DefaultRatesURL = "https://api.apilayer.com/exchangerates_data/convert"

// DefaultBaseCurrency is the currency every rate is quoted in.
const DefaultBaseCurrency = "RUB"

// RatesConfig configures RatesClient.
type RatesConfig struct {
	APIKey       string
	URL          string
	BaseCurrency string
}

// CurrencyRate is the price of one unit of Currency in the base currency.
type CurrencyRate struct {
	Currency string  `json:"currency"`
	Rate     float64 `json:"rate"`
}

// RatesClient converts currencies through the exchange rates API.
type RatesClient struct {
	http   *http.Client
	logger *slog.Logger
	cfg    RatesConfig
}

// NewRatesClient validates cfg and creates a client. A nil httpClient gets a
// client with DefaultTimeout.
func NewRatesClient(cfg RatesConfig, httpClient *http.Client, logger *slog.Logger) (*RatesClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: exchange rates api key", common.ErrMissingConfig)
	}
	if cfg.URL == "" {
		cfg.URL = DefaultRatesURL
	}
	if cfg.BaseCurrency == "" {
		cfg.BaseCurrency = DefaultBaseCurrency
	}

	return &RatesClient{
		cfg:    cfg,
		http:   newHTTPClient(httpClient),
		logger: common.OrDiscard(logger).With("component", "exchange_rates"),
	}, nil
}

type convertResponse struct {
	Result *float64 `json:"result"`
}

// Rate converts one unit of currency into the base currency.
func (c *RatesClient) Rate(ctx context.Context, currency string) (CurrencyRate, error) {
	query := url.Values{}
	query.Set("amount", "1")
	query.Set("from", currency)
	query.Set("to", c.cfg.BaseCurrency)

	header := http.Header{}
	header.Set("apikey", c.cfg.APIKey)

	var body convertResponse
	if err := getJSON(ctx, c.http, c.cfg.URL, query, header, &body); err != nil {
		return CurrencyRate{}, fmt.Errorf("rate for %s: %w", currency, err)
	}
	if body.Result == nil || *body.Result == 0 {
		return CurrencyRate{}, fmt.Errorf("rate for %s: %w: empty result", currency, common.ErrRemoteLookup)
	}

	c.logger.Debug("Fetched exchange rate", "currency", currency, "rate", *body.Result)
	return CurrencyRate{Currency: currency, Rate: *body.Result}, nil
}

// Rates looks up every currency in order. Currencies that fail are logged and
// left out.
func (c *RatesClient) Rates(ctx context.Context, currencies []string, progress Progress) []CurrencyRate {
	return lookupAll(ctx, c.logger, currencies, progress, c.Rate)
}
