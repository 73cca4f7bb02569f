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

// DefaultStocksURL is the intraday quotes endpoint.
const DefaultStocksURL = "http://api.marketstack.com/v1/intraday"

// StocksConfig configures StocksClient.
type StocksConfig struct {
	APIKey string
	URL    string
}

// StockPrice is the last traded price of a symbol.
type StockPrice struct {
	Stock string  `json:"stock"`
	Price float64 `json:"price"`
}

// StocksClient fetches last prices from the intraday quotes API.
type StocksClient struct {
	http   *http.Client
	logger *slog.Logger
	cfg    StocksConfig
}

// NewStocksClient validates cfg and creates a client.
func NewStocksClient(cfg StocksConfig, httpClient *http.Client, logger *slog.Logger) (*StocksClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: stock prices api key", common.ErrMissingConfig)
	}
	if cfg.URL == "" {
		cfg.URL = DefaultStocksURL
	}

	return &StocksClient{
		cfg:    cfg,
		http:   newHTTPClient(httpClient),
		logger: common.OrDiscard(logger).With("component", "stock_prices"),
	}, nil
}

type intradayResponse struct {
	Data []struct {
		Last *float64 `json:"last"`
	} `json:"data"`
}

// Price returns the last price of symbol.
func (c *StocksClient) Price(ctx context.Context, symbol string) (StockPrice, error) {
	query := url.Values{}
	query.Set("access_key", c.cfg.APIKey)
	query.Set("symbols", symbol)

	var body intradayResponse
	if err := getJSON(ctx, c.http, c.cfg.URL, query, nil, &body); err != nil {
		// The access key travels in the query string; keep it out of the error.
		return StockPrice{}, fmt.Errorf("price for %s: %w", symbol, redact(err, c.cfg.APIKey))
	}
	if len(body.Data) == 0 || body.Data[0].Last == nil || *body.Data[0].Last == 0 {
		return StockPrice{}, fmt.Errorf("price for %s: %w: no quotes", symbol, common.ErrRemoteLookup)
	}

	price := *body.Data[0].Last
	c.logger.Debug("Fetched stock price", "stock", symbol, "price", price)
	return StockPrice{Stock: symbol, Price: price}, nil
}

// Prices looks up every symbol in order. Symbols that fail are logged and
// left out.
func (c *StocksClient) Prices(ctx context.Context, symbols []string, progress Progress) []StockPrice {
	return lookupAll(ctx, c.logger, symbols, progress, c.Price)
}

type redactedError struct {
	err    error
	secret string
}

func (e *redactedError) Error() string {
	return strings.ReplaceAll(e.err.Error(), e.secret, "REDACTED")
}

func (e *redactedError) Unwrap() error {
	return e.err
}

func redact(err error, secret string) error {
	if secret == "" {
		return err
	}
	return &redactedError{err: err, secret: secret}
}
