package market

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Veraticus/the-cashback-must-flow/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProgress struct {
	n int
}

func (p *countingProgress) Add(n int) error {
	p.n += n
	return nil
}

func ratesServer(t *testing.T, rates map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("apikey"))
		assert.Equal(t, "1", r.URL.Query().Get("amount"))
		assert.Equal(t, "RUB", r.URL.Query().Get("to"))

		body, ok := rates[r.URL.Query().Get("from")]
		if !ok {
			http.Error(w, `{"message":"unknown currency"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewRatesClient_MissingKey(t *testing.T) {
	_, err := NewRatesClient(RatesConfig{APIKey: " "}, nil, nil)
	require.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestNewStocksClient_MissingKey(t *testing.T) {
	_, err := NewStocksClient(StocksConfig{}, nil, nil)
	require.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestRatesClient_Rate(t *testing.T) {
	server := ratesServer(t, map[string]string{
		"USD": `{"success": true, "result": 92.35}`,
		"EUR": `{"result": 0}`,
		"GBP": `not json`,
		"CNY": `{"success": false}`,
	})
	client, err := NewRatesClient(RatesConfig{APIKey: "test-key", URL: server.URL}, server.Client(), common.Discard())
	require.NoError(t, err)

	got, err := client.Rate(context.Background(), "USD")
	require.NoError(t, err)
	assert.Equal(t, CurrencyRate{Currency: "USD", Rate: 92.35}, got)

	for _, code := range []string{"EUR", "GBP", "CNY", "JPY"} {
		t.Run(code, func(t *testing.T) {
			_, err := client.Rate(context.Background(), code)
			require.ErrorIs(t, err, common.ErrRemoteLookup)
		})
	}
}

func TestRatesClient_Rates_SkipsFailures(t *testing.T) {
	server := ratesServer(t, map[string]string{
		"USD": `{"result": 92.35}`,
		"EUR": `{"result": 99.5}`,
	})
	client, err := NewRatesClient(RatesConfig{APIKey: "test-key", URL: server.URL}, server.Client(), common.Discard())
	require.NoError(t, err)

	progress := &countingProgress{}
	got := client.Rates(context.Background(), []string{"EUR", "XXX", "USD"}, progress)

	assert.Equal(t, []CurrencyRate{
		{Currency: "EUR", Rate: 99.5},
		{Currency: "USD", Rate: 92.35},
	}, got)
	assert.Equal(t, 3, progress.n)
}

func TestRatesClient_Rates_Cancelled(t *testing.T) {
	server := ratesServer(t, map[string]string{"USD": `{"result": 92.35}`})
	client, err := NewRatesClient(RatesConfig{APIKey: "test-key", URL: server.URL}, server.Client(), common.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Empty(t, client.Rates(ctx, []string{"USD"}, nil))
}

func TestStocksClient_Price(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-key", r.URL.Query().Get("access_key"))
		switch r.URL.Query().Get("symbols") {
		case "AAPL":
			_, _ = fmt.Fprint(w, `{"pagination": {"count": 1}, "data": [{"symbol": "AAPL", "last": 189.98}, {"last": 1}]}`)
		case "EMPTY":
			_, _ = fmt.Fprint(w, `{"data": []}`)
		case "NULL":
			_, _ = fmt.Fprint(w, `{"data": [{"last": null}]}`)
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = fmt.Fprintf(w, `{"error": "bad request %s"}`, r.URL.RawQuery)
		}
	}))
	defer server.Close()

	client, err := NewStocksClient(StocksConfig{APIKey: "secret-key", URL: server.URL}, server.Client(), common.Discard())
	require.NoError(t, err)

	got, err := client.Price(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, StockPrice{Stock: "AAPL", Price: 189.98}, got)

	for _, symbol := range []string{"EMPTY", "NULL", "MISSING"} {
		t.Run(symbol, func(t *testing.T) {
			_, err := client.Price(context.Background(), symbol)
			require.ErrorIs(t, err, common.ErrRemoteLookup)
			assert.False(t, strings.Contains(err.Error(), "secret-key"), "api key leaked: %v", err)
		})
	}

	progress := &countingProgress{}
	prices := client.Prices(context.Background(), []string{"MISSING", "AAPL"}, progress)
	assert.Equal(t, []StockPrice{{Stock: "AAPL", Price: 189.98}}, prices)
	assert.Equal(t, 2, progress.n)
}

func TestRatesClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := NewRatesClient(RatesConfig{APIKey: "test-key", URL: url}, nil, common.Discard())
	require.NoError(t, err)

	_, err = client.Rate(context.Background(), "USD")
	require.ErrorIs(t, err, common.ErrRemoteLookup)
}
