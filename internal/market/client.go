// Package market looks up currency exchange rates and stock prices.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Veraticus/the-cashback-must-flow/internal/common"
)

// DefaultTimeout bounds a single lookup when the caller passes no client.
const DefaultTimeout = 10 * time.Second

// Progress is advanced once per looked up symbol. A progress bar satisfies it.
type Progress interface {
	Add(n int) error
}

func newHTTPClient(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: DefaultTimeout}
}

// getJSON issues a GET to endpoint with query and decodes the JSON body into
// out. Every failure is reported as ErrRemoteLookup.
func getJSON(ctx context.Context, client *http.Client, endpoint string, query url.Values, header http.Header, out any) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: invalid url: %v", common.ErrRemoteLookup, err)
	}
	q := u.Query()
	for key, values := range query {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", common.ErrRemoteLookup, err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrRemoteLookup, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", common.ErrRemoteLookup, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", common.ErrRemoteLookup, err)
	}
	return nil
}

// lookupAll runs lookup for every symbol in order, skipping failures.
func lookupAll[T any](ctx context.Context, logger *slog.Logger, symbols []string, progress Progress, lookup func(context.Context, string) (T, error)) []T {
	results := make([]T, 0, len(symbols))
	for i, symbol := range symbols {
		if ctx.Err() != nil {
			logger.Warn("Lookup cancelled", "remaining", len(symbols)-i, "error", ctx.Err())
			break
		}

		result, err := lookup(ctx, symbol)
		if progress != nil {
			_ = progress.Add(1)
		}
		if err != nil {
			logger.Warn("Skipping symbol", "symbol", symbol, "error", err)
			continue
		}
		results = append(results, result)
	}
	return results
}
