// Package mainpage assembles the "main page" summary: spending and cashback
// per card for the current month, the largest expenses, and the user's
// currency and stock watch lists.
package mainpage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/the-cashback-must-flow/internal/common"
	"github.com/Veraticus/the-cashback-must-flow/internal/market"
	"github.com/Veraticus/the-cashback-must-flow/internal/model"
	"github.com/Veraticus/the-cashback-must-flow/internal/report"
	"github.com/Veraticus/the-cashback-must-flow/internal/settings"
)

// SettingsSource provides the watch lists.
type SettingsSource interface {
	Load() (settings.Settings, error)
}

// RateFetcher looks up currency rates, skipping the ones that fail.
type RateFetcher interface {
	Rates(ctx context.Context, currencies []string, progress market.Progress) []market.CurrencyRate
}

// PriceFetcher looks up stock prices, skipping the ones that fail.
type PriceFetcher interface {
	Prices(ctx context.Context, symbols []string, progress market.Progress) []market.StockPrice
}

// ProgressFunc creates a progress indicator for total lookups.
type ProgressFunc func(total int, description string) market.Progress

// Card is the month to date summary of one card.
type Card struct {
	LastDigits string   `json:"last_digits"`
	TotalSpent float64  `json:"total_spent"`
	Cashback   *float64 `json:"cashback"`
}

// Transaction is one of the largest expenses of the month.
type Transaction struct {
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
}

// Response is the main page document.
type Response struct {
	Greeting        string                `json:"greeting"`
	Cards           []Card                `json:"cards"`
	TopTransactions []Transaction         `json:"top_transactions"`
	CurrencyRates   []market.CurrencyRate `json:"currency_rates"`
	StockPrices     []market.StockPrice   `json:"stock_prices"`
}

// Render encodes the response as indented JSON with non-ASCII text kept literal.
func (r Response) Render() ([]byte, error) {
	return report.EncodeJSON(r)
}

// Assembler builds main page responses.
type Assembler struct {
	transactions report.Source
	settings     SettingsSource
	rates        RateFetcher
	prices       PriceFetcher
	reporter     *report.Reporter
	progress     ProgressFunc
	now          func() time.Time
	logger       *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithClock overrides the clock used for the greeting.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		if now != nil {
			a.now = now
		}
	}
}

// WithProgress reports lookup progress through fn.
func WithProgress(fn ProgressFunc) Option {
	return func(a *Assembler) {
		a.progress = fn
	}
}

// NewAssembler creates an Assembler.
func NewAssembler(
	transactions report.Source,
	settingsSource SettingsSource,
	rates RateFetcher,
	prices PriceFetcher,
	reporter *report.Reporter,
	logger *slog.Logger,
	opts ...Option,
) *Assembler {
	a := &Assembler{
		transactions: transactions,
		settings:     settingsSource,
		rates:        rates,
		prices:       prices,
		reporter:     reporter,
		now:          time.Now,
		logger:       common.OrDiscard(logger).With("component", "mainpage"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.reporter == nil {
		a.reporter = report.NewReporter(a.logger, a.now)
	}
	return a
}

// Build assembles the response for the month of date, from its first day up
// to date inclusive. date is dd.mm.yyyy or ISO.
func (a *Assembler) Build(ctx context.Context, date string) (Response, error) {
	end, err := report.ParseReferenceDate(date)
	if err != nil {
		return Response{}, err
	}
	start := report.StartOfMonth(end)

	table, err := a.transactions.Load(ctx)
	if err != nil {
		return Response{}, fmt.Errorf("failed to load transactions: %w", err)
	}
	window := table.Filter(func(row model.Transaction) bool {
		return report.InDateWindow(row, start, end)
	})

	a.logger.Debug("Filtered transactions to month window",
		"start", model.FormatDate(start),
		"end", model.FormatDate(end),
		"rows", len(window))

	userSettings, err := a.settings.Load()
	if err != nil {
		return Response{}, fmt.Errorf("failed to load settings: %w", err)
	}

	resp := Response{
		Greeting:        Greeting(a.now()),
		Cards:           a.cards(window),
		TopTransactions: a.topTransactions(window),
		CurrencyRates:   a.rates.Rates(ctx, userSettings.UserCurrencies, a.newProgress(len(userSettings.UserCurrencies), "currency rates")),
		StockPrices:     a.prices.Prices(ctx, userSettings.UserStocks, a.newProgress(len(userSettings.UserStocks), "stock prices")),
	}
	if resp.CurrencyRates == nil {
		resp.CurrencyRates = []market.CurrencyRate{}
	}
	if resp.StockPrices == nil {
		resp.StockPrices = []market.StockPrice{}
	}

	a.logger.Info("Assembled main page",
		"date", model.FormatDate(end),
		"cards", len(resp.Cards),
		"top_transactions", len(resp.TopTransactions),
		"currency_rates", len(resp.CurrencyRates),
		"stock_prices", len(resp.StockPrices))
	return resp, nil
}

// cards joins spending and cashback by card number. Every card with spending
// is kept; a card without cashback gets null.
func (a *Assembler) cards(window model.Table) []Card {
	cashback := make(map[string]float64)
	for _, c := range a.reporter.CardCashback(window) {
		cashback[c.CardNumber] = c.TotalCashback
	}

	summary := a.reporter.CardsInfo(window)
	cards := make([]Card, 0, len(summary))
	for _, c := range summary {
		card := Card{LastDigits: c.CardNumber, TotalSpent: c.TotalSpent}
		if v, ok := cashback[c.CardNumber]; ok {
			card.Cashback = model.Float(v)
		}
		cards = append(cards, card)
	}
	return cards
}

func (a *Assembler) topTransactions(window model.Table) []Transaction {
	top := a.reporter.TopTransactions(window)
	out := make([]Transaction, 0, len(top))
	for _, t := range top {
		out = append(out, Transaction{
			Date:        model.FormatDate(t.PaymentDate),
			Amount:      t.Amount,
			Category:    t.Category,
			Description: t.Description,
		})
	}
	return out
}

func (a *Assembler) newProgress(total int, description string) market.Progress {
	if a.progress == nil || total == 0 {
		return nil
	}
	return a.progress(total, description)
}
