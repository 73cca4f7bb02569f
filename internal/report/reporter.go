package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/the-cashback-must-flow/internal/common"
	"github.com/Veraticus/the-cashback-must-flow/internal/model"
)

// Derived column headers.
const (
	ColumnTotalSpent       = "Сумма расходов"
	ColumnComputedCashback = "Рассчитанный кэшбэк"
)

// TopLimit is the number of rows returned by TopTransactions.
const TopLimit = 5

// SpendingWindowMonths is how far back SpendingByCategory looks.
const SpendingWindowMonths = 3

// Source loads the transaction table on demand.
type Source interface {
	Load(ctx context.Context) (model.Table, error)
}

// CardSpend is the total spent with one card. TotalSpent stays negative.
type CardSpend struct {
	CardNumber string
	TotalSpent float64
}

// CardsSummary is the result of CardsInfo, ordered by card number.
type CardsSummary []CardSpend

// Records implements Recorder.
func (s CardsSummary) Records() []model.Record {
	records := make([]model.Record, 0, len(s))
	for _, c := range s {
		records = append(records, model.Record{
			{Name: model.ColumnCardNumber, Value: c.CardNumber},
			{Name: ColumnTotalSpent, Value: c.TotalSpent},
		})
	}
	return records
}

// CardCashback is the cashback earned with one card.
type CardCashback struct {
	CardNumber    string
	TotalCashback float64
}

// CardsCashback is the result of CardCashback, ordered by card number.
type CardsCashback []CardCashback

// Records implements Recorder.
func (s CardsCashback) Records() []model.Record {
	records := make([]model.Record, 0, len(s))
	for _, c := range s {
		records = append(records, model.Record{
			{Name: model.ColumnCardNumber, Value: c.CardNumber},
			{Name: ColumnComputedCashback, Value: c.TotalCashback},
		})
	}
	return records
}

// TopTransaction is one of the largest expenses.
type TopTransaction struct {
	PaymentDate time.Time
	Category    string
	Description string
	Amount      float64
}

// TopTransactions is the result of TopTransactions, largest expense first.
type TopTransactions []TopTransaction

// Records implements Recorder.
func (s TopTransactions) Records() []model.Record {
	records := make([]model.Record, 0, len(s))
	for _, t := range s {
		records = append(records, model.Record{
			{Name: model.ColumnPaymentDate, Value: t.PaymentDate},
			{Name: model.ColumnAmount, Value: t.Amount},
			{Name: model.ColumnCategory, Value: t.Category},
			{Name: model.ColumnDescription, Value: t.Description},
		})
	}
	return records
}

// Reporter computes reports over a transaction table. It never modifies the
// table it is given.
type Reporter struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewReporter creates a Reporter. now defaults to time.Now.
func NewReporter(logger *slog.Logger, now func() time.Time) *Reporter {
	if now == nil {
		now = time.Now
	}
	return &Reporter{
		logger: common.OrDiscard(logger).With("component", "report"),
		now:    now,
	}
}

// CardsInfo sums successful expenses per card.
func (r *Reporter) CardsInfo(table model.Table) CardsSummary {
	expenses := table.Filter(IsSuccessfulExpense)
	groups := GroupSum(expenses, cardNumber, amount)

	summary := make(CardsSummary, 0, len(groups))
	for _, g := range groups {
		summary = append(summary, CardSpend{CardNumber: g.Key, TotalSpent: g.Sum})
	}

	r.logger.Debug("Computed cards summary", "rows", len(table), "cards", len(summary))
	return summary
}

// CardCashback sums derived cashback of successful expenses per card.
func (r *Reporter) CardCashback(table model.Table) CardsCashback {
	expenses := table.Filter(IsSuccessfulExpense)
	groups := GroupSum(expenses, cardNumber, derivedCashback)

	result := make(CardsCashback, 0, len(groups))
	for _, g := range groups {
		result = append(result, CardCashback{CardNumber: g.Key, TotalCashback: g.Sum})
	}

	r.logger.Debug("Computed card cashback", "rows", len(table), "cards", len(result))
	return result
}

// TopTransactions returns up to five successful expenses with a card number,
// largest expense first. Equal amounts keep their table order.
func (r *Reporter) TopTransactions(table model.Table) TopTransactions {
	expenses := table.Filter(func(row model.Transaction) bool {
		return IsSuccessfulExpense(row) && row.HasCardNumber()
	})
	sort.SliceStable(expenses, func(i, j int) bool {
		return expenses[i].Amount < expenses[j].Amount
	})
	if len(expenses) > TopLimit {
		expenses = expenses[:TopLimit]
	}

	top := make(TopTransactions, 0, len(expenses))
	for _, row := range expenses {
		top = append(top, TopTransaction{
			PaymentDate: row.PaymentDate,
			Amount:      row.Amount,
			Category:    row.Category,
			Description: row.Description,
		})
	}

	r.logger.Debug("Selected top transactions", "count", len(top))
	return top
}

// SpendingByCategory returns the successful expenses in category during the
// three months up to date. An empty date means today. The returned rows are a
// copy in table order.
func (r *Reporter) SpendingByCategory(table model.Table, category, date string) (model.Table, error) {
	end := model.TruncateDay(r.now())
	if date != "" {
		parsed, err := ParseReferenceDate(date)
		if err != nil {
			return nil, err
		}
		end = parsed
	}
	start := SubtractMonths(end, SpendingWindowMonths)

	r.logger.Debug("Filtering spending by category",
		"category", category,
		"start", model.FormatDate(start),
		"end", model.FormatDate(end))

	matched := table.Filter(func(row model.Transaction) bool {
		return InDateWindow(row, start, end) &&
			IsSuccessfulExpense(row) &&
			InCategory(row, category)
	})

	return matched.Clone(), nil
}

// CategoryTotal is the cashback that a category earned.
type CategoryTotal struct {
	Category string
	Cashback float64
}

// CategoryCashback maps category to cashback, largest first. Categories with
// equal cashback are ordered by name.
type CategoryCashback []CategoryTotal

// MarshalJSON encodes the result as a flat object that keeps the ranking order.
func (c CategoryCashback) MarshalJSON() ([]byte, error) {
	record := make(model.Record, 0, len(c))
	for _, total := range c {
		record = append(record, model.Field{Name: total.Category, Value: total.Cashback})
	}
	return record.MarshalJSON()
}

// Records implements Recorder with one row per category.
func (c CategoryCashback) Records() []model.Record {
	records := make([]model.Record, 0, len(c))
	for _, total := range c {
		records = append(records, model.Record{
			{Name: model.ColumnCategory, Value: total.Category},
			{Name: ColumnComputedCashback, Value: total.Cashback},
		})
	}
	return records
}

// ParsePeriod validates a year and month given as text.
func ParsePeriod(year, month string) (int, time.Month, error) {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return 0, 0, common.InvalidArgument("year", year, err)
	}
	m, err := strconv.Atoi(strings.TrimSpace(month))
	if err != nil {
		return 0, 0, common.InvalidArgument("month", month, err)
	}
	return y, time.Month(m), nil
}

// CashbackByCategory loads the table from source and ranks categories by the
// cashback their successful expenses earned in the given month.
func (r *Reporter) CashbackByCategory(ctx context.Context, source Source, year, month string) (CategoryCashback, error) {
	y, m, err := ParsePeriod(year, month)
	if err != nil {
		return nil, err
	}

	table, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	return r.RankCashback(table, y, m), nil
}

// RankCashback ranks categories by derived cashback for one month of table.
func (r *Reporter) RankCashback(table model.Table, year int, month time.Month) CategoryCashback {
	inMonth := table.Filter(func(row model.Transaction) bool {
		if !row.HasPaymentDate() || !IsSuccessfulExpense(row) {
			return false
		}
		y, m, _ := row.PaymentDate.Date()
		return y == year && m == month
	})

	groups := GroupSum(inMonth, category, derivedCashback)
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Sum > groups[j].Sum
	})

	result := make(CategoryCashback, 0, len(groups))
	for _, g := range groups {
		result = append(result, CategoryTotal{Category: g.Key, Cashback: g.Sum})
	}

	r.logger.Info("Ranked categories by cashback",
		"year", year,
		"month", int(month),
		"categories", len(result))
	return result
}
