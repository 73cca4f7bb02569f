// Package report turns a transaction table into the summaries shown to the user.
package report

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/the-cashback-must-flow/internal/model"
	"github.com/shopspring/decimal"
)

// Group is one key of a grouped sum.
type Group struct {
	Key string
	Sum float64
}

// IsSuccessfulExpense reports whether the row is a settled expense.
func IsSuccessfulExpense(row model.Transaction) bool {
	return row.IsSuccessfulExpense()
}

// InDateWindow reports whether the row's payment date lies in [start, end].
// Both bounds are inclusive and compared by calendar day. Rows without a
// payment date never match.
func InDateWindow(row model.Transaction, start, end time.Time) bool {
	if !row.HasPaymentDate() {
		return false
	}
	day := model.TruncateDay(row.PaymentDate)
	return !day.Before(model.TruncateDay(start)) && !day.After(model.TruncateDay(end))
}

// InCategory reports whether the row's category equals category, ignoring case.
func InCategory(row model.Transaction, category string) bool {
	return strings.ToLower(row.Category) == strings.ToLower(category)
}

// GroupSum sums value per key. Rows with an empty key or a non-finite value
// are dropped and groups come back ordered by key ascending.
func GroupSum(rows model.Table, key func(model.Transaction) string, value func(model.Transaction) float64) []Group {
	sums := make(map[string]decimal.Decimal)
	for _, row := range rows {
		k := key(row)
		if strings.TrimSpace(k) == "" {
			continue
		}
		v := value(row)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sums[k] = sums[k].Add(decimal.NewFromFloat(v))
	}

	groups := make([]Group, 0, len(sums))
	for k, sum := range sums {
		groups = append(groups, Group{Key: k, Sum: sum.InexactFloat64()})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Key < groups[j].Key
	})

	return groups
}

func cardNumber(row model.Transaction) string { return row.CardNumber }

func category(row model.Transaction) string { return row.Category }

func amount(row model.Transaction) float64 { return row.Amount }

func derivedCashback(row model.Transaction) float64 { return row.DerivedCashback() }
