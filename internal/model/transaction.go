package model

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Spreadsheet column headers of the bank export.
const (
	ColumnPaymentDate = "Дата платежа"
	ColumnAmount      = "Сумма платежа"
	ColumnStatus      = "Статус"
	ColumnCategory    = "Категория"
	ColumnCardNumber  = "Номер карты"
	ColumnDescription = "Описание"
	ColumnCashback    = "Кэшбэк"
)

// StatusOK marks a settled transaction. Every other status is ignored by reports.
const StatusOK = "OK"

// DateLayout is the textual date format used by the bank export and by every
// JSON document the application writes.
const DateLayout = "02.01.2006"

// Transaction represents a single row of the bank export.
type Transaction struct {
	// PaymentDate is truncated to the day. The zero value means the source
	// cell was empty or could not be parsed.
	PaymentDate time.Time
	// Cashback is nil when the bank did not report a cashback value.
	Cashback    *float64
	Status      string
	Category    string
	CardNumber  string // Masked, e.g. "*1234". Empty when missing.
	Description string
	// Amount is negative for expenses and positive for income or refunds.
	// NaN means the source cell was empty or unparsable.
	Amount float64
}

// HasPaymentDate reports whether the payment date was present and parsable.
func (t Transaction) HasPaymentDate() bool {
	return !t.PaymentDate.IsZero()
}

// HasCardNumber reports whether the row carries a card number.
func (t Transaction) HasCardNumber() bool {
	return strings.TrimSpace(t.CardNumber) != ""
}

// IsSuccessfulExpense reports whether the row is a settled expense.
func (t Transaction) IsSuccessfulExpense() bool {
	return t.Status == StatusOK && t.Amount < 0
}

// DerivedCashback returns the cashback attributed to the row.
func (t Transaction) DerivedCashback() float64 {
	return DerivedCashback(t.Cashback, t.Amount)
}

// DerivedCashback returns cashback when the bank reported one, otherwise one
// unit per full hundred spent: floor(|amount| / 100).
func DerivedCashback(cashback *float64, amount float64) float64 {
	if cashback != nil && !math.IsNaN(*cashback) && !math.IsInf(*cashback, 0) {
		return *cashback
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	return decimal.NewFromFloat(amount).Abs().Div(decimal.NewFromInt(100)).Floor().InexactFloat64()
}

// ParsePaymentDate parses a dd.mm.yyyy value. Anything else, including a
// value with a time of day, yields the zero time instead of an error.
func ParsePaymentDate(value string) time.Time {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// TruncateDay drops the time of day, keeping the calendar date.
func TruncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a date in the export format. Missing dates render empty.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// Float returns a pointer to v. Handy for optional cashback values.
func Float(v float64) *float64 {
	return &v
}
