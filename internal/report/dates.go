package report

import (
	"strings"
	"time"

	"github.com/Veraticus/the-cashback-must-flow/internal/common"
	"github.com/Veraticus/the-cashback-must-flow/internal/model"
)

// referenceLayouts are tried in order. Day-first comes before ISO so that
// "01.12.2023" is the first of December.
var referenceLayouts = []string{
	model.DateLayout,
	model.DateLayout + " 15:04:05",
	model.DateLayout + " 15:04",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseReferenceDate parses a user supplied date. Unlike payment dates in the
// table, a bad reference date is the caller's error.
func ParseReferenceDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range referenceLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return model.TruncateDay(parsed), nil
		}
	}
	return time.Time{}, common.InvalidArgument("date", value, nil)
}

// SubtractMonths moves t back by n calendar months. When the target month is
// shorter the day is clamped to its last day, so three months before 31 May
// is the end of February.
func SubtractMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m-time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return first.AddDate(0, 0, d-1)
}

// StartOfMonth returns the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}
