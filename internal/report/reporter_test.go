package report

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/Veraticus/the-cashback-must-flow/internal/common"
	"github.com/Veraticus/the-cashback-must-flow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReporter(now string) *Reporter {
	return NewReporter(common.Discard(), fixedClock(now))
}

func TestReporter_CardsInfo(t *testing.T) {
	r := newTestReporter("01.02.2023")

	got := r.CardsInfo(operationsFixture())

	assert.Equal(t, CardsSummary{
		{CardNumber: "*1234", TotalSpent: -1500},
		{CardNumber: "*5678", TotalSpent: -200},
	}, got)
	assert.Empty(t, r.CardsInfo(nil))
}

func TestReporter_InfiniteValuesDoNotBreakReports(t *testing.T) {
	r := newTestReporter("01.02.2023")
	table := model.Table{
		{PaymentDate: day("10.01.2023"), Status: model.StatusOK, CardNumber: "*1234", Category: "Связь", Amount: math.Inf(-1)},
		{PaymentDate: day("11.01.2023"), Status: model.StatusOK, CardNumber: "*1234", Category: "Связь", Amount: -300, Cashback: model.Float(math.Inf(1))},
	}

	require.NotPanics(t, func() {
		assert.Equal(t, CardsSummary{{CardNumber: "*1234", TotalSpent: -300}}, r.CardsInfo(table))
		assert.Equal(t, CardsCashback{{CardNumber: "*1234", TotalCashback: 3}}, r.CardCashback(table))
		assert.Equal(t, CategoryCashback{{Category: "Связь", Cashback: 3}}, r.RankCashback(table, 2023, time.January))
	})
}

func TestReporter_CardCashback(t *testing.T) {
	r := newTestReporter("01.02.2023")

	got := r.CardCashback(operationsFixture())

	assert.Equal(t, CardsCashback{
		{CardNumber: "*1234", TotalCashback: 60},
		{CardNumber: "*5678", TotalCashback: 2},
	}, got)
}

func TestReporter_CardsMatchExpenseCards(t *testing.T) {
	r := newTestReporter("01.02.2023")
	table := append(operationsFixture(), restaurantsFixture()...)

	want := map[string]bool{}
	for _, row := range table {
		if row.IsSuccessfulExpense() && row.HasCardNumber() {
			want[row.CardNumber] = true
		}
	}

	spent := map[string]bool{}
	for _, c := range r.CardsInfo(table) {
		assert.False(t, spent[c.CardNumber], "duplicate card %s", c.CardNumber)
		spent[c.CardNumber] = true
		assert.LessOrEqual(t, c.TotalSpent, 0.0)
	}
	earned := map[string]bool{}
	for _, c := range r.CardCashback(table) {
		assert.False(t, earned[c.CardNumber], "duplicate card %s", c.CardNumber)
		earned[c.CardNumber] = true
		assert.GreaterOrEqual(t, c.TotalCashback, 0.0)
	}

	assert.Equal(t, want, spent)
	assert.Equal(t, want, earned)
}

func TestReporter_TopTransactions(t *testing.T) {
	r := newTestReporter("01.02.2023")

	got := r.TopTransactions(operationsFixture())

	assert.Equal(t, TopTransactions{
		{PaymentDate: day("01.01.2023"), Amount: -1000, Category: "Транспорт", Description: "Поездка"},
		{PaymentDate: day("01.01.2023"), Amount: -500, Category: "Рестораны", Description: "Ресторан"},
		{PaymentDate: day("01.01.2023"), Amount: -200, Category: "Супермаркеты", Description: "Магазин"},
	}, got)
}

func TestReporter_TopTransactions_LimitAndStableTies(t *testing.T) {
	r := newTestReporter("01.02.2023")

	var table model.Table
	for i := 0; i < 8; i++ {
		table = append(table, model.Transaction{
			PaymentDate: day("05.01.2023"),
			Amount:      -100,
			Status:      "OK",
			CardNumber:  "*1234",
			Description: fmt.Sprintf("tie-%d", i),
		})
	}
	table = append(table, model.Transaction{Amount: -9000, Status: "OK", Description: "no card"})
	table = append(table, model.Transaction{Amount: -700, Status: "OK", CardNumber: "*5678", Description: "largest"})

	got := r.TopTransactions(table)

	require.Len(t, got, TopLimit)
	descriptions := make([]string, 0, len(got))
	for _, row := range got {
		descriptions = append(descriptions, row.Description)
	}
	assert.Equal(t, []string{"largest", "tie-0", "tie-1", "tie-2", "tie-3"}, descriptions)
}

func TestReporter_TopTransactions_FewerThanLimit(t *testing.T) {
	r := newTestReporter("01.02.2023")

	assert.Empty(t, r.TopTransactions(model.Table{{Amount: 100, Status: "OK", CardNumber: "*1"}}))
	assert.Len(t, r.TopTransactions(model.Table{{Amount: -1, Status: "OK", CardNumber: "*1"}}), 1)
}

func TestReporter_SpendingByCategory(t *testing.T) {
	r := newTestReporter("01.02.2024")
	table := restaurantsFixture()
	before := table.Clone()

	got, err := r.SpendingByCategory(table, "рестораны", "01.12.2023")
	require.NoError(t, err)

	require.Len(t, got, 2)
	categories := map[string]bool{}
	for _, row := range got {
		categories[row.Category] = true
	}
	assert.Len(t, categories, 1)
	assert.Equal(t, "Ужин", got[0].Description)
	assert.Equal(t, "Обед", got[1].Description)
	assert.Equal(t, before, table, "input table must not change")

	*got[1].Cashback = 1000
	assert.Equal(t, 4.0, *table[2].Cashback, "result must not share cashback with the input")
}

func TestReporter_SpendingByCategory_DefaultsToToday(t *testing.T) {
	r := newTestReporter("20.11.2023")

	got, err := r.SpendingByCategory(restaurantsFixture(), "Рестораны", "")
	require.NoError(t, err)

	descriptions := make([]string, 0, len(got))
	for _, row := range got {
		descriptions = append(descriptions, row.Description)
	}
	assert.Equal(t, []string{"Ужин", "До окна", "Обед"}, descriptions)
}

func TestReporter_SpendingByCategory_InvalidDate(t *testing.T) {
	r := newTestReporter("01.02.2024")

	_, err := r.SpendingByCategory(restaurantsFixture(), "рестораны", "invalid_date")
	require.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestReporter_SpendingByCategory_EmptyCategoryIsNotWildcard(t *testing.T) {
	r := newTestReporter("01.02.2024")

	got, err := r.SpendingByCategory(restaurantsFixture(), "", "01.12.2023")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReporter_CashbackByCategory(t *testing.T) {
	r := newTestReporter("01.02.2023")
	source := &staticSource{table: operationsFixture()}

	got, err := r.CashbackByCategory(context.Background(), source, "2023", "01")
	require.NoError(t, err)

	assert.Equal(t, CategoryCashback{
		{Category: "Рестораны", Cashback: 50},
		{Category: "Транспорт", Cashback: 10},
		{Category: "Супермаркеты", Cashback: 2},
	}, got)

	data, err := EncodeJSON(got)
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"Рестораны\": 50,\n    \"Транспорт\": 10,\n    \"Супермаркеты\": 2\n}", string(data))
}

func TestReporter_CashbackByCategory_TiesByName(t *testing.T) {
	r := newTestReporter("01.02.2023")
	table := model.Table{
		{PaymentDate: day("10.03.2023"), Amount: -300, Status: "OK", Category: "Транспорт"},
		{PaymentDate: day("11.03.2023"), Amount: -300, Status: "OK", Category: "Аптеки"},
		{PaymentDate: day("12.03.2023"), Amount: -900, Status: "OK", Category: "Красота"},
		{PaymentDate: day("12.04.2023"), Amount: -9000, Status: "OK", Category: "Апрель"},
	}

	got := r.RankCashback(table, 2023, 3)

	assert.Equal(t, CategoryCashback{
		{Category: "Красота", Cashback: 9},
		{Category: "Аптеки", Cashback: 3},
		{Category: "Транспорт", Cashback: 3},
	}, got)
}

func TestReporter_CashbackByCategory_InvalidPeriod(t *testing.T) {
	r := newTestReporter("01.02.2023")

	tests := []struct {
		name  string
		year  string
		month string
	}{
		{name: "year", year: "two thousand", month: "01"},
		{name: "month", year: "2023", month: "jan"},
		{name: "empty month", year: "2023", month: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &staticSource{table: operationsFixture()}
			_, err := r.CashbackByCategory(context.Background(), source, tt.year, tt.month)
			require.ErrorIs(t, err, common.ErrInvalidArgument)
			assert.Zero(t, source.calls, "source must not be read for a bad period")
		})
	}
}

func TestReporter_CashbackByCategory_SourceError(t *testing.T) {
	r := newTestReporter("01.02.2023")
	boom := errors.New("boom")

	_, err := r.CashbackByCategory(context.Background(), &staticSource{err: boom}, "2023", "1")
	require.ErrorIs(t, err, boom)
}

func TestReporter_CashbackByCategory_EmptyMonth(t *testing.T) {
	r := newTestReporter("01.02.2023")

	got, err := r.CashbackByCategory(context.Background(), &staticSource{table: operationsFixture()}, "2021", "08")
	require.NoError(t, err)

	data, err := EncodeJSON(got)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}
