package report

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/the-cashback-must-flow/internal/common"
	"github.com/Veraticus/the-cashback-must-flow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	err     error
	saved   []SavedReport
	records [][]model.Record
}

func (s *recordingSink) Export(_ context.Context, saved SavedReport, records []model.Record) error {
	s.saved = append(s.saved, saved)
	s.records = append(s.records, records)
	return s.err
}

func readRecords(t *testing.T, path string) []model.Record {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var records []model.Record
	require.NoError(t, json.Unmarshal(data, &records))
	return records
}

func TestPersisted_DefaultFileName(t *testing.T) {
	dir := t.TempDir()
	clock := fixedClock("01.02.2023")
	saver := NewSaver(dir, common.Discard(), WithClock(clock))
	r := newTestReporter("01.02.2023")

	rep := Persisted(r.CardsReport(), saver, "")
	got, err := rep.Run(context.Background(), operationsFixture(), NoParams{})
	require.NoError(t, err)
	assert.Equal(t, r.CardsInfo(operationsFixture()), got)

	path := filepath.Join(dir, "report_20230201_150000.json")
	assert.Equal(t, path, filepath.Join(dir, DefaultFileName(clock())))

	records := readRecords(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, []string{model.ColumnCardNumber, ColumnTotalSpent}, records[0].Names())
	card, _ := records[0].Get(model.ColumnCardNumber)
	spent, _ := records[0].Get(ColumnTotalSpent)
	assert.Equal(t, "*1234", card)
	assert.Equal(t, -1500.0, spent)
}

func TestPersisted_CustomFileNameRoundTrip(t *testing.T) {
	dir := t.TempDir()
	saver := NewSaver(dir, common.Discard(), WithClock(fixedClock("01.02.2024")))
	r := newTestReporter("01.02.2024")

	rep := Persisted(r.SpendingReport(), saver, SpendingReportFile)
	got, err := rep.Run(context.Background(), restaurantsFixture(), SpendingParams{Category: "рестораны", Date: "01.12.2023"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	records := readRecords(t, filepath.Join(dir, SpendingReportFile))
	require.Len(t, records, 2)

	assert.Equal(t, []string{
		model.ColumnPaymentDate,
		model.ColumnAmount,
		model.ColumnStatus,
		model.ColumnCategory,
		model.ColumnCardNumber,
		model.ColumnDescription,
		model.ColumnCashback,
	}, records[0].Names())

	date, _ := records[0].Get(model.ColumnPaymentDate)
	amount, _ := records[0].Get(model.ColumnAmount)
	cashback, _ := records[0].Get(model.ColumnCashback)
	assert.Equal(t, "15.11.2023", date)
	assert.Equal(t, -800.0, amount)
	assert.Nil(t, cashback)

	cashback, _ = records[1].Get(model.ColumnCashback)
	assert.Equal(t, 4.0, cashback)
}

func TestPersisted_KeepsNameAndDescription(t *testing.T) {
	r := newTestReporter("01.02.2023")
	inner := r.TopReport()

	rep := Persisted(inner, NewSaver(t.TempDir(), nil), "")

	assert.Equal(t, inner.Name, rep.Name)
	assert.Equal(t, inner.Description, rep.Description)
}

func TestPersisted_FailedRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	sink := &recordingSink{}
	saver := NewSaver(dir, common.Discard(), WithSinks(sink))
	r := newTestReporter("01.02.2024")

	rep := Persisted(r.SpendingReport(), saver, "")
	_, err := rep.Run(context.Background(), restaurantsFixture(), SpendingParams{Category: "рестораны", Date: "invalid_date"})
	require.ErrorIs(t, err, common.ErrInvalidArgument)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, sink.saved)
}

func TestPersisted_NilSaver(t *testing.T) {
	ran := false
	inner := Report[NoParams, CardsSummary]{
		Name: "cards",
		Run: func(_ context.Context, _ model.Table, _ NoParams) (CardsSummary, error) {
			ran = true
			return nil, nil
		},
	}

	rep := Persisted(inner, nil, "")
	require.NotPanics(t, func() {
		got, err := rep.Run(context.Background(), operationsFixture(), NoParams{})
		require.ErrorIs(t, err, common.ErrInvalidArgument)
		assert.Nil(t, got)
	})
	assert.False(t, ran)
}

func TestSaver_NotifiesSinks(t *testing.T) {
	dir := t.TempDir()
	ok := &recordingSink{}
	failing := &recordingSink{err: errors.New("quota exceeded")}
	saver := NewSaver(dir, common.Discard(), WithSinks(failing, nil, ok), WithClock(fixedClock("05.03.2023")))

	r := newTestReporter("05.03.2023")
	saved, err := saver.Save(context.Background(), "top_transactions", "top.json", r.TopTransactions(operationsFixture()).Records())
	require.NoError(t, err, "sink failures must not fail the save")

	assert.Equal(t, filepath.Join(dir, "top.json"), saved.Path)
	assert.Equal(t, 3, saved.Rows)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "top_transactions", saved.Name)

	for _, sink := range []*recordingSink{failing, ok} {
		require.Len(t, sink.saved, 1)
		assert.Equal(t, saved, sink.saved[0])
		require.Len(t, sink.records[0], 3)
		date, _ := sink.records[0][0].Get(model.ColumnPaymentDate)
		assert.Equal(t, "01.01.2023", date)
	}
}

func TestSaver_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	sink := &recordingSink{}
	saver := NewSaver(blocker, common.Discard(), WithSinks(sink))
	r := newTestReporter("01.02.2023")

	rep := Persisted(r.CardCashbackReport(), saver, "cashback.json")
	got, err := rep.Run(context.Background(), operationsFixture(), NoParams{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "card_cashback")
	assert.Nil(t, got)
	assert.Empty(t, sink.saved)
}

func TestSaver_EmptyResult(t *testing.T) {
	dir := t.TempDir()
	saver := NewSaver(dir, common.Discard())

	_, err := saver.Save(context.Background(), "cards", "empty.json", nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "empty.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}
