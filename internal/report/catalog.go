package report

import (
	"context"

	"github.com/Veraticus/the-cashback-must-flow/internal/model"
)

// SpendingReportFile is where the category spending report is saved by default.
const SpendingReportFile = "report_spending_by_category.json"

// NoParams is the parameter type of reports that only need the table.
type NoParams struct{}

// SpendingParams selects the category and reference date of SpendingReport.
type SpendingParams struct {
	Category string
	// Date is dd.mm.yyyy or ISO. Empty means today.
	Date string
}

// CardsReport returns CardsInfo as a Report.
func (r *Reporter) CardsReport() Report[NoParams, CardsSummary] {
	return Report[NoParams, CardsSummary]{
		Name:        "cards",
		Description: "Total spent per card",
		Run: func(_ context.Context, table model.Table, _ NoParams) (CardsSummary, error) {
			return r.CardsInfo(table), nil
		},
	}
}

// CardCashbackReport returns CardCashback as a Report.
func (r *Reporter) CardCashbackReport() Report[NoParams, CardsCashback] {
	return Report[NoParams, CardsCashback]{
		Name:        "card_cashback",
		Description: "Cashback earned per card",
		Run: func(_ context.Context, table model.Table, _ NoParams) (CardsCashback, error) {
			return r.CardCashback(table), nil
		},
	}
}

// TopReport returns TopTransactions as a Report.
func (r *Reporter) TopReport() Report[NoParams, TopTransactions] {
	return Report[NoParams, TopTransactions]{
		Name:        "top_transactions",
		Description: "Five largest expenses",
		Run: func(_ context.Context, table model.Table, _ NoParams) (TopTransactions, error) {
			return r.TopTransactions(table), nil
		},
	}
}

// SpendingReport returns SpendingByCategory as a Report.
func (r *Reporter) SpendingReport() Report[SpendingParams, model.Table] {
	return Report[SpendingParams, model.Table]{
		Name:        "spending_by_category",
		Description: "Expenses in one category over the last three months",
		Run: func(_ context.Context, table model.Table, params SpendingParams) (model.Table, error) {
			return r.SpendingByCategory(table, params.Category, params.Date)
		},
	}
}
