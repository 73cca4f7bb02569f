package model

// Table is an ordered set of transactions as read from the bank export.
// Reports borrow a Table read-only; any derived data lives in new values.
type Table []Transaction

// Clone returns an independent copy of the table, including cashback values.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}

	out := make(Table, len(t))
	for i, row := range t {
		if row.Cashback != nil {
			row.Cashback = Float(*row.Cashback)
		}
		out[i] = row
	}
	return out
}

// Filter returns the rows for which keep is true, preserving order.
func (t Table) Filter(keep func(Transaction) bool) Table {
	out := make(Table, 0, len(t))
	for _, row := range t {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}

// Records renders the table with the export's column headers.
func (t Table) Records() []Record {
	records := make([]Record, 0, len(t))
	for _, row := range t {
		var cashback any
		if row.Cashback != nil {
			cashback = *row.Cashback
		}
		records = append(records, Record{
			{Name: ColumnPaymentDate, Value: row.PaymentDate},
			{Name: ColumnAmount, Value: row.Amount},
			{Name: ColumnStatus, Value: row.Status},
			{Name: ColumnCategory, Value: row.Category},
			{Name: ColumnCardNumber, Value: optionalString(row.CardNumber)},
			{Name: ColumnDescription, Value: row.Description},
			{Name: ColumnCashback, Value: cashback},
		})
	}
	return records
}

func optionalString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
