package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Statement is the result of one month load.
type Statement struct {
	Year         int
	Month        time.Month
	Transactions []Transaction
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
}

// Row pairs a transaction with whether it opens a new day group.
type Row struct {
	Transaction Transaction
	NewGroup    bool
}

// NewStatement filters saved-cash entries, sorts by date and computes totals.
// The input slice is not modified.
func NewStatement(year int, month time.Month, txs []Transaction) Statement {
	list := FilterSavedCash(txs)
	SortByDate(list)
	income, expense := Totals(list)
	return Statement{
		Year:         year,
		Month:        month,
		Transactions: list,
		TotalIncome:  income,
		TotalExpense: expense,
	}
}

// EmptyStatement is a statement with no transactions and zero totals.
func EmptyStatement(year int, month time.Month) Statement {
	return NewStatement(year, month, nil)
}

// FilterSavedCash returns a new slice without saved-cash entries.
func FilterSavedCash(txs []Transaction) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if t.IsSavedCash() {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SortByDate sorts in place by ascending date; equal dates keep their order.
func SortByDate(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.Before(txs[j].Date)
	})
}

// Totals returns the income (sum of CREDIT amounts) and the expense
// (negated sum of DEBIT amounts).
func Totals(txs []Transaction) (income, expense decimal.Decimal) {
	income, expense = decimal.Zero, decimal.Zero
	for _, t := range txs {
		switch t.Type {
		case Credit:
			income = income.Add(t.Amount)
		case Debit:
			expense = expense.Sub(t.Amount)
		}
	}
	return income, expense
}

// GroupByDay marks the first transaction of every calendar day.
// txs must already be sorted by date.
func GroupByDay(txs []Transaction) []Row {
	rows := make([]Row, len(txs))
	for i, t := range txs {
		rows[i] = Row{
			Transaction: t,
			NewGroup:    i == 0 || !SameDay(t.Date, txs[i-1].Date),
		}
	}
	return rows
}

// Rows returns the day-grouped presentation rows of the statement.
func (s Statement) Rows() []Row {
	return GroupByDay(s.Transactions)
}

// IsEmpty reports whether the statement holds no transactions.
func (s Statement) IsEmpty() bool {
	return len(s.Transactions) == 0
}
