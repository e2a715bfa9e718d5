package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func tx(id string, date time.Time, typ TransactionType, amount int64) Transaction {
	return Transaction{
		ID:          id,
		Description: "tx " + id,
		Amount:      decimal.NewFromInt(amount),
		Type:        typ,
		Date:        date,
	}
}

func TestNewStatement_SortsAndTotals(t *testing.T) {
	in := []Transaction{
		tx("a", day(2024, 3, 5, 0), Credit, 100),
		tx("b", day(2024, 3, 1, 0), Debit, 40),
	}

	st := NewStatement(2024, time.March, in)

	if len(st.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(st.Transactions))
	}
	if st.Transactions[0].ID != "b" || st.Transactions[1].ID != "a" {
		t.Fatalf("unexpected order: %s, %s", st.Transactions[0].ID, st.Transactions[1].ID)
	}
	if !st.TotalIncome.Equal(decimal.NewFromInt(100)) {
		t.Errorf("TotalIncome = %s, want 100", st.TotalIncome)
	}
	if !st.TotalExpense.Equal(decimal.NewFromInt(-40)) {
		t.Errorf("TotalExpense = %s, want -40", st.TotalExpense)
	}
	// input untouched
	if in[0].ID != "a" {
		t.Errorf("input slice was reordered")
	}
}

func TestNewStatement_ExcludesSavedCash(t *testing.T) {
	saved := tx("s", day(2024, 3, 2, 0), Debit, 500)
	saved.Description = SavedCashDescription
	in := []Transaction{
		tx("a", day(2024, 3, 1, 0), Credit, 100),
		saved,
		tx("b", day(2024, 3, 3, 0), Debit, 30),
	}

	st := NewStatement(2024, time.March, in)

	if len(st.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(st.Transactions))
	}
	for _, got := range st.Transactions {
		if got.ID == "s" {
			t.Fatalf("saved cash entry was not excluded")
		}
	}
	if !st.TotalIncome.Equal(decimal.NewFromInt(100)) {
		t.Errorf("TotalIncome = %s, want 100", st.TotalIncome)
	}
	if !st.TotalExpense.Equal(decimal.NewFromInt(-30)) {
		t.Errorf("TotalExpense = %s, want -30", st.TotalExpense)
	}
}

func TestFilterSavedCash_ExactMatchOnly(t *testing.T) {
	cases := []struct {
		desc string
		kept bool
	}{
		{"Dinheiro guardado", false},
		{"dinheiro guardado", true},
		{"DINHEIRO GUARDADO", true},
		{"Dinheiro guardado ", true},
		{" Dinheiro guardado", true},
		{"Dinheiro  guardado", true},
		{"Dinheiro guardado!", true},
		{"Pix recebido", true},
		{"", true},
	}
	for _, tc := range cases {
		in := []Transaction{{ID: "x", Description: tc.desc}}
		out := FilterSavedCash(in)
		if (len(out) == 1) != tc.kept {
			t.Errorf("description %q: kept=%v, want %v", tc.desc, len(out) == 1, tc.kept)
		}
	}
}

func TestSortByDate_StableOnTies(t *testing.T) {
	same := day(2024, 3, 10, 12)
	in := []Transaction{
		tx("late", day(2024, 3, 20, 0), Debit, 1),
		tx("first", same, Debit, 1),
		tx("second", same, Credit, 1),
		tx("early", day(2024, 3, 1, 0), Credit, 1),
		tx("third", same, Debit, 1),
	}
	SortByDate(in)

	want := []string{"early", "first", "second", "third", "late"}
	for i, id := range want {
		if in[i].ID != id {
			t.Fatalf("position %d: got %s, want %s", i, in[i].ID, id)
		}
	}
	for i := 1; i < len(in); i++ {
		if in[i].Date.Before(in[i-1].Date) {
			t.Fatalf("not ascending at %d", i)
		}
	}
}

func TestTotals_EmptySubsets(t *testing.T) {
	income, expense := Totals(nil)
	if !income.IsZero() || !expense.IsZero() {
		t.Fatalf("expected zero totals, got %s / %s", income, expense)
	}

	onlyCredit := []Transaction{tx("a", day(2024, 1, 1, 0), Credit, 10), tx("b", day(2024, 1, 2, 0), Credit, 5)}
	income, expense = Totals(onlyCredit)
	if !income.Equal(decimal.NewFromInt(15)) || !expense.IsZero() {
		t.Fatalf("got %s / %s, want 15 / 0", income, expense)
	}

	onlyDebit := []Transaction{tx("a", day(2024, 1, 1, 0), Debit, 10), tx("b", day(2024, 1, 2, 0), Debit, 5)}
	income, expense = Totals(onlyDebit)
	if !income.IsZero() || !expense.Equal(decimal.NewFromInt(-15)) {
		t.Fatalf("got %s / %s, want 0 / -15", income, expense)
	}
}

func TestTotals_DecimalPrecision(t *testing.T) {
	txs := []Transaction{
		{Type: Credit, Amount: decimal.RequireFromString("0.1")},
		{Type: Credit, Amount: decimal.RequireFromString("0.2")},
		{Type: Debit, Amount: decimal.RequireFromString("10.05")},
	}
	income, expense := Totals(txs)
	if !income.Equal(decimal.RequireFromString("0.3")) {
		t.Errorf("income = %s, want 0.3", income)
	}
	if !expense.Equal(decimal.RequireFromString("-10.05")) {
		t.Errorf("expense = %s, want -10.05", expense)
	}
}

func TestGroupByDay(t *testing.T) {
	in := []Transaction{
		tx("a", day(2024, 3, 1, 8), Debit, 1),
		tx("b", day(2024, 3, 1, 22), Credit, 1),
		tx("c", day(2024, 3, 2, 0), Debit, 1),
	}
	rows := GroupByDay(in)

	want := []bool{true, false, true}
	boundaries := 0
	for i, r := range rows {
		if r.NewGroup != want[i] {
			t.Errorf("row %d: NewGroup = %v, want %v", i, r.NewGroup, want[i])
		}
		if r.NewGroup {
			boundaries++
		}
	}
	if boundaries != 2 {
		t.Errorf("expected 2 boundaries, got %d", boundaries)
	}
}

func TestGroupByDay_Empty(t *testing.T) {
	if rows := GroupByDay(nil); len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestMonthWindow(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		from  string
		to    string
	}{
		{2024, time.February, "2024-02-01", "2024-02-29"},
		{2023, time.February, "2023-02-01", "2023-02-28"},
		{2024, time.December, "2024-12-01", "2024-12-31"},
		{2024, time.April, "2024-04-01", "2024-04-30"},
	}
	for _, tc := range cases {
		w := MonthWindow(tc.year, tc.month, time.UTC)
		if w.From() != tc.from || w.To() != tc.to {
			t.Errorf("%d-%d: got %s..%s, want %s..%s", tc.year, tc.month, w.From(), w.To(), tc.from, tc.to)
		}
		if !w.Contains(w.End) || w.Contains(w.End.Add(time.Nanosecond)) {
			t.Errorf("%d-%d: window end is not the last instant", tc.year, tc.month)
		}
	}
}

func TestValidateMonth(t *testing.T) {
	for m := 1; m <= 12; m++ {
		if err := ValidateMonth(m); err != nil {
			t.Errorf("month %d rejected: %v", m, err)
		}
	}
	for _, m := range []int{0, 13, -1} {
		if err := ValidateMonth(m); err == nil {
			t.Errorf("month %d accepted", m)
		}
	}
}

func TestValidateItemIDs(t *testing.T) {
	if err := ValidateItemIDs(nil); err != nil {
		t.Fatalf("empty list rejected: %v", err)
	}
	if err := ValidateItemIDs([]string{"a", " "}); err == nil {
		t.Fatal("blank id accepted")
	}
}

func TestMonthLabelAndDayHeader(t *testing.T) {
	if got := MonthLabel(time.March); got != "Março" {
		t.Errorf("MonthLabel(March) = %q", got)
	}
	if got := DayHeader(day(2024, 3, 5, 10)); got != "05 MAR" {
		t.Errorf("DayHeader = %q", got)
	}
}
