package google

import (
	"fmt"
	"time"

	"extrato/internal/core"
)

var header = []interface{}{"Data", "Descrição", "Categoria", "Tipo", "Valor"}

// SheetName is the tab a month is exported to: "2024-03", or "Extrato 2024-03"
// with a prefix.
func SheetName(prefix string, year int, month time.Month) string {
	name := fmt.Sprintf("%04d-%02d", year, int(month))
	if prefix == "" {
		return name
	}
	return prefix + " " + name
}

// statementRows lays out st as header, one row per transaction with signed
// amounts, a blank row and the two totals.
func statementRows(st core.Statement) [][]interface{} {
	rows := make([][]interface{}, 0, len(st.Transactions)+4)
	rows = append(rows, header)

	for _, t := range st.Transactions {
		amount := t.Amount.Abs()
		if t.Type == core.Debit {
			amount = amount.Neg()
		}
		rows = append(rows, []interface{}{
			t.Date.Format(core.DateLayout),
			t.Description,
			t.CategoryName(),
			string(t.Type),
			amount.InexactFloat64(),
		})
	}

	rows = append(rows,
		[]interface{}{},
		[]interface{}{"Renda", st.TotalIncome.InexactFloat64()},
		[]interface{}{"Gasto", st.TotalExpense.InexactFloat64()},
	)
	return rows
}
