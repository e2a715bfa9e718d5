package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"extrato/internal/core"
)

func statement() core.Statement {
	food := "Mercado"
	return core.NewStatement(2024, time.March, []core.Transaction{
		{ID: "t1", Description: "Pix recebido", Type: core.Credit, Amount: decimal.RequireFromString("1250"), Date: time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)},
		{ID: "t2", Description: "Padaria", Category: &food, Type: core.Debit, Amount: decimal.RequireFromString("40"), Date: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)},
		{ID: "t3", Description: "Feira", Category: &food, Type: core.Debit, Amount: decimal.RequireFromString("15.5"), Date: time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)},
	})
}

func TestNewJSONStatement(t *testing.T) {
	out := NewJSONStatement(statement())

	assert.Equal(t, 2024, out.Year)
	assert.Equal(t, 3, out.Month)
	assert.Equal(t, "Março", out.MonthLabel)
	assert.Equal(t, 3, out.Count)
	assert.Equal(t, "1250.00", out.TotalIncome)
	assert.Equal(t, "-55.50", out.TotalExpense)

	require.Len(t, out.Rows, 3)
	assert.Equal(t, "t2", out.Rows[0].ID)
	assert.True(t, out.Rows[0].NewGroup)
	assert.Equal(t, "01 MAR", out.Rows[0].Day)
	assert.Equal(t, "-R$ 40,00", out.Rows[0].Display)
	assert.Equal(t, "Mercado", out.Rows[0].Category)
	assert.False(t, out.Rows[1].NewGroup)
	assert.True(t, out.Rows[2].NewGroup)
	assert.Equal(t, "R$ 1.250,00", out.Rows[2].Display)
}

func TestNewJSONStatement_EmptyRowsIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintStatementJSON(&buf, core.EmptyStatement(2024, time.July)))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, []any{}, decoded["rows"])
	assert.Equal(t, "0.00", decoded["totalIncome"])
	assert.Equal(t, "Julho", decoded["monthLabel"])
}

func TestPrintStatementTable(t *testing.T) {
	var buf bytes.Buffer
	PrintStatementTable(&buf, statement(), TableOptions{})
	out := buf.String()

	assert.Contains(t, out, "Março 2024 (3 transações)")
	assert.Contains(t, out, "01 MAR")
	assert.Contains(t, out, "05 MAR")
	assert.Equal(t, 1, strings.Count(out, "01 MAR"), "day label only on the first row of a group")
	assert.Contains(t, out, "-R$ 15,50")
	assert.Contains(t, out, "Renda")
	assert.Contains(t, out, "R$ 1.250,00")
	assert.Contains(t, out, "Gasto")
	assert.Contains(t, out, "R$ -55,50")
	assert.Less(t, strings.Index(out, "Padaria"), strings.Index(out, "Feira"))
	assert.Less(t, strings.Index(out, "Feira"), strings.Index(out, "Pix recebido"))
}

func TestPrintStatementTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	PrintStatementTable(&buf, core.EmptyStatement(2024, time.February), TableOptions{Color: true})

	assert.Equal(t, "Fevereiro 2024: nenhuma transação\nRenda R$ 0,00 | Gasto R$ 0,00\n", buf.String())
}
