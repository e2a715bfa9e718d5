package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"extrato/internal/core"
)

// TableOptions controls how a statement is displayed
type TableOptions struct {
	Color bool
}

// JSONStatement is the JSON output format for a statement. Amounts are
// decimal strings so no precision is lost.
type JSONStatement struct {
	Year         int       `json:"year"`
	Month        int       `json:"month"`
	MonthLabel   string    `json:"monthLabel"`
	Count        int       `json:"count"`
	TotalIncome  string    `json:"totalIncome"`
	TotalExpense string    `json:"totalExpense"`
	Rows         []JSONRow `json:"rows"`
}

// JSONRow is one transaction with its day-group marker.
type JSONRow struct {
	ID          string `json:"id"`
	AccountID   string `json:"accountId,omitempty"`
	Date        string `json:"date"`
	Day         string `json:"day"`
	NewGroup    bool   `json:"newGroup"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Display     string `json:"display"`
}

func NewJSONStatement(st core.Statement) JSONStatement {
	out := JSONStatement{
		Year:         st.Year,
		Month:        int(st.Month),
		MonthLabel:   core.MonthLabel(st.Month),
		Count:        len(st.Transactions),
		TotalIncome:  st.TotalIncome.StringFixed(2),
		TotalExpense: st.TotalExpense.StringFixed(2),
		Rows:         make([]JSONRow, 0, len(st.Transactions)),
	}
	for _, r := range st.Rows() {
		out.Rows = append(out.Rows, JSONRow{
			ID:          r.ID,
			AccountID:   r.AccountID,
			Date:        r.Date.Format(time.RFC3339),
			Day:         core.DayHeader(r.Date),
			NewGroup:    r.NewGroup,
			Description: r.Description,
			Category:    r.CategoryName(),
			Type:        string(r.Type),
			Amount:      r.Amount.StringFixed(2),
			Display:     core.SignedAmount(r.Transaction),
		})
	}
	return out
}

// PrintStatementJSON outputs the statement in JSON format
func PrintStatementJSON(w io.Writer, st core.Statement) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewJSONStatement(st))
}

// PrintStatementTable outputs the statement grouped by day, with a
// separator and a "DD MMM" label opening each day, followed by the totals.
func PrintStatementTable(w io.Writer, st core.Statement, opts TableOptions) {
	title := fmt.Sprintf("%s %d", core.MonthLabel(st.Month), st.Year)
	if st.IsEmpty() {
		fmt.Fprintf(w, "%s: nenhuma transação\n", title)
		fmt.Fprintf(w, "Renda %s | Gasto %s\n", core.FormatBRL(st.TotalIncome, false), core.FormatBRL(st.TotalExpense, false))
		return
	}

	fmt.Fprintf(w, "%s (%d transações)\n\n", title, len(st.Transactions))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Dia", "Descrição", "Categoria", "Valor"})

	for i, r := range st.Rows() {
		day := ""
		if r.NewGroup {
			if i > 0 {
				t.AppendSeparator()
			}
			day = core.DayHeader(r.Date)
		}
		amount := core.SignedAmount(r.Transaction)
		if opts.Color {
			if r.Type == core.Debit {
				amount = text.FgRed.Sprint(amount)
			} else {
				amount = text.FgGreen.Sprint(amount)
			}
		}
		t.AppendRow(table.Row{day, r.Description, r.CategoryName(), amount})
	}

	bold := func(s string) string {
		if opts.Color {
			return text.Bold.Sprint(s)
		}
		return s
	}
	t.AppendFooter(table.Row{"", "", bold("Renda"), bold(core.FormatBRL(st.TotalIncome, false))})
	t.AppendFooter(table.Row{"", "", bold("Gasto"), bold(core.FormatBRL(st.TotalExpense, false))})

	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})

	t.Render()
}
