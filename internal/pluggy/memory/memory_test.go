package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"extrato/internal/core"
	"extrato/internal/pluggy"
)

func TestStore_WindowAndPageSize(t *testing.T) {
	s := New()
	s.AddAccounts("item", core.Account{ID: "acc"})
	for d := 1; d <= 5; d++ {
		s.AddTransactions("acc", core.Transaction{
			ID:     string(rune('a' + d)),
			Amount: decimal.NewFromInt(int64(d)),
			Type:   core.Debit,
			Date:   time.Date(2024, 3, d, 10, 0, 0, 0, time.UTC),
		})
	}
	s.AddTransactions("acc", core.Transaction{ID: "april", Date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)})

	ctx := context.Background()
	accounts, err := s.FetchAccounts(ctx, "item")
	require.NoError(t, err)
	require.Len(t, accounts.Results, 1)
	assert.Equal(t, "item", accounts.Results[0].ItemID)

	page, err := s.FetchTransactions(ctx, "acc", pluggy.TransactionQuery{PageSize: 3, From: "2024-03-01", To: "2024-03-31"})
	require.NoError(t, err)
	assert.Len(t, page.Results, 3)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 2, s.Calls())
}

func TestStore_Fail(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	s.Fail("item", boom)

	_, err := s.FetchAccounts(context.Background(), "item")
	assert.ErrorIs(t, err, pluggy.ErrFetchFailure)
	assert.ErrorIs(t, err, boom)
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	data := `{
		"items": {"item-1": [{"id": "acc-1", "name": "Conta"}]},
		"transactions": {"acc-1": [
			{"id": "t1", "description": "Pix", "amount": 12.5, "type": "CREDIT", "date": "2024-03-02T00:00:00Z"}
		]}
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	s, err := NewFromFile(path)
	require.NoError(t, err)

	page, err := s.FetchTransactions(context.Background(), "acc-1", pluggy.TransactionQuery{From: "2024-03-01", To: "2024-03-31"})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "acc-1", page.Results[0].AccountID)

	_, err = NewFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
