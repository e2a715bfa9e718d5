// Package memory serves accounts and transactions from memory or a JSON
// fixture file. It backs local development and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"extrato/internal/core"
	"extrato/internal/pluggy"
)

// Fixture is the on-disk format read by NewFromFile.
type Fixture struct {
	Items        map[string][]core.Account     `json:"items"`
	Transactions map[string][]core.Transaction `json:"transactions"`
}

type Store struct {
	mu           sync.Mutex
	accounts     map[string][]core.Account
	transactions map[string][]core.Transaction
	failures     map[string]error
	calls        int
}

var _ pluggy.Service = (*Store)(nil)

func New() *Store {
	return &Store{
		accounts:     map[string][]core.Account{},
		transactions: map[string][]core.Transaction{},
		failures:     map[string]error{},
	}
}

// NewFromFile loads a Fixture from path.
func NewFromFile(path string) (*Store, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var fx Fixture
	if err := json.Unmarshal(b, &fx); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	s := New()
	for itemID, accounts := range fx.Items {
		s.AddAccounts(itemID, accounts...)
	}
	for accountID, txs := range fx.Transactions {
		s.AddTransactions(accountID, txs...)
	}
	return s, nil
}

// AddAccounts links accounts to an item.
func (s *Store) AddAccounts(itemID string, accounts ...core.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range accounts {
		a.ItemID = itemID
		s.accounts[itemID] = append(s.accounts[itemID], a)
	}
}

// AddTransactions appends transactions to an account.
func (s *Store) AddTransactions(accountID string, txs ...core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range txs {
		t.AccountID = accountID
		s.transactions[accountID] = append(s.transactions[accountID], t)
	}
}

// Fail makes every request for the given item or account id return err.
func (s *Store) Fail(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[id] = err
}

// Calls returns the number of requests served so far.
func (s *Store) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Store) FetchAccounts(ctx context.Context, itemID string) (pluggy.AccountPage, error) {
	if err := ctx.Err(); err != nil {
		return pluggy.AccountPage{}, &pluggy.FetchError{Op: "fetch accounts", Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if err := s.failures[itemID]; err != nil {
		return pluggy.AccountPage{}, &pluggy.FetchError{Op: "fetch accounts", Err: err}
	}
	accounts := append([]core.Account(nil), s.accounts[itemID]...)
	return pluggy.AccountPage{Total: len(accounts), TotalPages: 1, Page: 1, Results: accounts}, nil
}

func (s *Store) FetchTransactions(ctx context.Context, accountID string, q pluggy.TransactionQuery) (pluggy.TransactionPage, error) {
	if err := ctx.Err(); err != nil {
		return pluggy.TransactionPage{}, &pluggy.FetchError{Op: "fetch transactions", Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if err := s.failures[accountID]; err != nil {
		return pluggy.TransactionPage{}, &pluggy.FetchError{Op: "fetch transactions", Err: err}
	}

	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = pluggy.DefaultPageSize
	}

	var out []core.Transaction
	for _, t := range s.transactions[accountID] {
		d := t.Date.Format(core.DateLayout)
		if q.From != "" && d < q.From {
			continue
		}
		if q.To != "" && d > q.To {
			continue
		}
		out = append(out, t)
	}
	total := len(out)
	if len(out) > pageSize {
		out = out[:pageSize]
	}
	return pluggy.TransactionPage{Total: total, TotalPages: 1, Page: 1, Results: out}, nil
}
