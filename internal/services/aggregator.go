package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"extrato/internal/core"
	applog "extrato/internal/log"
	"extrato/internal/pluggy"
)

// AggregatorConfig tunes a month load.
type AggregatorConfig struct {
	// PageSize is the number of transactions requested per account (default 500).
	PageSize int

	// Location decides month boundaries and calendar days (default time.Local).
	Location *time.Location

	// MaxParallel bounds in-flight requests per fan-out; zero means unbounded.
	MaxParallel int

	// Now returns the current time; the window always lies in its year.
	Now func() time.Time
}

// DefaultAggregatorConfig returns the production defaults.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		PageSize: pluggy.DefaultPageSize,
		Location: time.Local,
		Now:      time.Now,
	}
}

// Aggregator builds month statements from the aggregation API.
type Aggregator struct {
	accounts     pluggy.AccountFetcher
	transactions pluggy.TransactionFetcher
	config       AggregatorConfig
}

func NewAggregator(accounts pluggy.AccountFetcher, transactions pluggy.TransactionFetcher, config AggregatorConfig) *Aggregator {
	if config.PageSize <= 0 {
		config.PageSize = pluggy.DefaultPageSize
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Aggregator{accounts: accounts, transactions: transactions, config: config}
}

// Year returns the year month loads are placed in.
func (a *Aggregator) Year() int {
	return a.config.Now().In(a.config.Location).Year()
}

// LoadMonth fetches every account of itemIDs and their transactions for month
// of the current year, then returns the filtered, sorted and totalled statement.
// Any failed request fails the whole load.
func (a *Aggregator) LoadMonth(ctx context.Context, month time.Month, itemIDs []string) (core.Statement, error) {
	if err := core.ValidateMonth(int(month)); err != nil {
		return core.Statement{}, err
	}
	if err := core.ValidateItemIDs(itemIDs); err != nil {
		return core.Statement{}, err
	}

	year := a.Year()
	if len(itemIDs) == 0 {
		return core.EmptyStatement(year, month), nil
	}

	start := time.Now()
	window := core.MonthWindow(year, month, a.config.Location)

	accounts, err := a.fetchAccounts(ctx, itemIDs)
	if err != nil {
		return core.Statement{}, err
	}

	txs, err := a.fetchTransactions(ctx, accounts, window)
	if err != nil {
		return core.Statement{}, err
	}

	for i := range txs {
		txs[i].Date = txs[i].Date.In(a.config.Location)
	}
	st := core.NewStatement(year, month, txs)

	applog.ForComponent(applog.ComponentAggregator).InfoContext(ctx, "Month loaded",
		applog.FieldOperation, applog.OpLoad,
		applog.FieldYear, year,
		applog.FieldMonth, int(month),
		applog.FieldItems, len(itemIDs),
		applog.FieldAccounts, len(accounts),
		"fetched", len(txs),
		applog.FieldCount, len(st.Transactions),
		applog.FieldDuration, time.Since(start).Milliseconds())

	return st, nil
}

func (a *Aggregator) fetchAccounts(ctx context.Context, itemIDs []string) ([]core.Account, error) {
	pages := make([][]core.Account, len(itemIDs))

	g, gctx := errgroup.WithContext(ctx)
	if a.config.MaxParallel > 0 {
		g.SetLimit(a.config.MaxParallel)
	}
	for i, id := range itemIDs {
		g.Go(func() error {
			page, err := a.accounts.FetchAccounts(gctx, id)
			if err != nil {
				return fmt.Errorf("fetch accounts for item %s: %w", id, err)
			}
			pages[i] = page.Results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var accounts []core.Account
	for _, p := range pages {
		accounts = append(accounts, p...)
	}
	return accounts, nil
}

func (a *Aggregator) fetchTransactions(ctx context.Context, accounts []core.Account, window core.Window) ([]core.Transaction, error) {
	pages := make([][]core.Transaction, len(accounts))
	query := pluggy.TransactionQuery{
		PageSize: a.config.PageSize,
		From:     window.From(),
		To:       window.To(),
	}

	g, gctx := errgroup.WithContext(ctx)
	if a.config.MaxParallel > 0 {
		g.SetLimit(a.config.MaxParallel)
	}
	for i, acc := range accounts {
		g.Go(func() error {
			page, err := a.transactions.FetchTransactions(gctx, acc.ID, query)
			if err != nil {
				return fmt.Errorf("fetch transactions for account %s: %w", acc.ID, err)
			}
			pages[i] = page.Results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var txs []core.Transaction
	for _, p := range pages {
		txs = append(txs, p...)
	}
	return txs, nil
}
