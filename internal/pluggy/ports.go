// Package pluggy defines the outbound ports for the financial data aggregation
// API and an HTTP adapter for it.
package pluggy

import (
	"context"
	"errors"
	"fmt"

	"extrato/internal/core"
)

// DefaultPageSize is the number of transactions requested per account and load.
const DefaultPageSize = 500

// ErrFetchFailure is wrapped by every failed account or transaction request.
var ErrFetchFailure = errors.New("fetch failure")

type (
	AccountPage struct {
		Total      int            `json:"total"`
		TotalPages int            `json:"totalPages"`
		Page       int            `json:"page"`
		Results    []core.Account `json:"results"`
	}

	TransactionPage struct {
		Total      int                `json:"total"`
		TotalPages int                `json:"totalPages"`
		Page       int                `json:"page"`
		Results    []core.Transaction `json:"results"`
	}

	// TransactionQuery bounds a transaction request. From and To are
	// calendar dates formatted as core.DateLayout.
	TransactionQuery struct {
		PageSize int
		From     string
		To       string
	}
)

// Ports for outbound adapters.
type (
	AccountFetcher interface {
		FetchAccounts(ctx context.Context, itemID string) (AccountPage, error)
	}

	TransactionFetcher interface {
		FetchTransactions(ctx context.Context, accountID string, q TransactionQuery) (TransactionPage, error)
	}

	Service interface {
		AccountFetcher
		TransactionFetcher
	}
)

// FetchError describes a failed request against the aggregation API.
type FetchError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("pluggy %s: %v", e.Op, e.Err)
	case e.Body != "":
		return fmt.Sprintf("pluggy %s: status %d: %s", e.Op, e.Status, e.Body)
	default:
		return fmt.Sprintf("pluggy %s: status %d", e.Op, e.Status)
	}
}

func (e *FetchError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrFetchFailure, e.Err}
	}
	return []error{ErrFetchFailure}
}
