package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Credit TransactionType = "CREDIT"
	Debit  TransactionType = "DEBIT"
)

// SavedCashDescription marks internal "saved cash" bookkeeping entries.
// They are not real transactions and never reach a statement.
const SavedCashDescription = "Dinheiro guardado"

type (
	TransactionType string

	// Account belongs to a linked item (a financial institution connection).
	Account struct {
		ID           string          `json:"id"`
		ItemID       string          `json:"itemId"`
		Name         string          `json:"name"`
		Type         string          `json:"type"`
		Subtype      string          `json:"subtype,omitempty"`
		Number       string          `json:"number,omitempty"`
		Balance      decimal.Decimal `json:"balance"`
		CurrencyCode string          `json:"currencyCode,omitempty"`
	}

	Transaction struct {
		ID           string          `json:"id"`
		AccountID    string          `json:"accountId,omitempty"`
		Description  string          `json:"description"`
		Category     *string         `json:"category,omitempty"`
		Amount       decimal.Decimal `json:"amount"`
		Type         TransactionType `json:"type"`
		Date         time.Time       `json:"date"`
		CurrencyCode string          `json:"currencyCode,omitempty"`
	}
)

var (
	ErrInvalidMonth = errors.New("invalid month")
	ErrEmptyItemID  = errors.New("empty item id")
)

func (t TransactionType) IsValid() bool {
	return t == Credit || t == Debit
}

// IsSavedCash reports whether the transaction is a saved-cash bookkeeping entry.
// The match is exact: case and surrounding whitespace matter.
func (t Transaction) IsSavedCash() bool {
	return t.Description == SavedCashDescription
}

// CategoryName returns the category or "" when the transaction has none.
func (t Transaction) CategoryName() string {
	if t.Category == nil {
		return ""
	}
	return *t.Category
}

// ValidateMonth checks that m is in 1..12.
func ValidateMonth(m int) error {
	if m < 1 || m > 12 {
		return fmt.Errorf("%w: %d", ErrInvalidMonth, m)
	}
	return nil
}

// ValidateItemIDs rejects blank item identifiers.
func ValidateItemIDs(ids []string) error {
	for i, id := range ids {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w at position %d", ErrEmptyItemID, i)
		}
	}
	return nil
}
