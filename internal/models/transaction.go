package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a manual cash-movement submission.
type TransactionType string

const (
	TransactionIncome   TransactionType = "income"
	TransactionExpense  TransactionType = "expense"
	TransactionTransfer TransactionType = "transfer"
)

// ParseTransactionType validates a transaction type name.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(s) {
	case TransactionIncome, TransactionExpense, TransactionTransfer:
		return TransactionType(s), nil
	}
	return "", fmt.Errorf("%w: unknown transaction type %q", ErrInvalidInput, s)
}

// Transaction is a cash movement as submitted by the surrounding application,
// in its original currency, before classification and base normalization.
type Transaction struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    Currency        `json:"currency"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
}
