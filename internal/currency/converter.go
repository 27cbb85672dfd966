// Package currency normalizes monetary amounts between the supported
// currencies using a rate table of base units per foreign unit.
package currency

import (
	"errors"
	"fmt"

	"github.com/Dan9191/ledger-service/internal/models"
	"github.com/shopspring/decimal"
)

// ErrRateNotFound is returned when a non-base currency has no entry in a
// non-empty rate table. A silent fallback here would corrupt the ledger.
var ErrRateNotFound = errors.New("rate not found")

// Convert normalizes amount from one currency to another through the base
// currency. Same-currency conversion is the identity and never rounds. An
// entirely empty table is the bootstrap state before the first rate refresh
// and falls back to the identity rate; a missing entry in a populated table
// is an error.
func Convert(amount decimal.Decimal, from, to models.Currency, rates models.RateTable) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	if rates.Empty() {
		return amount, nil
	}

	base := amount
	if !from.IsBase() {
		rate, ok := rates[from]
		if !ok || rate.LessThanOrEqual(decimal.Zero) {
			return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrRateNotFound, from)
		}
		base = amount.Mul(rate)
	}
	if to.IsBase() {
		return base, nil
	}

	rate, ok := rates[to]
	if !ok || rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrRateNotFound, to)
	}
	return base.Div(rate), nil
}

// ToBase converts an amount to the base currency and rounds it to the base
// currency's smallest unit, ready for the ledger.
func ToBase(amount decimal.Decimal, from models.Currency, rates models.RateTable) (decimal.Decimal, error) {
	converted, err := Convert(amount, from, models.BaseCurrency, rates)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return models.BaseCurrency.Round(converted), nil
}
