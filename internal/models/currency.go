package models

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is one of the closed set of currencies the service operates with.
type Currency string

const (
	// BaseCurrency is the unit every ledger amount is normalized to.
	BaseCurrency Currency = "RUB"

	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyCNY Currency = "CNY"
)

// Currencies lists every supported currency, base first.
var Currencies = []Currency{BaseCurrency, CurrencyUSD, CurrencyEUR, CurrencyCNY}

// ParseCurrency validates a currency code against the supported set.
func ParseCurrency(code string) (Currency, error) {
	for _, c := range Currencies {
		if string(c) == code {
			return c, nil
		}
	}
	return "", fmt.Errorf("unsupported currency %q", code)
}

// IsBase reports whether the currency is the ledger base currency.
func (c Currency) IsBase() bool { return c == BaseCurrency }

// MinorUnits returns the number of fractional digits of the currency's
// smallest unit (2 for RUB, USD, EUR, CNY).
func (c Currency) MinorUnits() int32 {
	if cur := money.GetCurrency(string(c)); cur != nil {
		return int32(cur.Fraction)
	}
	return 2
}

// Round rounds an amount to the currency's smallest unit using
// round-half-even, the single rounding mode of the whole ledger.
func (c Currency) Round(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(c.MinorUnits())
}

// RateTable maps a foreign currency to units of base currency per one unit of
// the foreign currency. The base currency itself is never stored; lookups for
// it are always the identity rate.
type RateTable map[Currency]decimal.Decimal

// Empty reports whether the table carries no rates at all (bootstrap state,
// before the first successful provider refresh).
func (t RateTable) Empty() bool { return len(t) == 0 }
