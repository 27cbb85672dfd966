package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the sign of a cash movement.
type Direction string

const (
	Inflow  Direction = "inflow"
	Outflow Direction = "outflow"
)

// ClassifiedEvent is the atomic unit the ledger accumulator consumes: a cash
// movement already normalized to the base currency and classified by its
// effect on net worth.
//
// Transfer events move value between two views of the same net worth and
// must leave the overview untouched. LiabilityOrPrincipal marks borrowing
// inflows and principal repayments: they move cash but are neither profit
// nor loss, so they never touch the monthly income/expense figures.
type ClassifiedEvent struct {
	AmountInBase         decimal.Decimal `json:"amount_in_base"`
	Direction            Direction       `json:"direction"`
	LiabilityOrPrincipal bool            `json:"liability_or_principal"`
	Transfer             bool            `json:"transfer"`
	Description          string          `json:"description"`
	OccurredAt           time.Time       `json:"occurred_at"`
}
