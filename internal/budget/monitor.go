// Package budget maps spending or earning progress against a budget to an
// alert tier.
package budget

import "github.com/shopspring/decimal"

// Tier is the alert level for a current/budget ratio.
type Tier int

const (
	TierNone Tier = iota
	TierWarn80
	TierWarn90
	TierLimit100
)

func (t Tier) String() string {
	switch t {
	case TierWarn80:
		return "warn80"
	case TierWarn90:
		return "warn90"
	case TierLimit100:
		return "limit100"
	}
	return "none"
}

var (
	threshold80  = decimal.RequireFromString("0.8")
	threshold90  = decimal.RequireFromString("0.9")
	threshold100 = decimal.NewFromInt(1)
)

// Evaluate returns the highest tier whose threshold the current/budget ratio
// has reached. A zero or negative budget means "no budget set" and never
// alerts. Evaluation is level-triggered: the same tier fires again on every
// qualifying call, and de-duplication is left to the caller.
func Evaluate(current, budget decimal.Decimal) Tier {
	if budget.LessThanOrEqual(decimal.Zero) {
		return TierNone
	}
	ratio := current.Div(budget)
	switch {
	case ratio.GreaterThanOrEqual(threshold100):
		return TierLimit100
	case ratio.GreaterThanOrEqual(threshold90):
		return TierWarn90
	case ratio.GreaterThanOrEqual(threshold80):
		return TierWarn80
	}
	return TierNone
}
