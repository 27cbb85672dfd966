package budget

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestEvaluateTiers(t *testing.T) {
	cases := []struct {
		current string
		budget  string
		want    Tier
	}{
		{"0", "1000", TierNone},
		{"799.99", "1000", TierNone},
		{"800", "1000", TierWarn80},
		{"899.99", "1000", TierWarn80},
		{"900", "1000", TierWarn90},
		{"999.99", "1000", TierWarn90},
		{"1000", "1000", TierLimit100},
		{"1500", "1000", TierLimit100},
	}
	for _, tc := range cases {
		got := Evaluate(decimal.RequireFromString(tc.current), decimal.RequireFromString(tc.budget))
		if got != tc.want {
			t.Errorf("Evaluate(%s, %s) = %s, want %s", tc.current, tc.budget, got, tc.want)
		}
	}
}

func TestEvaluateZeroBudgetNeverAlerts(t *testing.T) {
	for _, current := range []string{"0", "1", "100000", "-5"} {
		if got := Evaluate(decimal.RequireFromString(current), decimal.Zero); got != TierNone {
			t.Errorf("Evaluate(%s, 0) = %s, want none", current, got)
		}
	}
}
