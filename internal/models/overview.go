package models

import "github.com/shopspring/decimal"

// LedgerOverview is the single mutable net-worth aggregate per user. It is
// the only persisted stateful record of the ledger core; all mutation goes
// through the accumulator's transactional wrapper.
type LedgerOverview struct {
	TotalBalance  decimal.Decimal `json:"total_balance"`
	MonthlyIncome decimal.Decimal `json:"monthly_income"`
	MonthlySpent  decimal.Decimal `json:"monthly_spent"`
	IncomeBudget  decimal.Decimal `json:"income_budget"`
	ExpenseBudget decimal.Decimal `json:"expense_budget"`
}
