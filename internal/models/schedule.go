package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleEntry represents one monthly period of an amortization schedule.
type ScheduleEntry struct {
	PeriodIndex      int             `json:"period_index"`
	Date             time.Time       `json:"date"`
	Payment          decimal.Decimal `json:"payment"`
	Interest         decimal.Decimal `json:"interest"`
	PrincipalPortion decimal.Decimal `json:"principal_portion"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// LoanState is the present-day state of a loan derived from its parameters
// and the current date, without replaying past periods live.
type LoanState struct {
	ElapsedMonths    int             `json:"elapsed_months"`
	CurrentRemaining decimal.Decimal `json:"current_remaining"`
	// NextPaymentDate is nil once the loan is fully repaid.
	NextPaymentDate *time.Time `json:"next_payment_date,omitempty"`
	// IsHistorical is true when the loan started before today. Consumers use
	// it to decide whether opening the account should also inject the
	// origination cash: a backdated loan must not re-inject money that was
	// already spent in the past.
	IsHistorical bool `json:"is_historical"`
}

// DepositState is the present-day state of a deposit.
type DepositState struct {
	ElapsedMonths   int             `json:"elapsed_months"`
	CurrentAmount   decimal.Decimal `json:"current_amount"`
	AccruedInterest decimal.Decimal `json:"accrued_interest"`
}
