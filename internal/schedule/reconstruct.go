package schedule

import (
	"fmt"
	"time"

	"github.com/Dan9191/ledger-service/internal/models"
	"github.com/shopspring/decimal"
)

// ReconstructLoan derives where a loan should stand at the given moment:
// elapsed whole calendar months since the start date (clamped to the term),
// the remaining balance after the payments that should already have
// happened, and the next payment date if any.
func ReconstructLoan(loan *models.LoanAccount, now time.Time) (*models.LoanState, error) {
	entries, err := Generate(loan)
	if err != nil {
		return nil, err
	}

	elapsed := clampMonths(MonthsBetween(loan.StartDate, now), loan.TermMonths)
	state := &models.LoanState{
		ElapsedMonths: elapsed,
		IsHistorical:  elapsed > 0,
	}

	switch {
	case elapsed == 0:
		state.CurrentRemaining = loan.Principal
		state.NextPaymentDate = &entries[0].Date
	case elapsed >= loan.TermMonths:
		state.CurrentRemaining = decimal.Zero
	default:
		state.CurrentRemaining = entries[elapsed-1].RemainingBalance
		state.NextPaymentDate = &entries[elapsed].Date
	}
	return state, nil
}

// ReconstructDeposit derives a deposit's present-day amount and accrued
// interest. A compounding deposit grows geometrically; otherwise interest
// accrues linearly as a separate pool while the principal stays fixed.
func ReconstructDeposit(dep *models.DepositAccount, now time.Time) (*models.DepositState, error) {
	if dep == nil {
		return nil, fmt.Errorf("%w: nil deposit", models.ErrInvalidInput)
	}
	if dep.TermMonths <= 0 {
		return nil, fmt.Errorf("%w: term must be at least one month", models.ErrInvalidInput)
	}
	if dep.Principal.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: principal must be positive", models.ErrInvalidInput)
	}

	elapsed := clampMonths(MonthsBetween(dep.StartDate, now), dep.TermMonths)
	monthlyRate := dep.AnnualRatePercent.Div(percentMonths)
	round := dep.Currency.Round

	state := &models.DepositState{ElapsedMonths: elapsed}
	if dep.Compounding {
		state.CurrentAmount = round(dep.Principal.Mul(one.Add(monthlyRate).Pow(decimal.NewFromInt(int64(elapsed)))))
		state.AccruedInterest = state.CurrentAmount.Sub(dep.Principal)
	} else {
		state.AccruedInterest = round(dep.Principal.Mul(monthlyRate).Mul(decimal.NewFromInt(int64(elapsed))))
		state.CurrentAmount = dep.Principal
	}
	return state, nil
}

// MonthlyInterest returns one month of interest on the given balance, rounded
// to the currency's smallest unit. Shared by the scheduled accrual job.
func MonthlyInterest(balance, annualRatePercent decimal.Decimal, cur models.Currency) decimal.Decimal {
	return cur.Round(balance.Mul(annualRatePercent.Div(percentMonths)))
}

// DepositBalance returns a deposit's balance after the given number of
// completed months. Only a compounding deposit grows; simple interest lives in
// a separate pool and leaves the principal fixed.
func DepositBalance(dep *models.DepositAccount, months int) decimal.Decimal {
	if !dep.Compounding || months <= 0 {
		return dep.Principal
	}
	monthlyRate := dep.AnnualRatePercent.Div(percentMonths)
	return dep.Currency.Round(dep.Principal.Mul(one.Add(monthlyRate).Pow(decimal.NewFromInt(int64(months)))))
}

// MonthsBetween counts whole calendar months from start to now. The month
// increments on the start date's day-of-month, not after 30 elapsed days.
func MonthsBetween(start, now time.Time) int {
	if now.Before(start) {
		return 0
	}
	months := (now.Year()-start.Year())*12 + int(now.Month()) - int(start.Month())
	if now.Day() < start.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

func clampMonths(months, term int) int {
	if months > term {
		return term
	}
	return months
}
