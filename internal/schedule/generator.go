// Package schedule turns loan and deposit definitions into amortization
// schedules and reconstructs their present-day state from elapsed time.
package schedule

import (
	"fmt"

	"github.com/Dan9191/ledger-service/internal/models"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// monthsPerYear * 100 converts an annual percent rate to a monthly fraction.
var percentMonths = decimal.NewFromInt(1200)

// Generate produces the full period-by-period amortization schedule for a
// loan: exactly TermMonths entries, entry i dated StartDate plus i calendar
// months. All per-period amounts are rounded to the loan currency's smallest
// unit with round-half-even; the final period absorbs the accumulated
// rounding remainder so the balance lands exactly on zero.
func Generate(loan *models.LoanAccount) ([]models.ScheduleEntry, error) {
	if loan == nil {
		return nil, fmt.Errorf("%w: nil loan", models.ErrInvalidInput)
	}
	if loan.TermMonths <= 0 {
		return nil, fmt.Errorf("%w: term must be at least one month", models.ErrInvalidInput)
	}
	if loan.Principal.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: principal must be positive", models.ErrInvalidInput)
	}

	monthlyRate := loan.AnnualRatePercent.Div(percentMonths)
	round := loan.Currency.Round
	n := int64(loan.TermMonths)

	var payment, basePortion decimal.Decimal
	switch loan.Method {
	case models.MethodAnnuity:
		payment = annuityPayment(loan.Principal, monthlyRate, n, round)
	case models.MethodDifferential:
		basePortion = round(loan.Principal.Div(decimal.NewFromInt(n)))
	default:
		return nil, fmt.Errorf("%w: unknown schedule method %q", models.ErrInvalidInput, loan.Method)
	}

	entries := make([]models.ScheduleEntry, 0, loan.TermMonths)
	balance := loan.Principal
	for period := 1; period <= loan.TermMonths; period++ {
		interest := round(balance.Mul(monthlyRate))

		var principalPortion decimal.Decimal
		if loan.Method == models.MethodAnnuity {
			principalPortion = payment.Sub(interest)
		} else {
			principalPortion = basePortion
		}
		// Last period repays whatever is actually left.
		if period == loan.TermMonths {
			principalPortion = balance
		}

		balance = balance.Sub(principalPortion)
		if balance.IsNegative() {
			balance = decimal.Zero
		}

		entries = append(entries, models.ScheduleEntry{
			PeriodIndex:      period,
			Date:             loan.StartDate.AddDate(0, period, 0),
			Payment:          principalPortion.Add(interest),
			Interest:         interest,
			PrincipalPortion: principalPortion,
			RemainingBalance: balance,
		})
	}
	return entries, nil
}

// annuityPayment computes the constant total payment
// P * r * (1+r)^n / ((1+r)^n - 1). A zero rate degenerates to an even split.
func annuityPayment(principal, monthlyRate decimal.Decimal, n int64, round func(decimal.Decimal) decimal.Decimal) decimal.Decimal {
	if monthlyRate.IsZero() {
		return round(principal.Div(decimal.NewFromInt(n)))
	}
	factor := one.Add(monthlyRate).Pow(decimal.NewFromInt(n))
	return round(principal.Mul(monthlyRate).Mul(factor).Div(factor.Sub(one)))
}
