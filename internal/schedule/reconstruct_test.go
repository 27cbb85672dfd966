package schedule

import (
	"testing"
	"time"

	"github.com/Dan9191/ledger-service/internal/models"
	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestReconstructLoanFresh(t *testing.T) {
	loan := testLoan(t, "1000000", "24", 12, models.MethodAnnuity)
	now := loan.StartDate

	state, err := ReconstructLoan(loan, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.ElapsedMonths != 0 {
		t.Errorf("expected 0 elapsed months, got %d", state.ElapsedMonths)
	}
	if state.IsHistorical {
		t.Error("fresh loan must not be historical")
	}
	if !state.CurrentRemaining.Equal(loan.Principal) {
		t.Errorf("expected full principal remaining, got %s", state.CurrentRemaining)
	}
	if state.NextPaymentDate == nil || !state.NextPaymentDate.Equal(loan.StartDate.AddDate(0, 1, 0)) {
		t.Errorf("expected first schedule date as next payment, got %v", state.NextPaymentDate)
	}
}

func TestReconstructLoanFiveMonthsIn(t *testing.T) {
	loan := testLoan(t, "1000000", "24", 12, models.MethodAnnuity)
	now := loan.StartDate.AddDate(0, 5, 0)

	entries, err := Generate(loan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	state, err := ReconstructLoan(loan, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if state.ElapsedMonths != 5 {
		t.Errorf("expected 5 elapsed months, got %d", state.ElapsedMonths)
	}
	if !state.IsHistorical {
		t.Error("expected historical flag")
	}
	if !state.CurrentRemaining.Equal(entries[4].RemainingBalance) {
		t.Errorf("expected remaining %s, got %s", entries[4].RemainingBalance, state.CurrentRemaining)
	}
	if state.NextPaymentDate == nil || !state.NextPaymentDate.Equal(entries[5].Date) {
		t.Errorf("expected next payment %s, got %v", entries[5].Date, state.NextPaymentDate)
	}
}

func TestReconstructLoanMatured(t *testing.T) {
	loan := testLoan(t, "1000000", "24", 12, models.MethodAnnuity)
	now := loan.StartDate.AddDate(0, 36, 0)

	state, err := ReconstructLoan(loan, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.ElapsedMonths != loan.TermMonths {
		t.Errorf("expected elapsed clamped to %d, got %d", loan.TermMonths, state.ElapsedMonths)
	}
	if !state.CurrentRemaining.IsZero() {
		t.Errorf("expected zero remaining, got %s", state.CurrentRemaining)
	}
	if state.NextPaymentDate != nil {
		t.Errorf("expected no next payment, got %v", state.NextPaymentDate)
	}
}

func TestReconstructLoanElapsedMonotonic(t *testing.T) {
	loan := testLoan(t, "500000", "12", 24, models.MethodDifferential)

	prev := -1
	for days := 0; days < 900; days += 7 {
		now := loan.StartDate.AddDate(0, 0, days)
		state, err := ReconstructLoan(loan, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if state.ElapsedMonths < prev {
			t.Fatalf("elapsed months decreased from %d to %d at day %d", prev, state.ElapsedMonths, days)
		}
		if state.ElapsedMonths < 0 || state.ElapsedMonths > loan.TermMonths {
			t.Fatalf("elapsed months %d outside [0, %d]", state.ElapsedMonths, loan.TermMonths)
		}
		prev = state.ElapsedMonths
	}
}

func TestReconstructLoanBeforeStart(t *testing.T) {
	loan := testLoan(t, "500000", "12", 24, models.MethodAnnuity)
	now := loan.StartDate.AddDate(0, 0, -45)

	state, err := ReconstructLoan(loan, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.ElapsedMonths != 0 || state.IsHistorical {
		t.Errorf("loan starting in the future must report zero elapsed, got %d", state.ElapsedMonths)
	}
}

func TestMonthsBetweenDayOfMonth(t *testing.T) {
	start := date(2025, time.January, 31)
	cases := []struct {
		now  time.Time
		want int
	}{
		{date(2025, time.February, 27), 0},
		{date(2025, time.February, 28), 0}, // day 28 < 31, month not complete
		{date(2025, time.March, 30), 1},
		{date(2025, time.March, 31), 2},
		{date(2026, time.January, 31), 12},
	}
	for _, tc := range cases {
		if got := MonthsBetween(start, tc.now); got != tc.want {
			t.Errorf("MonthsBetween(%s, %s) = %d, want %d", start.Format("2006-01-02"), tc.now.Format("2006-01-02"), got, tc.want)
		}
	}
}

func TestReconstructDepositSimple(t *testing.T) {
	dep, err := models.NewDepositAccount(1, decimal.NewFromInt(100000), decimal.NewFromInt(12), 12, date(2025, time.January, 10), false, models.BaseCurrency)
	if err != nil {
		t.Fatalf("failed to build deposit: %v", err)
	}

	state, err := ReconstructDeposit(dep, date(2025, time.April, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.ElapsedMonths != 3 {
		t.Errorf("expected 3 elapsed months, got %d", state.ElapsedMonths)
	}
	// 100,000 * 1% * 3 = 3,000 accrued, principal untouched
	if want := decimal.NewFromInt(3000); !state.AccruedInterest.Equal(want) {
		t.Errorf("expected accrued %s, got %s", want, state.AccruedInterest)
	}
	if !state.CurrentAmount.Equal(dep.Principal) {
		t.Errorf("simple deposit principal must stay fixed, got %s", state.CurrentAmount)
	}
}

func TestReconstructDepositCompounding(t *testing.T) {
	dep, err := models.NewDepositAccount(1, decimal.NewFromInt(100000), decimal.NewFromInt(12), 12, date(2025, time.January, 10), true, models.BaseCurrency)
	if err != nil {
		t.Fatalf("failed to build deposit: %v", err)
	}

	state, err := ReconstructDeposit(dep, date(2025, time.April, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 100,000 * 1.01^3 = 103,030.10
	if want := decimal.RequireFromString("103030.10"); !state.CurrentAmount.Equal(want) {
		t.Errorf("expected amount %s, got %s", want, state.CurrentAmount)
	}
	if want := decimal.RequireFromString("3030.10"); !state.AccruedInterest.Equal(want) {
		t.Errorf("expected accrued %s, got %s", want, state.AccruedInterest)
	}
}

func TestDepositBalance(t *testing.T) {
	simple, err := models.NewDepositAccount(1, decimal.NewFromInt(100000), decimal.NewFromInt(12), 12, date(2025, time.January, 10), false, models.BaseCurrency)
	if err != nil {
		t.Fatalf("failed to build deposit: %v", err)
	}
	if got := DepositBalance(simple, 5); !got.Equal(simple.Principal) {
		t.Errorf("simple deposit balance must stay at principal, got %s", got)
	}

	compounding, err := models.NewDepositAccount(1, decimal.NewFromInt(100000), decimal.NewFromInt(12), 12, date(2025, time.January, 10), true, models.BaseCurrency)
	if err != nil {
		t.Fatalf("failed to build deposit: %v", err)
	}
	if got := DepositBalance(compounding, 0); !got.Equal(compounding.Principal) {
		t.Errorf("no completed months means no growth, got %s", got)
	}
	if want := decimal.NewFromInt(101000); !DepositBalance(compounding, 1).Equal(want) {
		t.Errorf("expected %s after one month, got %s", want, DepositBalance(compounding, 1))
	}
}

func TestReconstructDepositClampedToTerm(t *testing.T) {
	dep, err := models.NewDepositAccount(1, decimal.NewFromInt(50000), decimal.NewFromInt(6), 6, date(2020, time.June, 1), false, models.BaseCurrency)
	if err != nil {
		t.Fatalf("failed to build deposit: %v", err)
	}

	state, err := ReconstructDeposit(dep, date(2025, time.June, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.ElapsedMonths != 6 {
		t.Errorf("expected elapsed clamped to term, got %d", state.ElapsedMonths)
	}
	// Interest stops accruing at maturity: 50,000 * 0.5% * 6 = 1,500
	if want := decimal.NewFromInt(1500); !state.AccruedInterest.Equal(want) {
		t.Errorf("expected accrued %s, got %s", want, state.AccruedInterest)
	}
}
