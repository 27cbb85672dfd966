package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput marks account parameters rejected at construction. Callers
// must not clamp or repair such values silently.
var ErrInvalidInput = errors.New("invalid input")

// Sane upper bounds for account parameters.
const (
	MaxAnnualRatePercent = 1000
	MaxTermMonths        = 600
)

// Method selects the interest-allocation algorithm of a loan schedule.
type Method string

const (
	// MethodAnnuity keeps the total payment constant across periods.
	MethodAnnuity Method = "annuity"
	// MethodDifferential keeps the principal portion constant across periods.
	MethodDifferential Method = "differential"
)

// ParseMethod validates a schedule method name.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodAnnuity, MethodDifferential:
		return Method(s), nil
	}
	return "", fmt.Errorf("%w: unknown schedule method %q", ErrInvalidInput, s)
}

// LoanAccount represents a loan in the system. Principal, start date and
// method are immutable after creation; the schedule and remaining balance are
// derived on demand, never stored.
type LoanAccount struct {
	ID                int64           `json:"id"`
	UserID            int64           `json:"user_id"`
	Principal         decimal.Decimal `json:"principal"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
	TermMonths        int             `json:"term_months"`
	StartDate         time.Time       `json:"start_date"`
	Method            Method          `json:"method"`
	Currency          Currency        `json:"currency"`
	CreatedAt         time.Time       `json:"created_at"`
}

// NewLoanAccount validates loan parameters and builds the account.
func NewLoanAccount(userID int64, principal, annualRatePercent decimal.Decimal, termMonths int, startDate time.Time, method Method, currency Currency) (*LoanAccount, error) {
	if err := validateTerms(principal, annualRatePercent, termMonths); err != nil {
		return nil, err
	}
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}
	return &LoanAccount{
		UserID:            userID,
		Principal:         principal,
		AnnualRatePercent: annualRatePercent,
		TermMonths:        termMonths,
		StartDate:         startDate,
		Method:            method,
		Currency:          currency,
	}, nil
}

// DepositAccount represents a term deposit. Compounding deposits capitalize
// interest monthly; non-compounding deposits accrue interest as a separate
// payable pool while the principal stays fixed.
type DepositAccount struct {
	ID                int64           `json:"id"`
	UserID            int64           `json:"user_id"`
	Principal         decimal.Decimal `json:"principal"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
	TermMonths        int             `json:"term_months"`
	StartDate         time.Time       `json:"start_date"`
	Compounding       bool            `json:"compounding"`
	Currency          Currency        `json:"currency"`
	// AccruedMonths counts the months of interest already credited to the
	// ledger, either on entry for a backdated deposit or by the accrual job.
	AccruedMonths int       `json:"accrued_months"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewDepositAccount validates deposit parameters and builds the account.
func NewDepositAccount(userID int64, principal, annualRatePercent decimal.Decimal, termMonths int, startDate time.Time, compounding bool, currency Currency) (*DepositAccount, error) {
	if err := validateTerms(principal, annualRatePercent, termMonths); err != nil {
		return nil, err
	}
	return &DepositAccount{
		UserID:            userID,
		Principal:         principal,
		AnnualRatePercent: annualRatePercent,
		TermMonths:        termMonths,
		StartDate:         startDate,
		Compounding:       compounding,
		Currency:          currency,
	}, nil
}

func validateTerms(principal, annualRatePercent decimal.Decimal, termMonths int) error {
	if principal.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: principal must be positive, got %s", ErrInvalidInput, principal)
	}
	if annualRatePercent.IsNegative() {
		return fmt.Errorf("%w: annual rate must not be negative, got %s", ErrInvalidInput, annualRatePercent)
	}
	if annualRatePercent.GreaterThan(decimal.NewFromInt(MaxAnnualRatePercent)) {
		return fmt.Errorf("%w: annual rate exceeds %d%%", ErrInvalidInput, MaxAnnualRatePercent)
	}
	if termMonths <= 0 {
		return fmt.Errorf("%w: term must be at least one month, got %d", ErrInvalidInput, termMonths)
	}
	if termMonths > MaxTermMonths {
		return fmt.Errorf("%w: term exceeds %d months", ErrInvalidInput, MaxTermMonths)
	}
	return nil
}
