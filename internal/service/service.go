package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/ledger-service/internal/budget"
	"github.com/Dan9191/ledger-service/internal/currency"
	"github.com/Dan9191/ledger-service/internal/ledger"
	"github.com/Dan9191/ledger-service/internal/models"
	"github.com/Dan9191/ledger-service/internal/rates"
	"github.com/Dan9191/ledger-service/internal/schedule"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Clock supplies the current time. Injected so tests can pin "now".
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock Clock used in production.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// AccountStore persists loan, deposit and user records.
type AccountStore interface {
	CreateLoan(ctx context.Context, loan *models.LoanAccount) error
	FindLoanByID(ctx context.Context, id int64) (*models.LoanAccount, error)
	ListLoans(ctx context.Context) ([]models.LoanAccount, error)
	CreateDeposit(ctx context.Context, dep *models.DepositAccount) error
	FindDepositByID(ctx context.Context, id int64) (*models.DepositAccount, error)
	ListDeposits(ctx context.Context) ([]models.DepositAccount, error)
	UpdateDepositAccrual(ctx context.Context, depositID int64, accruedMonths int) error
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Notifier delivers payment reminders and budget alerts.
type Notifier interface {
	SendPaymentReminder(to, username string, entry models.ScheduleEntry, cur models.Currency) error
	SendBudgetAlert(to, username, budgetName string, tier budget.Tier, current, limit decimal.Decimal) error
}

// Service handles business logic
type Service struct {
	repo     AccountStore
	acc      *ledger.Accumulator
	rates    rates.Provider
	notifier Notifier
	clock    Clock
	log      *logrus.Logger
}

// NewService initializes a new service
func NewService(repo AccountStore, acc *ledger.Accumulator, provider rates.Provider, notifier Notifier, clock Clock, log *logrus.Logger) *Service {
	return &Service{repo: repo, acc: acc, rates: provider, notifier: notifier, clock: clock, log: log}
}

// LoanParams are the caller-supplied loan account parameters.
type LoanParams struct {
	Principal         decimal.Decimal
	AnnualRatePercent decimal.Decimal
	TermMonths        int
	StartDate         time.Time
	Method            models.Method
	Currency          models.Currency
}

// DepositParams are the caller-supplied deposit account parameters.
type DepositParams struct {
	Principal         decimal.Decimal
	AnnualRatePercent decimal.Decimal
	TermMonths        int
	StartDate         time.Time
	Compounding       bool
	Currency          models.Currency
}

// OpenLoan creates a loan account and reconstructs its present-day state. A
// freshly originated loan puts borrowed cash in hand now, so it emits a
// liability inflow; a backdated loan being entered into the system must not
// re-inject cash that was already spent in the past.
func (s *Service) OpenLoan(ctx context.Context, userID int64, params LoanParams) (*models.LoanAccount, *models.LoanState, error) {
	loan, err := models.NewLoanAccount(userID, params.Principal, params.AnnualRatePercent,
		params.TermMonths, params.StartDate, params.Method, params.Currency)
	if err != nil {
		return nil, nil, err
	}

	now := s.clock.Now()
	state, err := schedule.ReconstructLoan(loan, now)
	if err != nil {
		return nil, nil, err
	}

	if err := s.repo.CreateLoan(ctx, loan); err != nil {
		return nil, nil, err
	}

	if !state.IsHistorical {
		amount, err := s.toBase(ctx, loan.Principal, loan.Currency)
		if err != nil {
			return nil, nil, err
		}
		_, err = s.acc.ApplyEvents(ctx, userID, models.ClassifiedEvent{
			AmountInBase:         amount,
			Direction:            models.Inflow,
			LiabilityOrPrincipal: true,
			Description:          fmt.Sprintf("loan %d origination", loan.ID),
			OccurredAt:           now,
		})
		if err != nil {
			return nil, nil, err
		}
	}

	s.log.Infof("Loan %d opened for user %d: %s %s over %d months (historical=%t)",
		loan.ID, userID, loan.Principal, loan.Currency, loan.TermMonths, state.IsHistorical)
	return loan, state, nil
}

// OpenDeposit creates a deposit account. Funding a deposit moves cash
// between two views of the same net worth, so it is recorded as a
// transfer-neutral event; interest already accrued on a backdated deposit is
// real income and is credited on entry.
func (s *Service) OpenDeposit(ctx context.Context, userID int64, params DepositParams) (*models.DepositAccount, *models.DepositState, error) {
	dep, err := models.NewDepositAccount(userID, params.Principal, params.AnnualRatePercent,
		params.TermMonths, params.StartDate, params.Compounding, params.Currency)
	if err != nil {
		return nil, nil, err
	}

	now := s.clock.Now()
	state, err := schedule.ReconstructDeposit(dep, now)
	if err != nil {
		return nil, nil, err
	}

	// The months credited on entry are already accrued; the monthly job
	// picks up from here.
	dep.AccruedMonths = state.ElapsedMonths
	if err := s.repo.CreateDeposit(ctx, dep); err != nil {
		return nil, nil, err
	}

	principal, err := s.toBase(ctx, dep.Principal, dep.Currency)
	if err != nil {
		return nil, nil, err
	}
	events := []models.ClassifiedEvent{{
		AmountInBase: principal,
		Direction:    models.Outflow,
		Transfer:     true,
		Description:  fmt.Sprintf("deposit %d funding", dep.ID),
		OccurredAt:   now,
	}}
	if state.AccruedInterest.IsPositive() {
		accrued, err := s.toBase(ctx, state.AccruedInterest, dep.Currency)
		if err != nil {
			return nil, nil, err
		}
		events = append(events, models.ClassifiedEvent{
			AmountInBase: accrued,
			Direction:    models.Inflow,
			Description:  fmt.Sprintf("deposit %d accrued interest on entry", dep.ID),
			OccurredAt:   now,
		})
	}

	overview, err := s.acc.ApplyEvents(ctx, userID, events...)
	if err != nil {
		return nil, nil, err
	}
	s.checkBudgets(ctx, userID, overview)

	s.log.Infof("Deposit %d opened for user %d: %s %s over %d months (compounding=%t)",
		dep.ID, userID, dep.Principal, dep.Currency, dep.TermMonths, dep.Compounding)
	return dep, state, nil
}

// SubmitTransaction classifies a manual cash movement, folds it into the
// overview and evaluates the budgets.
func (s *Service) SubmitTransaction(ctx context.Context, userID int64, tx models.Transaction) (models.LedgerOverview, error) {
	if tx.Amount.LessThanOrEqual(decimal.Zero) {
		return models.LedgerOverview{}, fmt.Errorf("%w: amount must be positive", models.ErrInvalidInput)
	}
	if _, err := models.ParseTransactionType(string(tx.Type)); err != nil {
		return models.LedgerOverview{}, err
	}

	amount, err := s.toBase(ctx, tx.Amount, tx.Currency)
	if err != nil {
		return models.LedgerOverview{}, err
	}

	event := models.ClassifiedEvent{
		AmountInBase: amount,
		Description:  tx.Description,
		OccurredAt:   s.clock.Now(),
	}
	switch tx.Type {
	case models.TransactionIncome:
		event.Direction = models.Inflow
	case models.TransactionExpense:
		event.Direction = models.Outflow
	case models.TransactionTransfer:
		event.Direction = models.Outflow
		event.Transfer = true
	}

	overview, err := s.acc.ApplyEvents(ctx, userID, event)
	if err != nil {
		return models.LedgerOverview{}, err
	}
	s.checkBudgets(ctx, userID, overview)
	return overview, nil
}

// RecordLoanPayment submits the next due payment of a loan as one atomic
// batch: the principal portion (debt reduction, not an expense) and the
// interest portion (the only true expense) as two classified events that can
// never be torn apart by a concurrent writer.
func (s *Service) RecordLoanPayment(ctx context.Context, userID, loanID int64) (models.LedgerOverview, error) {
	loan, err := s.repo.FindLoanByID(ctx, loanID)
	if err != nil {
		return models.LedgerOverview{}, err
	}
	if loan.UserID != userID {
		return models.LedgerOverview{}, fmt.Errorf("loan %d does not belong to user %d", loanID, userID)
	}

	entries, err := schedule.Generate(loan)
	if err != nil {
		return models.LedgerOverview{}, err
	}
	state, err := schedule.ReconstructLoan(loan, s.clock.Now())
	if err != nil {
		return models.LedgerOverview{}, err
	}
	if state.ElapsedMonths >= loan.TermMonths {
		return models.LedgerOverview{}, fmt.Errorf("loan %d is fully repaid", loanID)
	}
	entry := entries[state.ElapsedMonths]

	principal, err := s.toBase(ctx, entry.PrincipalPortion, loan.Currency)
	if err != nil {
		return models.LedgerOverview{}, err
	}
	interest, err := s.toBase(ctx, entry.Interest, loan.Currency)
	if err != nil {
		return models.LedgerOverview{}, err
	}

	now := s.clock.Now()
	events := []models.ClassifiedEvent{
		{
			AmountInBase:         principal,
			Direction:            models.Outflow,
			LiabilityOrPrincipal: true,
			Description:          fmt.Sprintf("loan %d period %d principal", loanID, entry.PeriodIndex),
			OccurredAt:           now,
		},
	}
	if interest.IsPositive() {
		events = append(events, models.ClassifiedEvent{
			AmountInBase: interest,
			Direction:    models.Outflow,
			Description:  fmt.Sprintf("loan %d period %d interest", loanID, entry.PeriodIndex),
			OccurredAt:   now,
		})
	}

	overview, err := s.acc.ApplyEvents(ctx, userID, events...)
	if err != nil {
		return models.LedgerOverview{}, err
	}
	s.checkBudgets(ctx, userID, overview)

	s.log.Infof("Loan %d period %d paid by user %d: %s principal, %s interest",
		loanID, entry.PeriodIndex, userID, principal, interest)
	return overview, nil
}

// LoanSchedule returns the full amortization schedule of a stored loan.
func (s *Service) LoanSchedule(ctx context.Context, loanID int64) ([]models.ScheduleEntry, error) {
	loan, err := s.repo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return schedule.Generate(loan)
}

// LoanState reconstructs a stored loan's present-day state.
func (s *Service) LoanState(ctx context.Context, loanID int64) (*models.LoanState, error) {
	loan, err := s.repo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return schedule.ReconstructLoan(loan, s.clock.Now())
}

// DepositState reconstructs a stored deposit's present-day state.
func (s *Service) DepositState(ctx context.Context, depositID int64) (*models.DepositState, error) {
	dep, err := s.repo.FindDepositByID(ctx, depositID)
	if err != nil {
		return nil, err
	}
	return schedule.ReconstructDeposit(dep, s.clock.Now())
}

// Overview returns the user's current net-worth overview.
func (s *Service) Overview(ctx context.Context, userID int64) (models.LedgerOverview, error) {
	return s.acc.Overview(ctx, userID)
}

// SetBudgets replaces the user's monthly budget targets.
func (s *Service) SetBudgets(ctx context.Context, userID int64, incomeBudget, expenseBudget decimal.Decimal) (models.LedgerOverview, error) {
	if incomeBudget.IsNegative() || expenseBudget.IsNegative() {
		return models.LedgerOverview{}, fmt.Errorf("%w: budgets must not be negative", models.ErrInvalidInput)
	}
	return s.acc.UpdateBudgets(ctx, userID, incomeBudget, expenseBudget)
}

// AccrueDepositInterest runs one interest accrual pass over every open
// deposit, crediting the completed months not yet reflected in the ledger as
// income. Months credited on entry for a backdated deposit count as accrued,
// so a pass that finds no new completed month is a no-op. Compounding
// deposits accrue each month on the balance at that month's start, simple
// deposits on the fixed principal. Individual failures are logged and
// skipped so one bad account cannot starve the rest.
func (s *Service) AccrueDepositInterest(ctx context.Context) error {
	deposits, err := s.repo.ListDeposits(ctx)
	if err != nil {
		return fmt.Errorf("failed to list deposits: %w", err)
	}

	now := s.clock.Now()
	for i := range deposits {
		dep := &deposits[i]
		completed := schedule.MonthsBetween(dep.StartDate, now)
		if completed > dep.TermMonths {
			completed = dep.TermMonths
		}
		if completed <= dep.AccruedMonths {
			continue
		}

		var events []models.ClassifiedEvent
		skip := false
		for month := dep.AccruedMonths + 1; month <= completed; month++ {
			interest := schedule.MonthlyInterest(
				schedule.DepositBalance(dep, month-1), dep.AnnualRatePercent, dep.Currency)
			if !interest.IsPositive() {
				continue
			}
			amount, err := s.toBase(ctx, interest, dep.Currency)
			if err != nil {
				s.log.Errorf("Accrual skipped for deposit %d: %v", dep.ID, err)
				skip = true
				break
			}
			events = append(events, models.ClassifiedEvent{
				AmountInBase: amount,
				Direction:    models.Inflow,
				Description:  fmt.Sprintf("deposit %d interest month %d", dep.ID, month),
				OccurredAt:   now,
			})
		}
		if skip {
			continue
		}

		if len(events) > 0 {
			overview, err := s.acc.ApplyEvents(ctx, dep.UserID, events...)
			if err != nil {
				s.log.Errorf("Accrual failed for deposit %d: %v", dep.ID, err)
				continue
			}
			s.checkBudgets(ctx, dep.UserID, overview)
		}
		if err := s.repo.UpdateDepositAccrual(ctx, dep.ID, completed); err != nil {
			s.log.Errorf("Accrual marker not saved for deposit %d: %v", dep.ID, err)
			continue
		}
		s.log.Infof("Accrued interest on deposit %d through month %d", dep.ID, completed)
	}
	return nil
}

// RemindUpcomingPayments emails every user whose next loan payment falls due
// within the given number of days.
func (s *Service) RemindUpcomingPayments(ctx context.Context, withinDays int) error {
	loans, err := s.repo.ListLoans(ctx)
	if err != nil {
		return fmt.Errorf("failed to list loans: %w", err)
	}

	now := s.clock.Now()
	horizon := now.AddDate(0, 0, withinDays)
	for i := range loans {
		loan := &loans[i]
		state, err := schedule.ReconstructLoan(loan, now)
		if err != nil {
			s.log.Errorf("Reminder skipped for loan %d: %v", loan.ID, err)
			continue
		}
		if state.NextPaymentDate == nil || state.NextPaymentDate.After(horizon) {
			continue
		}

		entries, err := schedule.Generate(loan)
		if err != nil {
			s.log.Errorf("Reminder skipped for loan %d: %v", loan.ID, err)
			continue
		}
		user, err := s.repo.FindUserByID(ctx, loan.UserID)
		if err != nil {
			s.log.Errorf("Reminder skipped for loan %d: %v", loan.ID, err)
			continue
		}
		entry := entries[state.ElapsedMonths]
		if err := s.notifier.SendPaymentReminder(user.Email, user.Username, entry, loan.Currency); err != nil {
			s.log.Errorf("Reminder failed for loan %d: %v", loan.ID, err)
		}
	}
	return nil
}

// checkBudgets evaluates both budgets against the fresh overview and
// delivers alerts. Evaluation is level-triggered: the alert fires on every
// qualifying change and de-duplication stays with the receiver.
func (s *Service) checkBudgets(ctx context.Context, userID int64, overview models.LedgerOverview) {
	spentTier := budget.Evaluate(overview.MonthlySpent, overview.ExpenseBudget)
	incomeTier := budget.Evaluate(overview.MonthlyIncome, overview.IncomeBudget)
	if spentTier == budget.TierNone && incomeTier == budget.TierNone {
		return
	}

	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		s.log.Warnf("Budget alert undeliverable for user %d: %v", userID, err)
		return
	}
	if spentTier != budget.TierNone {
		s.log.Warnf("User %d expense budget at tier %s (%s of %s)",
			userID, spentTier, overview.MonthlySpent, overview.ExpenseBudget)
		if err := s.notifier.SendBudgetAlert(user.Email, user.Username, "expense", spentTier, overview.MonthlySpent, overview.ExpenseBudget); err != nil {
			s.log.Errorf("Budget alert failed for user %d: %v", userID, err)
		}
	}
	if incomeTier != budget.TierNone {
		s.log.Infof("User %d income target at tier %s (%s of %s)",
			userID, incomeTier, overview.MonthlyIncome, overview.IncomeBudget)
		if err := s.notifier.SendBudgetAlert(user.Email, user.Username, "income", incomeTier, overview.MonthlyIncome, overview.IncomeBudget); err != nil {
			s.log.Errorf("Budget alert failed for user %d: %v", userID, err)
		}
	}
}

func (s *Service) toBase(ctx context.Context, amount decimal.Decimal, cur models.Currency) (decimal.Decimal, error) {
	table, err := s.rates.Rates(ctx)
	if err != nil {
		// A missing table degrades to base-only mode, a broken provider
		// does not block ledger writes for base-currency amounts.
		if !cur.IsBase() {
			return decimal.Decimal{}, fmt.Errorf("rates unavailable: %w", err)
		}
		table = models.RateTable{}
	}
	converted, err := currency.ToBase(amount, cur, table)
	if err != nil {
		if errors.Is(err, currency.ErrRateNotFound) {
			return decimal.Decimal{}, err
		}
		return decimal.Decimal{}, fmt.Errorf("conversion failed: %w", err)
	}
	return converted, nil
}
