// Package ledger maintains the per-user net-worth overview. Apply is the
// pure classification reducer; Accumulator is the only writer allowed to
// touch the persisted overview.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dan9191/ledger-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrLedgerBusy is surfaced after the conditional save kept conflicting for
// maxRetries consecutive attempts.
var ErrLedgerBusy = errors.New("ledger busy")

const maxRetries = 5

// Apply folds one classified event into the overview and returns the result.
// Precedence:
//  1. transfers change nothing;
//  2. inflows raise the total balance, and monthly income too unless the
//     cash is borrowed;
//  3. outflows lower the total balance, and raise monthly spending unless
//     the cash repays principal (only the interest portion of a repayment is
//     a real expense, submitted as its own event).
func Apply(overview models.LedgerOverview, event models.ClassifiedEvent) models.LedgerOverview {
	if event.Transfer {
		return overview
	}
	if event.Direction == models.Inflow {
		overview.TotalBalance = overview.TotalBalance.Add(event.AmountInBase)
		if !event.LiabilityOrPrincipal {
			overview.MonthlyIncome = overview.MonthlyIncome.Add(event.AmountInBase)
		}
		return overview
	}
	overview.TotalBalance = overview.TotalBalance.Sub(event.AmountInBase)
	if !event.LiabilityOrPrincipal {
		overview.MonthlySpent = overview.MonthlySpent.Add(event.AmountInBase)
	}
	return overview
}

// Accumulator serializes all overview mutation through an optimistic
// compare-and-swap loop against the store. Concurrent submitters (manual
// entries, scheduled accruals) may race; the losing writer re-reads and
// re-applies instead of overwriting.
type Accumulator struct {
	store Store
	log   *logrus.Logger
}

// NewAccumulator initializes the transactional wrapper around a store.
func NewAccumulator(store Store, log *logrus.Logger) *Accumulator {
	return &Accumulator{store: store, log: log}
}

// ApplyEvents applies a batch of events to the user's overview atomically
// and in submission order, then appends them to the audit trail. A repayment
// submitted as a principal event plus an interest event must go through one
// call so the pair can never be torn apart by a concurrent writer.
func (a *Accumulator) ApplyEvents(ctx context.Context, userID int64, events ...models.ClassifiedEvent) (models.LedgerOverview, error) {
	if len(events) == 0 {
		overview, _, err := a.store.LoadOverview(ctx, userID)
		return overview, err
	}

	overview, err := a.update(ctx, userID, func(overview models.LedgerOverview) models.LedgerOverview {
		for _, event := range events {
			overview = Apply(overview, event)
		}
		return overview
	})
	if err != nil {
		return models.LedgerOverview{}, err
	}

	if err := a.store.AppendEvents(ctx, userID, events); err != nil {
		// The overview is already updated; a lost audit row is logged, not
		// rolled back.
		a.log.Errorf("Failed to append %d event(s) for user %d: %v", len(events), userID, err)
	}
	return overview, nil
}

// UpdateBudgets replaces the user's budget targets through the same
// serialized write path as cash events.
func (a *Accumulator) UpdateBudgets(ctx context.Context, userID int64, incomeBudget, expenseBudget decimal.Decimal) (models.LedgerOverview, error) {
	return a.update(ctx, userID, func(overview models.LedgerOverview) models.LedgerOverview {
		overview.IncomeBudget = incomeBudget
		overview.ExpenseBudget = expenseBudget
		return overview
	})
}

// Overview returns the current overview without mutating it.
func (a *Accumulator) Overview(ctx context.Context, userID int64) (models.LedgerOverview, error) {
	overview, _, err := a.store.LoadOverview(ctx, userID)
	return overview, err
}

// update runs one read-modify-write cycle under the optimistic CAS loop.
func (a *Accumulator) update(ctx context.Context, userID int64, mutate func(models.LedgerOverview) models.LedgerOverview) (models.LedgerOverview, error) {
	for attempt := 1; attempt <= maxRetries; attempt++ {
		overview, version, err := a.store.LoadOverview(ctx, userID)
		if err != nil {
			return models.LedgerOverview{}, fmt.Errorf("failed to load overview: %w", err)
		}

		overview = mutate(overview)

		err = a.store.SaveOverview(ctx, userID, overview, version)
		if errors.Is(err, ErrConflict) {
			a.log.Warnf("Overview conflict for user %d, attempt %d/%d", userID, attempt, maxRetries)
			continue
		}
		if err != nil {
			return models.LedgerOverview{}, fmt.Errorf("failed to save overview: %w", err)
		}
		return overview, nil
	}
	return models.LedgerOverview{}, fmt.Errorf("%w: user %d after %d attempts", ErrLedgerBusy, userID, maxRetries)
}
