package ledger

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Dan9191/ledger-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func testOverview() models.LedgerOverview {
	return models.LedgerOverview{
		TotalBalance:  decimal.NewFromInt(10000),
		MonthlyIncome: decimal.NewFromInt(500),
		MonthlySpent:  decimal.NewFromInt(300),
		IncomeBudget:  decimal.NewFromInt(2000),
		ExpenseBudget: decimal.NewFromInt(1000),
	}
}

func event(amount int64, dir models.Direction, liability, transfer bool) models.ClassifiedEvent {
	return models.ClassifiedEvent{
		AmountInBase:         decimal.NewFromInt(amount),
		Direction:            dir,
		LiabilityOrPrincipal: liability,
		Transfer:             transfer,
		OccurredAt:           time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestApplyIncome(t *testing.T) {
	got := Apply(testOverview(), event(100, models.Inflow, false, false))
	if !got.TotalBalance.Equal(decimal.NewFromInt(10100)) {
		t.Errorf("expected balance 10100, got %s", got.TotalBalance)
	}
	if !got.MonthlyIncome.Equal(decimal.NewFromInt(600)) {
		t.Errorf("expected income 600, got %s", got.MonthlyIncome)
	}
	if !got.MonthlySpent.Equal(decimal.NewFromInt(300)) {
		t.Errorf("spent must not change on income, got %s", got.MonthlySpent)
	}
}

func TestApplyLiabilityInflowIsNotProfit(t *testing.T) {
	got := Apply(testOverview(), event(100, models.Inflow, true, false))
	if !got.TotalBalance.Equal(decimal.NewFromInt(10100)) {
		t.Errorf("expected balance 10100, got %s", got.TotalBalance)
	}
	if !got.MonthlyIncome.Equal(decimal.NewFromInt(500)) {
		t.Errorf("borrowed cash must not count as income, got %s", got.MonthlyIncome)
	}
}

func TestApplyExpense(t *testing.T) {
	got := Apply(testOverview(), event(100, models.Outflow, false, false))
	if !got.TotalBalance.Equal(decimal.NewFromInt(9900)) {
		t.Errorf("expected balance 9900, got %s", got.TotalBalance)
	}
	if !got.MonthlySpent.Equal(decimal.NewFromInt(400)) {
		t.Errorf("expected spent 400, got %s", got.MonthlySpent)
	}
}

func TestApplyPrincipalRepaymentIsNotExpense(t *testing.T) {
	got := Apply(testOverview(), event(100, models.Outflow, true, false))
	if !got.TotalBalance.Equal(decimal.NewFromInt(9900)) {
		t.Errorf("expected balance 9900, got %s", got.TotalBalance)
	}
	if !got.MonthlySpent.Equal(decimal.NewFromInt(300)) {
		t.Errorf("principal repayment must not count as expense, got %s", got.MonthlySpent)
	}
}

func TestApplyTransferChangesNothing(t *testing.T) {
	before := testOverview()
	got := Apply(before, event(999999, models.Outflow, false, true))
	if !got.TotalBalance.Equal(before.TotalBalance) ||
		!got.MonthlyIncome.Equal(before.MonthlyIncome) ||
		!got.MonthlySpent.Equal(before.MonthlySpent) ||
		!got.IncomeBudget.Equal(before.IncomeBudget) ||
		!got.ExpenseBudget.Equal(before.ExpenseBudget) {
		t.Errorf("transfer mutated the overview: %+v", got)
	}
}

// mockStore is an in-memory Store that can simulate save conflicts.
type mockStore struct {
	overview models.LedgerOverview
	version  int64
	events   []models.ClassifiedEvent

	conflicts     int // number of saves to reject before accepting
	loadCalls     int
	appendedCalls int
}

func (m *mockStore) LoadOverview(ctx context.Context, userID int64) (models.LedgerOverview, int64, error) {
	m.loadCalls++
	return m.overview, m.version, nil
}

func (m *mockStore) SaveOverview(ctx context.Context, userID int64, overview models.LedgerOverview, expectedVersion int64) error {
	if m.conflicts > 0 {
		m.conflicts--
		// Another writer got in between: bump the stored version.
		m.version++
		return ErrConflict
	}
	if expectedVersion != m.version {
		return ErrConflict
	}
	m.overview = overview
	m.version++
	return nil
}

func (m *mockStore) AppendEvents(ctx context.Context, userID int64, events []models.ClassifiedEvent) error {
	m.appendedCalls++
	m.events = append(m.events, events...)
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestApplyEventsSavesAndAppends(t *testing.T) {
	store := &mockStore{overview: testOverview(), version: 3}
	acc := NewAccumulator(store, quietLogger())

	got, err := acc.ApplyEvents(context.Background(), 1,
		event(100, models.Outflow, true, false),
		event(20, models.Outflow, false, false),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.TotalBalance.Equal(decimal.NewFromInt(9880)) {
		t.Errorf("expected balance 9880, got %s", got.TotalBalance)
	}
	if !got.MonthlySpent.Equal(decimal.NewFromInt(320)) {
		t.Errorf("expected spent 320 (interest only), got %s", got.MonthlySpent)
	}
	if len(store.events) != 2 {
		t.Errorf("expected 2 audit events, got %d", len(store.events))
	}
	if store.appendedCalls != 1 {
		t.Errorf("batch must append once, got %d calls", store.appendedCalls)
	}
}

func TestApplyEventsRetriesOnConflict(t *testing.T) {
	store := &mockStore{overview: testOverview(), version: 1, conflicts: 2}
	acc := NewAccumulator(store, quietLogger())

	_, err := acc.ApplyEvents(context.Background(), 1, event(50, models.Inflow, false, false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.loadCalls != 3 {
		t.Errorf("expected 3 load attempts, got %d", store.loadCalls)
	}
	if !store.overview.TotalBalance.Equal(decimal.NewFromInt(10050)) {
		t.Errorf("expected balance 10050 after retry, got %s", store.overview.TotalBalance)
	}
}

func TestApplyEventsBusyAfterExhaustedRetries(t *testing.T) {
	store := &mockStore{overview: testOverview(), version: 1, conflicts: 100}
	acc := NewAccumulator(store, quietLogger())

	_, err := acc.ApplyEvents(context.Background(), 1, event(50, models.Inflow, false, false))
	if !errors.Is(err, ErrLedgerBusy) {
		t.Errorf("expected ErrLedgerBusy, got %v", err)
	}
	if store.appendedCalls != 0 {
		t.Errorf("no audit rows must be written on failure, got %d", store.appendedCalls)
	}
}

func TestApplyEventsEmptyBatchReadsOnly(t *testing.T) {
	store := &mockStore{overview: testOverview(), version: 7}
	acc := NewAccumulator(store, quietLogger())

	got, err := acc.ApplyEvents(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.TotalBalance.Equal(store.overview.TotalBalance) {
		t.Errorf("expected current overview, got %+v", got)
	}
	if store.version != 7 {
		t.Errorf("empty batch must not write, version changed to %d", store.version)
	}
}
