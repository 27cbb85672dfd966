package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dan9191/ledger-service/internal/budget"
	"github.com/Dan9191/ledger-service/internal/ledger"
	"github.com/Dan9191/ledger-service/internal/models"
	"github.com/Dan9191/ledger-service/internal/repository"
	"github.com/Dan9191/ledger-service/internal/service"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// emptyStore satisfies both store contracts while holding no accounts, so
// every lookup misses the same way the database layer does.
type emptyStore struct{}

func (emptyStore) LoadOverview(ctx context.Context, userID int64) (models.LedgerOverview, int64, error) {
	return models.LedgerOverview{}, 0, nil
}

func (emptyStore) SaveOverview(ctx context.Context, userID int64, overview models.LedgerOverview, expectedVersion int64) error {
	return nil
}

func (emptyStore) AppendEvents(ctx context.Context, userID int64, events []models.ClassifiedEvent) error {
	return nil
}

func (emptyStore) CreateLoan(ctx context.Context, loan *models.LoanAccount) error { return nil }

func (emptyStore) FindLoanByID(ctx context.Context, id int64) (*models.LoanAccount, error) {
	return nil, fmt.Errorf("loan %d: %w", id, repository.ErrNotFound)
}

func (emptyStore) ListLoans(ctx context.Context) ([]models.LoanAccount, error) { return nil, nil }

func (emptyStore) CreateDeposit(ctx context.Context, dep *models.DepositAccount) error { return nil }

func (emptyStore) FindDepositByID(ctx context.Context, id int64) (*models.DepositAccount, error) {
	return nil, fmt.Errorf("deposit %d: %w", id, repository.ErrNotFound)
}

func (emptyStore) ListDeposits(ctx context.Context) ([]models.DepositAccount, error) {
	return nil, nil
}

func (emptyStore) UpdateDepositAccrual(ctx context.Context, depositID int64, accruedMonths int) error {
	return nil
}

func (emptyStore) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	return nil, fmt.Errorf("user %d: %w", id, repository.ErrNotFound)
}

type stubRates struct{}

func (stubRates) Rates(ctx context.Context) (models.RateTable, error) {
	return models.RateTable{}, nil
}

type stubNotifier struct{}

func (stubNotifier) SendPaymentReminder(to, username string, entry models.ScheduleEntry, cur models.Currency) error {
	return nil
}

func (stubNotifier) SendBudgetAlert(to, username, budgetName string, tier budget.Tier, current, limit decimal.Decimal) error {
	return nil
}

func newTestRouter() *mux.Router {
	log := logrus.New()
	log.SetOutput(io.Discard)
	store := emptyStore{}
	acc := ledger.NewAccumulator(store, log)
	svc := service.NewService(store, acc, stubRates{}, stubNotifier{}, service.SystemClock{}, log)
	r := mux.NewRouter()
	NewHandler(svc, stubRates{}, log).Register(r)
	return r
}

func TestUnknownAccountReturnsNotFound(t *testing.T) {
	router := newTestRouter()
	paths := []string{
		"/loans/42/schedule",
		"/loans/42/state",
		"/deposits/42/state",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want %d", path, rec.Code, http.StatusNotFound)
		}
	}
}

func TestBadPathIDReturnsBadRequest(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/loans/abc/state", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
