package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dan9191/ledger-service/internal/ledger"
	"github.com/Dan9191/ledger-service/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Compile-time check that the repository satisfies the ledger store contract.
var _ ledger.Store = (*Repository)(nil)

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// LoadOverview retrieves the user's overview and its version token. A user
// without an overview row yet gets a zero overview with version 0.
func (r *Repository) LoadOverview(ctx context.Context, userID int64) (models.LedgerOverview, int64, error) {
	overview := models.LedgerOverview{}
	var version int64
	query := `
		SELECT total_balance, monthly_income, monthly_spent, income_budget, expense_budget, version
		FROM ledger.overviews
		WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&overview.TotalBalance, &overview.MonthlyIncome, &overview.MonthlySpent,
			&overview.IncomeBudget, &overview.ExpenseBudget, &version)
	if err == sql.ErrNoRows {
		return models.LedgerOverview{}, 0, nil
	}
	if err != nil {
		return models.LedgerOverview{}, 0, fmt.Errorf("failed to load overview: %w", err)
	}
	return overview, version, nil
}

// SaveOverview writes the overview conditioned on an unchanged version and
// returns ledger.ErrConflict when another writer got there first. Version 0
// inserts the row.
func (r *Repository) SaveOverview(ctx context.Context, userID int64, overview models.LedgerOverview, expectedVersion int64) error {
	var res sql.Result
	var err error
	if expectedVersion == 0 {
		query := `
			INSERT INTO ledger.overviews
				(user_id, total_balance, monthly_income, monthly_spent, income_budget, expense_budget, version, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, 1, CURRENT_TIMESTAMP)
			ON CONFLICT (user_id) DO NOTHING`
		res, err = r.db.ExecContext(ctx, query, userID,
			overview.TotalBalance, overview.MonthlyIncome, overview.MonthlySpent,
			overview.IncomeBudget, overview.ExpenseBudget)
	} else {
		query := `
			UPDATE ledger.overviews
			SET total_balance = $3, monthly_income = $4, monthly_spent = $5,
				income_budget = $6, expense_budget = $7,
				version = version + 1, updated_at = CURRENT_TIMESTAMP
			WHERE user_id = $1 AND version = $2`
		res, err = r.db.ExecContext(ctx, query, userID, expectedVersion,
			overview.TotalBalance, overview.MonthlyIncome, overview.MonthlySpent,
			overview.IncomeBudget, overview.ExpenseBudget)
	}
	if err != nil {
		return fmt.Errorf("failed to save overview: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save overview: %w", err)
	}
	if affected == 0 {
		return ledger.ErrConflict
	}
	return nil
}

// AppendEvents records classified events in submission order within one
// transaction.
func (r *Repository) AppendEvents(ctx context.Context, userID int64, events []models.ClassifiedEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO ledger.events
			(user_id, amount_in_base, direction, liability_or_principal, transfer, description, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)`
	for _, event := range events {
		if _, err := tx.ExecContext(ctx, query, userID,
			event.AmountInBase, string(event.Direction), event.LiabilityOrPrincipal,
			event.Transfer, event.Description, event.OccurredAt); err != nil {
			return fmt.Errorf("failed to append event: %w", err)
		}
	}
	return tx.Commit()
}

// CreateLoan creates a new loan account in the database
func (r *Repository) CreateLoan(ctx context.Context, loan *models.LoanAccount) error {
	query := `
		INSERT INTO ledger.loans
			(user_id, principal, annual_rate_percent, term_months, start_date, method, currency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, loan.UserID, loan.Principal, loan.AnnualRatePercent,
		loan.TermMonths, loan.StartDate, string(loan.Method), string(loan.Currency)).
		Scan(&loan.ID, &loan.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// FindLoanByID retrieves a loan account by id
func (r *Repository) FindLoanByID(ctx context.Context, id int64) (*models.LoanAccount, error) {
	loan := &models.LoanAccount{}
	var method, currency string
	query := `
		SELECT id, user_id, principal, annual_rate_percent, term_months, start_date, method, currency, created_at
		FROM ledger.loans
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&loan.ID, &loan.UserID, &loan.Principal, &loan.AnnualRatePercent,
			&loan.TermMonths, &loan.StartDate, &method, &currency, &loan.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("loan %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find loan: %w", err)
	}
	loan.Method = models.Method(method)
	loan.Currency = models.Currency(currency)
	return loan, nil
}

// ListLoans retrieves all loan accounts
func (r *Repository) ListLoans(ctx context.Context) ([]models.LoanAccount, error) {
	query := `
		SELECT id, user_id, principal, annual_rate_percent, term_months, start_date, method, currency, created_at
		FROM ledger.loans
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var loans []models.LoanAccount
	for rows.Next() {
		var loan models.LoanAccount
		var method, currency string
		if err := rows.Scan(&loan.ID, &loan.UserID, &loan.Principal, &loan.AnnualRatePercent,
			&loan.TermMonths, &loan.StartDate, &method, &currency, &loan.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loan.Method = models.Method(method)
		loan.Currency = models.Currency(currency)
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

// CreateDeposit creates a new deposit account in the database
func (r *Repository) CreateDeposit(ctx context.Context, dep *models.DepositAccount) error {
	query := `
		INSERT INTO ledger.deposits
			(user_id, principal, annual_rate_percent, term_months, start_date, compounding, currency, accrued_months, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, dep.UserID, dep.Principal, dep.AnnualRatePercent,
		dep.TermMonths, dep.StartDate, dep.Compounding, string(dep.Currency), dep.AccruedMonths).
		Scan(&dep.ID, &dep.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create deposit: %w", err)
	}
	return nil
}

// FindDepositByID retrieves a deposit account by id
func (r *Repository) FindDepositByID(ctx context.Context, id int64) (*models.DepositAccount, error) {
	dep := &models.DepositAccount{}
	var currency string
	query := `
		SELECT id, user_id, principal, annual_rate_percent, term_months, start_date, compounding, currency, accrued_months, created_at
		FROM ledger.deposits
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&dep.ID, &dep.UserID, &dep.Principal, &dep.AnnualRatePercent,
			&dep.TermMonths, &dep.StartDate, &dep.Compounding, &currency, &dep.AccruedMonths, &dep.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("deposit %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find deposit: %w", err)
	}
	dep.Currency = models.Currency(currency)
	return dep, nil
}

// ListDeposits retrieves all deposit accounts
func (r *Repository) ListDeposits(ctx context.Context) ([]models.DepositAccount, error) {
	query := `
		SELECT id, user_id, principal, annual_rate_percent, term_months, start_date, compounding, currency, accrued_months, created_at
		FROM ledger.deposits
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	defer rows.Close()

	var deposits []models.DepositAccount
	for rows.Next() {
		var dep models.DepositAccount
		var currency string
		if err := rows.Scan(&dep.ID, &dep.UserID, &dep.Principal, &dep.AnnualRatePercent,
			&dep.TermMonths, &dep.StartDate, &dep.Compounding, &currency, &dep.AccruedMonths, &dep.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan deposit: %w", err)
		}
		dep.Currency = models.Currency(currency)
		deposits = append(deposits, dep)
	}
	return deposits, rows.Err()
}

// UpdateDepositAccrual records how many months of interest have been credited
// to the ledger for a deposit
func (r *Repository) UpdateDepositAccrual(ctx context.Context, depositID int64, accruedMonths int) error {
	query := `
		UPDATE ledger.deposits
		SET accrued_months = $2
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, depositID, accruedMonths)
	if err != nil {
		return fmt.Errorf("failed to update deposit accrual: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update deposit accrual: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("deposit %d: %w", depositID, ErrNotFound)
	}
	return nil
}

// FindUserByID retrieves a user's contact record
func (r *Repository) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email
		FROM ledger.users
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.Username, &user.Email)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}
