package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Dan9191/ledger-service/internal/currency"
	"github.com/Dan9191/ledger-service/internal/ledger"
	"github.com/Dan9191/ledger-service/internal/models"
	"github.com/Dan9191/ledger-service/internal/rates"
	"github.com/Dan9191/ledger-service/internal/repository"
	"github.com/Dan9191/ledger-service/internal/service"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Handler exposes the ledger service as a thin JSON API for the surrounding
// application.
type Handler struct {
	svc   *service.Service
	rates rates.Provider
	log   *logrus.Logger
}

func NewHandler(svc *service.Service, provider rates.Provider, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, rates: provider, log: log}
}

// Register attaches all routes to the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/users/{userID}/loans", h.OpenLoan).Methods("POST")
	r.HandleFunc("/users/{userID}/loans/{loanID}/payments", h.RecordLoanPayment).Methods("POST")
	r.HandleFunc("/users/{userID}/deposits", h.OpenDeposit).Methods("POST")
	r.HandleFunc("/users/{userID}/transactions", h.SubmitTransaction).Methods("POST")
	r.HandleFunc("/users/{userID}/overview", h.Overview).Methods("GET")
	r.HandleFunc("/users/{userID}/budgets", h.SetBudgets).Methods("PUT")
	r.HandleFunc("/loans/{loanID}/schedule", h.LoanSchedule).Methods("GET")
	r.HandleFunc("/loans/{loanID}/state", h.LoanState).Methods("GET")
	r.HandleFunc("/deposits/{depositID}/state", h.DepositState).Methods("GET")
	r.HandleFunc("/rates", h.Rates).Methods("GET")
}

type loanRequest struct {
	Principal         string `json:"principal"`
	AnnualRatePercent string `json:"annual_rate_percent"`
	TermMonths        int    `json:"term_months"`
	StartDate         string `json:"start_date"`
	Method            string `json:"method"`
	Currency          string `json:"currency"`
}

// OpenLoan handles loan account creation
func (h *Handler) OpenLoan(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	var req loanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	principal, rate, startDate, cur, err := parseAccountFields(req.Principal, req.AnnualRatePercent, req.StartDate, req.Currency)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	method, err := models.ParseMethod(req.Method)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	loan, state, err := h.svc.OpenLoan(r.Context(), userID, service.LoanParams{
		Principal:         principal,
		AnnualRatePercent: rate,
		TermMonths:        req.TermMonths,
		StartDate:         startDate,
		Method:            method,
		Currency:          cur,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"loan": loan, "state": state})
}

type depositRequest struct {
	Principal         string `json:"principal"`
	AnnualRatePercent string `json:"annual_rate_percent"`
	TermMonths        int    `json:"term_months"`
	StartDate         string `json:"start_date"`
	Compounding       bool   `json:"compounding"`
	Currency          string `json:"currency"`
}

// OpenDeposit handles deposit account creation
func (h *Handler) OpenDeposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	principal, rate, startDate, cur, err := parseAccountFields(req.Principal, req.AnnualRatePercent, req.StartDate, req.Currency)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	dep, state, err := h.svc.OpenDeposit(r.Context(), userID, service.DepositParams{
		Principal:         principal,
		AnnualRatePercent: rate,
		TermMonths:        req.TermMonths,
		StartDate:         startDate,
		Compounding:       req.Compounding,
		Currency:          cur,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"deposit": dep, "state": state})
}

type transactionRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// SubmitTransaction handles a manual cash-movement submission
func (h *Handler) SubmitTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	cur, err := models.ParseCurrency(req.Currency)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	txType, err := models.ParseTransactionType(req.Type)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	overview, err := h.svc.SubmitTransaction(r.Context(), userID, models.Transaction{
		Amount:      amount,
		Currency:    cur,
		Type:        txType,
		Description: req.Description,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, overview)
}

// RecordLoanPayment submits the next due payment of a loan
func (h *Handler) RecordLoanPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	loanID, ok := h.pathID(w, r, "loanID")
	if !ok {
		return
	}

	overview, err := h.svc.RecordLoanPayment(r.Context(), userID, loanID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, overview)
}

// Overview returns the user's net-worth overview
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	overview, err := h.svc.Overview(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, overview)
}

type budgetsRequest struct {
	IncomeBudget  string `json:"income_budget"`
	ExpenseBudget string `json:"expense_budget"`
}

// SetBudgets replaces the user's monthly budget targets
func (h *Handler) SetBudgets(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	var req budgetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	income, err := decimal.NewFromString(req.IncomeBudget)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	expense, err := decimal.NewFromString(req.ExpenseBudget)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	overview, err := h.svc.SetBudgets(r.Context(), userID, income, expense)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, overview)
}

// LoanSchedule returns the full amortization schedule of a loan
func (h *Handler) LoanSchedule(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.pathID(w, r, "loanID")
	if !ok {
		return
	}
	entries, err := h.svc.LoanSchedule(r.Context(), loanID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

// LoanState returns a loan's reconstructed present-day state
func (h *Handler) LoanState(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.pathID(w, r, "loanID")
	if !ok {
		return
	}
	state, err := h.svc.LoanState(r.Context(), loanID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, state)
}

// DepositState returns a deposit's reconstructed present-day state
func (h *Handler) DepositState(w http.ResponseWriter, r *http.Request) {
	depositID, ok := h.pathID(w, r, "depositID")
	if !ok {
		return
	}
	state, err := h.svc.DepositState(r.Context(), depositID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, state)
}

// Rates returns the current exchange-rate table
func (h *Handler) Rates(w http.ResponseWriter, r *http.Request) {
	table, err := h.rates.Rates(r.Context())
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err)
		return
	}
	h.writeJSON(w, http.StatusOK, table)
}

func parseAccountFields(principal, rate, startDate, cur string) (decimal.Decimal, decimal.Decimal, time.Time, models.Currency, error) {
	p, err := decimal.NewFromString(principal)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, time.Time{}, "", err
	}
	rt, err := decimal.NewFromString(rate)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, time.Time{}, "", err
	}
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, time.Time{}, "", err
	}
	c, err := models.ParseCurrency(cur)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, time.Time{}, "", err
	}
	return p, rt, start, c, nil
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return 0, false
	}
	return id, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		h.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, repository.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, currency.ErrRateNotFound):
		h.writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, ledger.ErrLedgerBusy):
		h.writeError(w, http.StatusConflict, err)
	default:
		h.writeError(w, http.StatusInternalServerError, err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.log.Warnf("Request failed: %v", err)
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}
