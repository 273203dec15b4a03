package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/finance-ledger/internal/domain"
	"github.com/josh-kwaku/finance-ledger/internal/logging"
	"github.com/josh-kwaku/finance-ledger/internal/service/loan"
)

type loanService interface {
	CreateLoan(ctx context.Context, req loan.CreateLoanRequest) (*loan.LoanDetails, error)
	GetLoan(ctx context.Context, ownerID, id uuid.UUID) (*loan.LoanDetails, error)
	ListLoans(ctx context.Context, ownerID uuid.UUID) ([]domain.Loan, error)
	PayInstallment(ctx context.Context, req loan.PayInstallmentRequest) (*loan.InstallmentResult, error)
	Prepay(ctx context.Context, req loan.PrepayRequest) (*loan.PrepaymentResult, error)
}

type LoanHandler struct {
	loans loanService
}

func NewLoanHandler(loans loanService) *LoanHandler {
	return &LoanHandler{loans: loans}
}

type createLoanRequest struct {
	Name         string          `json:"name"`
	Principal    decimal.Decimal `json:"principal"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	TenureMonths int             `json:"tenure_months"`
	StartDate    time.Time       `json:"start_date"`
	AccountID    uuid.UUID       `json:"account_id"`
}

func (r createLoanRequest) Validate() []FieldError {
	var errs []FieldError
	if n := len(strings.TrimSpace(r.Name)); n < 2 || n > 120 {
		errs = append(errs, FieldError{Field: "name", Message: "must be 2 to 120 characters"})
	}
	if !r.Principal.IsPositive() {
		errs = append(errs, FieldError{Field: "principal", Message: "must be greater than 0"})
	}
	if r.InterestRate.IsNegative() || r.InterestRate.GreaterThan(decimal.NewFromInt(100)) {
		errs = append(errs, FieldError{Field: "interest_rate", Message: "must be between 0 and 100"})
	}
	if r.TenureMonths < 1 || r.TenureMonths > 600 {
		errs = append(errs, FieldError{Field: "tenure_months", Message: "must be between 1 and 600"})
	}
	if r.StartDate.IsZero() {
		errs = append(errs, FieldError{Field: "start_date", Message: "required"})
	}
	if r.AccountID == uuid.Nil {
		errs = append(errs, FieldError{Field: "account_id", Message: "required"})
	}
	return errs
}

type paymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Date        *time.Time      `json:"date"`
	Description string          `json:"description"`
}

type loanDTO struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	AccountID          uuid.UUID       `json:"account_id"`
	Principal          decimal.Decimal `json:"principal"`
	InterestRate       decimal.Decimal `json:"interest_rate"`
	TenureMonths       int             `json:"tenure_months"`
	StartDate          time.Time       `json:"start_date"`
	EMIAmount          decimal.Decimal `json:"emi_amount"`
	RemainingPrincipal decimal.Decimal `json:"remaining_principal"`
	PaidPrincipal      decimal.Decimal `json:"paid_principal"`
	PaidInterest       decimal.Decimal `json:"paid_interest"`
	Status             string          `json:"status"`
}

type scheduleRowDTO struct {
	ID                 uuid.UUID       `json:"id"`
	DueDate            time.Time       `json:"due_date"`
	Amount             decimal.Decimal `json:"amount"`
	PrincipalComponent decimal.Decimal `json:"principal_component"`
	InterestComponent  decimal.Decimal `json:"interest_component"`
	Status             string          `json:"status"`
	PaidAt             *time.Time      `json:"paid_at,omitempty"`
	TransactionID      *uuid.UUID      `json:"transaction_id,omitempty"`
}

type prepaymentDTO struct {
	ID            uuid.UUID       `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	TransactionID uuid.UUID       `json:"transaction_id"`
}

type loanDetailsDTO struct {
	loanDTO
	Schedule    []scheduleRowDTO `json:"schedule"`
	Prepayments []prepaymentDTO  `json:"prepayments"`
}

func toLoanDTO(l *domain.Loan) loanDTO {
	return loanDTO{
		ID:                 l.ID,
		Name:               l.Name,
		AccountID:          l.AccountID,
		Principal:          l.Principal,
		InterestRate:       l.InterestRate,
		TenureMonths:       l.TenureMonths,
		StartDate:          l.StartDate,
		EMIAmount:          l.EMIAmount,
		RemainingPrincipal: l.RemainingPrincipal,
		PaidPrincipal:      l.PaidPrincipal,
		PaidInterest:       l.PaidInterest,
		Status:             string(l.Status),
	}
}

func toScheduleRowDTOs(rows []domain.ScheduleRow) []scheduleRowDTO {
	dtos := make([]scheduleRowDTO, len(rows))
	for i, row := range rows {
		dtos[i] = scheduleRowDTO{
			ID:                 row.ID,
			DueDate:            row.DueDate,
			Amount:             row.Amount,
			PrincipalComponent: row.PrincipalComponent,
			InterestComponent:  row.InterestComponent,
			Status:             string(row.Status),
			PaidAt:             row.PaidAt,
			TransactionID:      row.TransactionID,
		}
	}
	return dtos
}

func toLoanDetailsDTO(d *loan.LoanDetails) loanDetailsDTO {
	prepayments := make([]prepaymentDTO, len(d.Prepayments))
	for i, p := range d.Prepayments {
		prepayments[i] = prepaymentDTO{ID: p.ID, Amount: p.Amount, Date: p.Date, TransactionID: p.TransactionID}
	}
	return loanDetailsDTO{
		loanDTO:     toLoanDTO(&d.Loan),
		Schedule:    toScheduleRowDTOs(d.Schedule),
		Prepayments: prepayments,
	}
}

func (h *LoanHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, appErr := requireOwner(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req createLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	details, err := h.loans.CreateLoan(r.Context(), loan.CreateLoanRequest{
		OwnerID:      ownerID,
		AccountID:    req.AccountID,
		Name:         req.Name,
		Principal:    req.Principal,
		InterestRate: req.InterestRate,
		TenureMonths: req.TenureMonths,
		StartDate:    req.StartDate,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("loan creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/loans/%s", details.Loan.ID))
	RespondSuccess(w, http.StatusCreated, toLoanDetailsDTO(details))
}

func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, appErr := requireOwner(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	loans, err := h.loans.ListLoans(r.Context(), ownerID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list loans", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]loanDTO, len(loans))
	for i := range loans {
		dtos[i] = toLoanDTO(&loans[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, appErr := requireOwner(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	details, err := h.loans.GetLoan(r.Context(), ownerID, id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toLoanDetailsDTO(details))
}

func (h *LoanHandler) PayInstallment(w http.ResponseWriter, r *http.Request) {
	ownerID, appErr := requireOwner(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	loanID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	rowID, appErr := pathID(r, "rowId")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	// The body is optional; an empty one pays today with the default
	// description.
	var req paymentRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			RespondAppError(w, ErrInvalidRequest, nil)
			return
		}
	}

	result, err := h.loans.PayInstallment(r.Context(), loan.PayInstallmentRequest{
		OwnerID:     ownerID,
		LoanID:      loanID,
		RowID:       rowID,
		Date:        req.Date,
		Description: req.Description,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("installment payment failed", "loan_id", loanID, "row_id", rowID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"loan":           toLoanDTO(&result.Loan),
		"installment":    toScheduleRowDTOs([]domain.ScheduleRow{result.Row})[0],
		"transaction_id": result.Transaction.ID,
	})
}

func (h *LoanHandler) Prepay(w http.ResponseWriter, r *http.Request) {
	ownerID, appErr := requireOwner(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	loanID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if !req.Amount.IsPositive() {
		RespondValidationError(w, []FieldError{{Field: "amount", Message: "must be greater than 0"}})
		return
	}

	result, err := h.loans.Prepay(r.Context(), loan.PrepayRequest{
		OwnerID:     ownerID,
		LoanID:      loanID,
		Amount:      req.Amount,
		Date:        req.Date,
		Description: req.Description,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("prepayment failed", "loan_id", loanID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"loan":           toLoanDTO(&result.Loan),
		"prepayment_id":  result.Prepayment.ID,
		"transaction_id": result.Transaction.ID,
		"schedule":       toScheduleRowDTOs(result.Schedule),
	})
}
