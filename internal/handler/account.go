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
	"github.com/josh-kwaku/finance-ledger/internal/service"
)

type accountService interface {
	CreateAccount(ctx context.Context, req service.CreateAccountRequest) (*domain.Account, error)
	ListAccounts(ctx context.Context, ownerID uuid.UUID) ([]domain.Account, error)
	GetAccount(ctx context.Context, ownerID, accountID uuid.UUID) (*domain.Account, error)
	UpdateAccount(ctx context.Context, req service.UpdateAccountRequest) (*domain.Account, error)
	DeleteAccount(ctx context.Context, ownerID, accountID uuid.UUID) error
}

type AccountHandler struct {
	accounts accountService
}

func NewAccountHandler(accounts accountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type createAccountRequest struct {
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Currency       string          `json:"currency"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

func (r createAccountRequest) Validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if !domain.AccountType(r.Type).IsValid() {
		errs = append(errs, FieldError{Field: "type", Message: "must be CASH, BANK, WALLET, CREDIT or CREDIT_CARD"})
	}
	if r.Currency == "" {
		errs = append(errs, FieldError{Field: "currency", Message: "required"})
	} else if !domain.Currency(strings.ToUpper(r.Currency)).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "must be an ISO 4217 code"})
	}
	if r.InitialBalance.IsNegative() {
		errs = append(errs, FieldError{Field: "initial_balance", Message: "must not be negative"})
	}
	return errs
}

type updateAccountRequest struct {
	Name *string `json:"name"`
	Type *string `json:"type"`
}

func (r updateAccountRequest) Validate() []FieldError {
	if r.Name == nil && r.Type == nil {
		return []FieldError{{Field: "body", Message: "name or type is required"}}
	}
	var errs []FieldError
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "must not be blank"})
	}
	if r.Type != nil && !domain.AccountType(*r.Type).IsValid() {
		errs = append(errs, FieldError{Field: "type", Message: "must be CASH, BANK, WALLET, CREDIT or CREDIT_CARD"})
	}
	return errs
}

type accountDTO struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Currency       string          `json:"currency"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Balance        decimal.Decimal `json:"balance"`
	CreatedAt      time.Time       `json:"created_at"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		ID:             a.ID,
		Name:           a.Name,
		Type:           string(a.Type),
		Currency:       string(a.Currency),
		InitialBalance: a.InitialBalance,
		Balance:        a.Balance,
		CreatedAt:      a.CreatedAt,
	}
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, appErr := requireOwner(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	account, err := h.accounts.CreateAccount(r.Context(), service.CreateAccountRequest{
		OwnerID:        ownerID,
		Name:           req.Name,
		Type:           domain.AccountType(req.Type),
		Currency:       domain.Currency(req.Currency),
		InitialBalance: req.InitialBalance,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create account", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/accounts/%s", account.ID))
	RespondSuccess(w, http.StatusCreated, toAccountDTO(account))
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, appErr := requireOwner(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	accounts, err := h.accounts.ListAccounts(r.Context(), ownerID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list accounts", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]accountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = toAccountDTO(&accounts[i])
	}

	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, appErr := requireOwner(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	accountID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), ownerID, accountID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("account lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, appErr := requireOwner(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	accountID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	update := service.UpdateAccountRequest{OwnerID: ownerID, AccountID: accountID, Name: req.Name}
	if req.Type != nil {
		t := domain.AccountType(*req.Type)
		update.Type = &t
	}

	account, err := h.accounts.UpdateAccount(r.Context(), update)
	if err != nil {
		logging.FromContext(r.Context()).Warn("account update failed", "account_id", accountID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

// Delete refuses with 409 while transactions, active recurring definitions
// or loans reference the account.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, appErr := requireOwner(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	accountID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.accounts.DeleteAccount(r.Context(), ownerID, accountID); err != nil {
		logging.FromContext(r.Context()).Warn("account delete failed", "account_id", accountID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{"id": accountID, "deleted": true})
}
