package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/finance-ledger/internal/domain"
	"github.com/josh-kwaku/finance-ledger/internal/logging"
	"github.com/josh-kwaku/finance-ledger/internal/service/ledger"
)

type ledgerService interface {
	Create(ctx context.Context, req ledger.CreateRequest) ([]domain.Transaction, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Transaction, error)
	Update(ctx context.Context, id uuid.UUID, req ledger.CreateRequest) ([]domain.Transaction, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	ListByAccount(ctx context.Context, ownerID, accountID uuid.UUID) ([]domain.Transaction, error)
}

type TransactionHandler struct {
	ledger ledgerService
}

func NewTransactionHandler(ledgerSvc ledgerService) *TransactionHandler {
	return &TransactionHandler{ledger: ledgerSvc}
}

type transactionRequest struct {
	Type                 string          `json:"type"`
	Amount               decimal.Decimal `json:"amount"`
	Description          string          `json:"description"`
	Category             *string         `json:"category"`
	Date                 *time.Time      `json:"date"`
	AccountID            uuid.UUID       `json:"account_id"`
	DestinationAccountID *uuid.UUID      `json:"destination_account_id"`
	Tags                 []string        `json:"tags"`
}

func (r transactionRequest) Validate() []FieldError {
	var errs []FieldError
	if !domain.TransactionType(r.Type).IsValid() {
		errs = append(errs, FieldError{Field: "type", Message: "must be INCOME, EXPENSE or TRANSFER"})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	if r.AccountID == uuid.Nil {
		errs = append(errs, FieldError{Field: "account_id", Message: "required"})
	}
	if len(r.Description) > 255 {
		errs = append(errs, FieldError{Field: "description", Message: "must be at most 255 characters"})
	}
	return errs
}

func (r transactionRequest) toLedger(ownerID uuid.UUID) ledger.CreateRequest {
	return ledger.CreateRequest{
		OwnerID:              ownerID,
		Type:                 domain.TransactionType(r.Type),
		Amount:               r.Amount,
		Description:          r.Description,
		Category:             r.Category,
		Date:                 r.Date,
		AccountID:            r.AccountID,
		DestinationAccountID: r.DestinationAccountID,
		Tags:                 r.Tags,
	}
}

type transactionDTO struct {
	ID                   uuid.UUID       `json:"id"`
	Type                 string          `json:"type"`
	Amount               decimal.Decimal `json:"amount"`
	Description          string          `json:"description"`
	Category             *string         `json:"category"`
	Date                 time.Time       `json:"date"`
	AccountID            uuid.UUID       `json:"account_id"`
	SourceAccountID      *uuid.UUID      `json:"source_account_id,omitempty"`
	DestinationAccountID *uuid.UUID      `json:"destination_account_id,omitempty"`
	TransferGroupID      *uuid.UUID      `json:"transfer_group_id,omitempty"`
	TransferRole         *string         `json:"transfer_role,omitempty"`
	RecurringID          *uuid.UUID      `json:"recurring_id,omitempty"`
	IsRecurringGenerated bool            `json:"is_recurring_generated"`
	Tags                 []string        `json:"tags"`
	CreatedAt            time.Time       `json:"created_at"`
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	dto := transactionDTO{
		ID:                   t.ID,
		Type:                 string(t.Type),
		Amount:               t.Amount,
		Description:          t.Description,
		Category:             t.Category,
		Date:                 t.Date,
		AccountID:            t.AccountID,
		SourceAccountID:      t.SourceAccountID,
		DestinationAccountID: t.DestinationAccountID,
		TransferGroupID:      t.TransferGroupID,
		RecurringID:          t.RecurringID,
		IsRecurringGenerated: t.IsRecurringGenerated,
		Tags:                 t.Tags,
		CreatedAt:            t.CreatedAt,
	}
	if t.TransferRole != nil {
		role := string(*t.TransferRole)
		dto.TransferRole = &role
	}
	if dto.Tags == nil {
		dto.Tags = []string{}
	}
	return dto
}

func toTransactionDTOs(txns []domain.Transaction) []transactionDTO {
	dtos := make([]transactionDTO, len(txns))
	for i := range txns {
		dtos[i] = toTransactionDTO(&txns[i])
	}
	return dtos
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	ownerID, appErr := requireOwner(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	created, err := h.ledger.Create(r.Context(), req.toLedger(ownerID))
	if err != nil {
		log.Warn("transaction creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/transactions/%s", created[0].ID))
	RespondSuccess(w, http.StatusCreated, toTransactionDTOs(created))
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	t, err := h.ledger.Get(r.Context(), ownerID, id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("transaction lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTO(t))
}

func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

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

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	created, err := h.ledger.Update(r.Context(), id, req.toLedger(ownerID))
	if err != nil {
		log.Warn("transaction update failed", "transaction_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTOs(created))
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.ledger.Delete(r.Context(), ownerID, id); err != nil {
		logging.FromContext(r.Context()).Warn("transaction delete failed", "transaction_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

func (h *TransactionHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
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

	txns, err := h.ledger.ListByAccount(r.Context(), ownerID, accountID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list transactions", "account_id", accountID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTOs(txns))
}
