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
	"github.com/josh-kwaku/finance-ledger/internal/service/recurring"
)

type recurringService interface {
	CreateDefinition(ctx context.Context, req recurring.CreateDefinitionRequest) (*domain.RecurringDefinition, error)
	GetDefinition(ctx context.Context, ownerID, id uuid.UUID) (*domain.RecurringDefinition, error)
	ListDefinitions(ctx context.Context, ownerID uuid.UUID) ([]domain.RecurringDefinition, error)
	GenerateDue(ctx context.Context, ownerID uuid.UUID, now time.Time) (*recurring.GenerateResult, error)
	Pause(ctx context.Context, ownerID, id uuid.UUID) error
	Resume(ctx context.Context, ownerID, id uuid.UUID) error
	End(ctx context.Context, ownerID, id uuid.UUID) error
}

type RecurringHandler struct {
	recurring recurringService
	now       func() time.Time
}

func NewRecurringHandler(svc recurringService) *RecurringHandler {
	return &RecurringHandler{
		recurring: svc,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type createRecurringRequest struct {
	Name                 string          `json:"name"`
	Description          *string         `json:"description"`
	Amount               decimal.Decimal `json:"amount"`
	Type                 string          `json:"type"`
	Category             *string         `json:"category"`
	Frequency            string          `json:"frequency"`
	StartDate            time.Time       `json:"start_date"`
	EndDate              *time.Time      `json:"end_date"`
	AccountID            uuid.UUID       `json:"account_id"`
	DestinationAccountID *uuid.UUID      `json:"destination_account_id"`
}

func (r createRecurringRequest) Validate() []FieldError {
	var errs []FieldError
	if n := len(strings.TrimSpace(r.Name)); n < 2 || n > 120 {
		errs = append(errs, FieldError{Field: "name", Message: "must be 2 to 120 characters"})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	if !domain.TransactionType(r.Type).IsValid() {
		errs = append(errs, FieldError{Field: "type", Message: "must be INCOME, EXPENSE or TRANSFER"})
	}
	if !domain.Frequency(r.Frequency).IsValid() {
		errs = append(errs, FieldError{Field: "frequency", Message: "must be DAILY, WEEKLY, MONTHLY or YEARLY"})
	}
	if r.StartDate.IsZero() {
		errs = append(errs, FieldError{Field: "start_date", Message: "required"})
	}
	if r.AccountID == uuid.Nil {
		errs = append(errs, FieldError{Field: "account_id", Message: "required"})
	}
	return errs
}

type recurringDTO struct {
	ID                   uuid.UUID       `json:"id"`
	Name                 string          `json:"name"`
	Description          *string         `json:"description"`
	Amount               decimal.Decimal `json:"amount"`
	Type                 string          `json:"type"`
	Category             *string         `json:"category"`
	Frequency            string          `json:"frequency"`
	StartDate            time.Time       `json:"start_date"`
	EndDate              *time.Time      `json:"end_date"`
	NextRunAt            time.Time       `json:"next_run_at"`
	LastGeneratedAt      *time.Time      `json:"last_generated_at"`
	Status               string          `json:"status"`
	AccountID            uuid.UUID       `json:"account_id"`
	DestinationAccountID *uuid.UUID      `json:"destination_account_id,omitempty"`
}

func toRecurringDTO(d *domain.RecurringDefinition) recurringDTO {
	return recurringDTO{
		ID:                   d.ID,
		Name:                 d.Name,
		Description:          d.Description,
		Amount:               d.Amount,
		Type:                 string(d.Type),
		Category:             d.Category,
		Frequency:            string(d.Frequency),
		StartDate:            d.StartDate,
		EndDate:              d.EndDate,
		NextRunAt:            d.NextRunAt,
		LastGeneratedAt:      d.LastGeneratedAt,
		Status:               string(d.Status),
		AccountID:            d.AccountID,
		DestinationAccountID: d.DestinationAccountID,
	}
}

type generateFailureDTO struct {
	RecurringID uuid.UUID `json:"recurring_id"`
	Code        string    `json:"code"`
}

type generateResultDTO struct {
	Scanned   int                  `json:"scanned"`
	Generated int                  `json:"generated"`
	Skipped   int                  `json:"skipped"`
	Failures  []generateFailureDTO `json:"failures"`
}

func (h *RecurringHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, appErr := requireOwner(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req createRecurringRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	def, err := h.recurring.CreateDefinition(r.Context(), recurring.CreateDefinitionRequest{
		OwnerID:              ownerID,
		Name:                 req.Name,
		Description:          req.Description,
		Amount:               req.Amount,
		Type:                 domain.TransactionType(req.Type),
		Category:             req.Category,
		Frequency:            domain.Frequency(req.Frequency),
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		AccountID:            req.AccountID,
		DestinationAccountID: req.DestinationAccountID,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("recurring definition creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/recurring/%s", def.ID))
	RespondSuccess(w, http.StatusCreated, toRecurringDTO(def))
}

func (h *RecurringHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	def, err := h.recurring.GetDefinition(r.Context(), ownerID, id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toRecurringDTO(def))
}

func (h *RecurringHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, appErr := requireOwner(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	defs, err := h.recurring.ListDefinitions(r.Context(), ownerID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list recurring definitions", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]recurringDTO, len(defs))
	for i := range defs {
		dtos[i] = toRecurringDTO(&defs[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

// Generate runs one due scan for the caller. Per-definition failures are
// part of a successful response.
func (h *RecurringHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ownerID, appErr := requireOwner(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	result, err := h.recurring.GenerateDue(r.Context(), ownerID, h.now())
	if err != nil {
		logging.FromContext(r.Context()).Error("recurring scan failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dto := generateResultDTO{
		Scanned:   result.Scanned,
		Generated: result.Generated,
		Skipped:   result.Skipped,
		Failures:  make([]generateFailureDTO, len(result.Failures)),
	}
	for i, f := range result.Failures {
		dto.Failures[i] = generateFailureDTO{RecurringID: f.DefinitionID, Code: appErrorFor(f.Err).Code}
	}

	RespondSuccess(w, http.StatusOK, dto)
}

func (h *RecurringHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.recurring.Pause)
}

func (h *RecurringHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.recurring.Resume)
}

func (h *RecurringHandler) End(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.recurring.End)
}

func (h *RecurringHandler) changeStatus(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, ownerID, id uuid.UUID) error) {
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

	if err := op(r.Context(), ownerID, id); err != nil {
		logging.FromContext(r.Context()).Warn("recurring status change failed", "recurring_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	def, err := h.recurring.GetDefinition(r.Context(), ownerID, id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toRecurringDTO(def))
}
