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

type netWorthService interface {
	CreateEntry(ctx context.Context, req service.CreateNetWorthEntryRequest) (*domain.NetWorthEntry, error)
	ListEntries(ctx context.Context, ownerID uuid.UUID) ([]domain.NetWorthEntry, error)
	UpdateEntry(ctx context.Context, req service.UpdateNetWorthEntryRequest) (*domain.NetWorthEntry, error)
	DeleteEntry(ctx context.Context, ownerID, entryID uuid.UUID) error
}

type NetWorthHandler struct {
	entries netWorthService
}

func NewNetWorthHandler(entries netWorthService) *NetWorthHandler {
	return &NetWorthHandler{entries: entries}
}

type createNetWorthRequest struct {
	Type          string           `json:"type"`
	Category      string           `json:"category"`
	Name          string           `json:"name"`
	CurrentValue  *decimal.Decimal `json:"current_value"`
	Currency      string           `json:"currency"`
	Notes         *string          `json:"notes"`
	ValuationDate *time.Time       `json:"valuation_date"`
}

func (r createNetWorthRequest) Validate() []FieldError {
	var errs []FieldError
	if !domain.NetWorthEntryType(r.Type).IsValid() {
		errs = append(errs, FieldError{Field: "type", Message: "must be ASSET or DEBT"})
	}
	if strings.TrimSpace(r.Category) == "" {
		errs = append(errs, FieldError{Field: "category", Message: "required"})
	}
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if r.CurrentValue == nil {
		errs = append(errs, FieldError{Field: "current_value", Message: "required"})
	}
	if len(r.Currency) != 3 {
		errs = append(errs, FieldError{Field: "currency", Message: "must be a 3 letter code"})
	}
	return errs
}

type updateNetWorthRequest struct {
	Category      *string          `json:"category"`
	Name          *string          `json:"name"`
	CurrentValue  *decimal.Decimal `json:"current_value"`
	Currency      *string          `json:"currency"`
	Notes         *string          `json:"notes"`
	ValuationDate *time.Time       `json:"valuation_date"`
}

type netWorthEntryDTO struct {
	ID            uuid.UUID       `json:"id"`
	Type          string          `json:"type"`
	Category      string          `json:"category"`
	Name          string          `json:"name"`
	CurrentValue  decimal.Decimal `json:"current_value"`
	Currency      string          `json:"currency"`
	Notes         *string         `json:"notes"`
	ValuationDate time.Time       `json:"valuation_date"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func toNetWorthEntryDTO(e *domain.NetWorthEntry) netWorthEntryDTO {
	return netWorthEntryDTO{
		ID:            e.ID,
		Type:          string(e.Type),
		Category:      e.Category,
		Name:          e.Name,
		CurrentValue:  e.CurrentValue,
		Currency:      string(e.Currency),
		Notes:         e.Notes,
		ValuationDate: e.ValuationDate,
		UpdatedAt:     e.UpdatedAt,
	}
}

func (h *NetWorthHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, appErr := requireOwner(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req createNetWorthRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	entry, err := h.entries.CreateEntry(r.Context(), service.CreateNetWorthEntryRequest{
		OwnerID:       ownerID,
		Type:          domain.NetWorthEntryType(req.Type),
		Category:      req.Category,
		Name:          req.Name,
		CurrentValue:  *req.CurrentValue,
		Currency:      domain.Currency(req.Currency),
		Notes:         req.Notes,
		ValuationDate: req.ValuationDate,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("net worth entry creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/net-worth/entries/%s", entry.ID))
	RespondSuccess(w, http.StatusCreated, toNetWorthEntryDTO(entry))
}

func (h *NetWorthHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, appErr := requireOwner(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	entries, err := h.entries.ListEntries(r.Context(), ownerID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list net worth entries", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]netWorthEntryDTO, len(entries))
	for i := range entries {
		dtos[i] = toNetWorthEntryDTO(&entries[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *NetWorthHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, appErr := requireOwner(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	entryID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req updateNetWorthRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	update := service.UpdateNetWorthEntryRequest{
		OwnerID:       ownerID,
		EntryID:       entryID,
		Category:      req.Category,
		Name:          req.Name,
		CurrentValue:  req.CurrentValue,
		Notes:         req.Notes,
		ValuationDate: req.ValuationDate,
	}
	if req.Currency != nil {
		c := domain.Currency(*req.Currency)
		update.Currency = &c
	}

	entry, err := h.entries.UpdateEntry(r.Context(), update)
	if err != nil {
		logging.FromContext(r.Context()).Warn("net worth entry update failed", "entry_id", entryID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toNetWorthEntryDTO(entry))
}

func (h *NetWorthHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, appErr := requireOwner(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	entryID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.entries.DeleteEntry(r.Context(), ownerID, entryID); err != nil {
		logging.FromContext(r.Context()).Warn("net worth entry delete failed", "entry_id", entryID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{"id": entryID, "deleted": true})
}
