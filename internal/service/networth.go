package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/finance-ledger/internal/domain"
	"github.com/josh-kwaku/finance-ledger/internal/logging"
)

const maxNotesLen = 500

type netWorthRepo interface {
	Create(ctx context.Context, e *domain.NetWorthEntry) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.NetWorthEntry, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.NetWorthEntry, error)
	Update(ctx context.Context, e *domain.NetWorthEntry) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// NetWorthService keeps manually valued assets and debts. Entries are
// bookkeeping only and never touch the ledger.
type NetWorthService struct {
	entries netWorthRepo
	now     func() time.Time
}

func NewNetWorthService(entries netWorthRepo) *NetWorthService {
	return &NetWorthService{
		entries: entries,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type CreateNetWorthEntryRequest struct {
	OwnerID       uuid.UUID
	Type          domain.NetWorthEntryType
	Category      string
	Name          string
	CurrentValue  decimal.Decimal
	Currency      domain.Currency
	Notes         *string
	ValuationDate *time.Time
}

func (s *NetWorthService) CreateEntry(ctx context.Context, req CreateNetWorthEntryRequest) (*domain.NetWorthEntry, error) {
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("CreateEntry: %w: type must be ASSET or DEBT", domain.ErrInvalidInput)
	}

	now := s.now()
	e := &domain.NetWorthEntry{
		ID:            uuid.New(),
		UserID:        req.OwnerID,
		Type:          req.Type,
		Category:      strings.TrimSpace(req.Category),
		Name:          strings.TrimSpace(req.Name),
		CurrentValue:  req.CurrentValue.Round(2),
		Currency:      domain.Currency(strings.ToUpper(string(req.Currency))),
		Notes:         trimNotes(req.Notes),
		ValuationDate: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.ValuationDate != nil {
		e.ValuationDate = req.ValuationDate.UTC()
	}
	if err := validateEntry(e); err != nil {
		return nil, fmt.Errorf("CreateEntry: %w", err)
	}

	if err := s.entries.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("CreateEntry: %w", err)
	}

	logging.FromContext(ctx).Info("net worth entry created", "entry_id", e.ID, "type", e.Type)
	return e, nil
}

func (s *NetWorthService) ListEntries(ctx context.Context, ownerID uuid.UUID) ([]domain.NetWorthEntry, error) {
	entries, err := s.entries.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ListEntries: %w", err)
	}
	return entries, nil
}

// UpdateNetWorthEntryRequest changes the fields that are set. An empty
// Notes string clears the notes.
type UpdateNetWorthEntryRequest struct {
	OwnerID       uuid.UUID
	EntryID       uuid.UUID
	Category      *string
	Name          *string
	CurrentValue  *decimal.Decimal
	Currency      *domain.Currency
	Notes         *string
	ValuationDate *time.Time
}

func (s *NetWorthService) UpdateEntry(ctx context.Context, req UpdateNetWorthEntryRequest) (*domain.NetWorthEntry, error) {
	e, err := s.entries.GetByID(ctx, req.EntryID, req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("UpdateEntry: %w", err)
	}

	if req.Category != nil {
		e.Category = strings.TrimSpace(*req.Category)
	}
	if req.Name != nil {
		e.Name = strings.TrimSpace(*req.Name)
	}
	if req.CurrentValue != nil {
		e.CurrentValue = req.CurrentValue.Round(2)
	}
	if req.Currency != nil {
		e.Currency = domain.Currency(strings.ToUpper(string(*req.Currency)))
	}
	if req.Notes != nil {
		e.Notes = trimNotes(req.Notes)
	}
	if req.ValuationDate != nil {
		e.ValuationDate = req.ValuationDate.UTC()
	}
	if err := validateEntry(e); err != nil {
		return nil, fmt.Errorf("UpdateEntry: %w", err)
	}

	e.UpdatedAt = s.now()
	if err := s.entries.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("UpdateEntry: %w", err)
	}
	return e, nil
}

func (s *NetWorthService) DeleteEntry(ctx context.Context, ownerID, entryID uuid.UUID) error {
	if err := s.entries.Delete(ctx, entryID, ownerID); err != nil {
		return fmt.Errorf("DeleteEntry: %w", err)
	}
	logging.FromContext(ctx).Info("net worth entry deleted", "entry_id", entryID)
	return nil
}

func validateEntry(e *domain.NetWorthEntry) error {
	if n := utf8.RuneCountInString(e.Category); n < 2 || n > 60 {
		return fmt.Errorf("validateEntry: %w: category must be 2 to 60 characters", domain.ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(e.Name); n < 2 || n > 120 {
		return fmt.Errorf("validateEntry: %w: name must be 2 to 120 characters", domain.ErrInvalidInput)
	}
	if !e.Currency.IsValid() {
		return fmt.Errorf("validateEntry: %w", domain.ErrInvalidCurrency)
	}
	if e.Notes != nil && utf8.RuneCountInString(*e.Notes) > maxNotesLen {
		return fmt.Errorf("validateEntry: %w: notes exceed %d characters", domain.ErrInvalidInput, maxNotesLen)
	}
	return nil
}

func trimNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
