package recurring

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/finance-ledger/internal/domain"
	"github.com/josh-kwaku/finance-ledger/internal/logging"
)

type CreateDefinitionRequest struct {
	OwnerID              uuid.UUID
	Name                 string
	Description          *string
	Amount               decimal.Decimal
	Type                 domain.TransactionType
	Category             *string
	Frequency            domain.Frequency
	StartDate            time.Time
	EndDate              *time.Time
	AccountID            uuid.UUID
	DestinationAccountID *uuid.UUID
}

func (s *Scheduler) CreateDefinition(ctx context.Context, req CreateDefinitionRequest) (*domain.RecurringDefinition, error) {
	log := logging.FromContext(ctx)

	if err := validateDefinition(req); err != nil {
		return nil, fmt.Errorf("CreateDefinition: %w", err)
	}

	if _, err := s.accounts.GetByID(ctx, req.AccountID, req.OwnerID); err != nil {
		return nil, fmt.Errorf("CreateDefinition: %w", err)
	}
	if req.Type == domain.TransactionTypeTransfer {
		if _, err := s.accounts.GetByID(ctx, *req.DestinationAccountID, req.OwnerID); err != nil {
			return nil, fmt.Errorf("CreateDefinition: destination: %w", err)
		}
	} else {
		req.DestinationAccountID = nil
	}

	now := s.now()
	start := req.StartDate.UTC()
	def := &domain.RecurringDefinition{
		ID:                   uuid.New(),
		UserID:               req.OwnerID,
		Name:                 strings.TrimSpace(req.Name),
		Description:          req.Description,
		Amount:               req.Amount.Round(2),
		Type:                 req.Type,
		Category:             req.Category,
		Frequency:            req.Frequency,
		StartDate:            start,
		EndDate:              req.EndDate,
		NextRunAt:            firstRun(start, req.Frequency, now),
		Status:               domain.RecurringStatusActive,
		AccountID:            req.AccountID,
		DestinationAccountID: req.DestinationAccountID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.definitions.Create(ctx, def); err != nil {
		return nil, fmt.Errorf("CreateDefinition: %w", err)
	}

	log.Info("recurring definition created",
		"recurring_id", def.ID,
		"frequency", def.Frequency,
		"next_run_at", def.NextRunAt,
	)

	return def, nil
}

// firstRun schedules a future start as-is; a start at or before now runs
// one period after it.
func firstRun(start time.Time, f domain.Frequency, now time.Time) time.Time {
	if start.After(now) {
		return start
	}
	return f.Step(start)
}

func (s *Scheduler) GetDefinition(ctx context.Context, ownerID, id uuid.UUID) (*domain.RecurringDefinition, error) {
	def, err := s.definitions.GetByID(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("GetDefinition: %w", err)
	}
	return def, nil
}

// ListDefinitions returns every definition of ownerID: active ones first,
// then paused, then ended, each ordered by next run.
func (s *Scheduler) ListDefinitions(ctx context.Context, ownerID uuid.UUID) ([]domain.RecurringDefinition, error) {
	defs, err := s.definitions.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ListDefinitions: %w", err)
	}
	return defs, nil
}

func (s *Scheduler) Pause(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.transition(ctx, ownerID, id, domain.RecurringStatusActive, domain.RecurringStatusPaused); err != nil {
		return fmt.Errorf("Pause: %w", err)
	}
	return nil
}

func (s *Scheduler) Resume(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.transition(ctx, ownerID, id, domain.RecurringStatusPaused, domain.RecurringStatusActive); err != nil {
		return fmt.Errorf("Resume: %w", err)
	}
	return nil
}

// End stops a definition permanently. Ending an already ended definition
// is a no-op.
func (s *Scheduler) End(ctx context.Context, ownerID, id uuid.UUID) error {
	log := logging.FromContext(ctx)

	now := s.now()
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		def, err := s.definitions.GetForUpdate(ctx, tx, id, ownerID)
		if err != nil {
			return err
		}
		if def.Status == domain.RecurringStatusEnded {
			return nil
		}
		return s.definitions.UpdateStatus(ctx, tx, id, ownerID, domain.RecurringStatusEnded, &now)
	})
	if err != nil {
		return fmt.Errorf("End: %w", err)
	}

	log.Info("recurring definition ended", "recurring_id", id)
	return nil
}

func (s *Scheduler) transition(ctx context.Context, ownerID, id uuid.UUID, from, to domain.RecurringStatus) error {
	log := logging.FromContext(ctx)

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		def, err := s.definitions.GetForUpdate(ctx, tx, id, ownerID)
		if err != nil {
			return err
		}
		if def.Status != from {
			if from == domain.RecurringStatusPaused {
				return domain.ErrRecurringNotPaused
			}
			return domain.ErrRecurringNotActive
		}
		return s.definitions.UpdateStatus(ctx, tx, id, ownerID, to, nil)
	})
	if err != nil {
		return fmt.Errorf("transition: %w", err)
	}

	log.Info("recurring definition status changed", "recurring_id", id, "from", from, "to", to)
	return nil
}

func validateDefinition(req CreateDefinitionRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("validateDefinition: %w: name is required", domain.ErrInvalidInput)
	}
	if !req.Amount.Round(2).IsPositive() {
		return fmt.Errorf("validateDefinition: %w", domain.ErrInvalidAmount)
	}
	if !req.Type.IsValid() {
		return fmt.Errorf("validateDefinition: %q: %w", req.Type, domain.ErrInvalidType)
	}
	if !req.Frequency.IsValid() {
		return fmt.Errorf("validateDefinition: %q: %w", req.Frequency, domain.ErrInvalidFrequency)
	}
	if req.StartDate.IsZero() {
		return fmt.Errorf("validateDefinition: %w: start date is required", domain.ErrInvalidInput)
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return fmt.Errorf("validateDefinition: %w: end date precedes start date", domain.ErrInvalidInput)
	}
	if req.Type != domain.TransactionTypeTransfer {
		return nil
	}
	if req.DestinationAccountID == nil || *req.DestinationAccountID == uuid.Nil {
		return fmt.Errorf("validateDefinition: %w", domain.ErrMissingDestination)
	}
	if *req.DestinationAccountID == req.AccountID {
		return fmt.Errorf("validateDefinition: %w", domain.ErrSelfTransfer)
	}
	return nil
}
