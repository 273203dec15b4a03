package recurring

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/finance-ledger/internal/domain"
	"github.com/josh-kwaku/finance-ledger/internal/logging"
	"github.com/josh-kwaku/finance-ledger/internal/service/ledger"
)

type GenerateResult struct {
	Scanned   int
	Generated int
	// Skipped counts definitions advanced without a new transaction, either
	// because the window already had one or a concurrent scan moved them.
	Skipped  int
	Failures []Failure
}

type Failure struct {
	DefinitionID uuid.UUID
	Err          error
}

type outcome int

const (
	outcomeGenerated outcome = iota
	outcomeDeduplicated
	outcomeRaced
)

// GenerateDue creates at most one occurrence per due definition of ownerID.
// Each definition is handled in its own unit, so one failure does not stop
// the scan; failures are returned in the result rather than as an error.
func (s *Scheduler) GenerateDue(ctx context.Context, ownerID uuid.UUID, now time.Time) (*GenerateResult, error) {
	log := logging.FromContext(ctx)

	due, err := s.definitions.ListDue(ctx, ownerID, now)
	if err != nil {
		return nil, fmt.Errorf("GenerateDue: %w", err)
	}

	result := &GenerateResult{Scanned: len(due)}
	for i := range due {
		def := &due[i]

		out, err := s.generateOne(ctx, def, now)
		if err != nil {
			log.Warn("recurring occurrence failed",
				"recurring_id", def.ID,
				"next_run_at", def.NextRunAt,
				"error", err,
			)
			result.Failures = append(result.Failures, Failure{DefinitionID: def.ID, Err: err})
			continue
		}

		switch out {
		case outcomeGenerated:
			result.Generated++
		default:
			result.Skipped++
		}
	}

	log.Info("recurring scan completed",
		"owner_id", ownerID,
		"scanned", result.Scanned,
		"generated", result.Generated,
		"skipped", result.Skipped,
		"failed", len(result.Failures),
	)

	return result, nil
}

func (s *Scheduler) generateOne(ctx context.Context, listed *domain.RecurringDefinition, now time.Time) (outcome, error) {
	var out outcome
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		def, err := s.definitions.GetForUpdate(ctx, tx, listed.ID, listed.UserID)
		if err != nil {
			return err
		}
		if def.Status != domain.RecurringStatusActive {
			return domain.ErrRecurringNotActive
		}
		// the listing ran without locks; a concurrent scan or an End may
		// have moved the definition since
		if !def.NextRunAt.Equal(listed.NextRunAt) || !def.IsDue(now) {
			out = outcomeRaced
			return nil
		}

		windowEnd := def.Frequency.Step(def.NextRunAt)
		exists, err := s.occurrences.ExistsForRecurringInWindow(ctx, tx, def.UserID, def.ID, def.NextRunAt, windowEnd)
		if err != nil {
			return err
		}

		out = outcomeDeduplicated
		if !exists {
			if _, err := s.ledger.CreateInTx(ctx, tx, occurrenceRequest(def)); err != nil {
				return err
			}
			out = outcomeGenerated
		}

		// ENDED once the end date has been reached or the next run would
		// fall after it.
		status := domain.RecurringStatusActive
		if def.EndDate != nil && (!def.EndDate.After(now) || windowEnd.After(*def.EndDate)) {
			status = domain.RecurringStatusEnded
		}
		return s.definitions.Advance(ctx, tx, def.ID, windowEnd, now, status)
	})
	if err != nil {
		return 0, fmt.Errorf("generateOne: %s: %w", listed.ID, err)
	}
	return out, nil
}

func occurrenceRequest(def *domain.RecurringDefinition) ledger.CreateRequest {
	date := def.NextRunAt
	id := def.ID
	return ledger.CreateRequest{
		OwnerID:              def.UserID,
		Type:                 def.Type,
		Amount:               def.Amount,
		Description:          def.Name,
		Category:             def.Category,
		Date:                 &date,
		AccountID:            def.AccountID,
		DestinationAccountID: def.DestinationAccountID,
		RecurringID:          &id,
	}
}

// DueOwners lists the owners that currently have at least one due
// definition, for triggers that scan every owner.
func (s *Scheduler) DueOwners(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	owners, err := s.definitions.ListDueOwners(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("DueOwners: %w", err)
	}
	return owners, nil
}
