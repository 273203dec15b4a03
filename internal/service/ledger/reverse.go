package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/finance-ledger/internal/domain"
	"github.com/josh-kwaku/finance-ledger/internal/logging"
)

// Update replaces a transaction by reversing it (and its transfer
// counterpart) and creating the new rows in the same unit. A transfer that
// stays a transfer keeps its group id. req.Date nil keeps the old date.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req CreateRequest) ([]domain.Transaction, error) {
	log := logging.FromContext(ctx)

	if err := validateCreate(req); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	var created []domain.Transaction
	var retired []uuid.UUID
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		deltas := balanceDeltas{}

		old, existing, err := s.retire(ctx, tx, req.OwnerID, id, deltas)
		if err != nil {
			return err
		}
		retired = existing

		date := old.Date
		if req.Date != nil {
			date = req.Date.UTC()
		}

		groupID := uuid.New()
		if old.Type == domain.TransactionTypeTransfer && req.Type == domain.TransactionTypeTransfer && old.TransferGroupID != nil {
			groupID = *old.TransferGroupID
		}

		created, err = s.insert(ctx, tx, req, date, groupID, deltas)
		if err != nil {
			return err
		}

		return deltas.apply(ctx, tx, s.accounts, req.OwnerID)
	})
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	log.Info("transaction updated",
		"transaction_id", id,
		"retired", len(retired),
		"created", len(created),
		"type", req.Type,
		"amount", req.Amount.String(),
	)

	return created, nil
}

// Delete reverses a transaction's balance effect and removes it together
// with its transfer counterpart and tag links.
func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	log := logging.FromContext(ctx)

	var retired []uuid.UUID
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		deltas := balanceDeltas{}

		_, existing, err := s.retire(ctx, tx, ownerID, id, deltas)
		if err != nil {
			return err
		}
		retired = existing

		return deltas.apply(ctx, tx, s.accounts, ownerID)
	})
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	log.Info("transaction deleted", "transaction_id", id, "rows", len(retired))
	return nil
}

// retire locks the row and any transfer siblings, records their reversal
// deltas, and deletes them with their tag links. It returns the row that
// was asked for and the ids of every row removed.
func (s *Service) retire(ctx context.Context, tx *sql.Tx, ownerID, id uuid.UUID, deltas balanceDeltas) (*domain.Transaction, []uuid.UUID, error) {
	log := logging.FromContext(ctx)

	target, err := s.transactions.GetForUpdate(ctx, tx, id, ownerID)
	if err != nil {
		return nil, nil, fmt.Errorf("retire: %w", err)
	}

	rows := []domain.Transaction{*target}
	if target.Type == domain.TransactionTypeTransfer {
		if target.TransferGroupID == nil {
			log.Warn("transfer row has no group id, reversing it alone",
				"transaction_id", target.ID,
				"account_id", target.AccountID,
			)
		} else {
			rows, err = s.transactions.GetByGroupForUpdate(ctx, tx, *target.TransferGroupID, ownerID)
			if err != nil {
				return nil, nil, fmt.Errorf("retire: %w", err)
			}
			if len(rows) != 2 {
				log.Warn("transfer group does not have two rows",
					"transfer_group_id", *target.TransferGroupID,
					"rows", len(rows),
				)
			}
		}
	}

	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		deltas.add(rows[i].AccountID, rows[i].ReversalDelta())
		ids[i] = rows[i].ID
	}

	if err := s.tags.UnlinkTransactions(ctx, tx, ids); err != nil {
		return nil, nil, fmt.Errorf("retire: %w", err)
	}
	if err := s.transactions.DeleteByIDs(ctx, tx, ids); err != nil {
		return nil, nil, fmt.Errorf("retire: %w", err)
	}

	return target, ids, nil
}
