package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/josh-kwaku/finance-ledger/internal/domain"
)

const transactionColumns = `id, user_id, type, amount, description, category, date,
	account_id, source_account_id, destination_account_id,
	transfer_group_id, transfer_role, recurring_id, is_recurring_generated, created_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	var role *string
	if t.TransferRole != nil {
		s := string(*t.TransferRole)
		role = &s
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (
			id, user_id, type, amount, description, category, date,
			account_id, source_account_id, destination_account_id,
			transfer_group_id, transfer_role, recurring_id, is_recurring_generated, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		t.ID, t.UserID, t.Type, t.Amount, t.Description, t.Category, t.Date,
		t.AccountID, nullUUID(t.SourceAccountID), nullUUID(t.DestinationAccountID),
		nullUUID(t.TransferGroupID), role, nullUUID(t.RecurringID), t.IsRecurringGenerated, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2`, id, userID,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return t, nil
}

// GetForUpdate locks the row so a concurrent delete or update of the same
// transaction waits and then observes it gone.
func (r *TransactionRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id, userID uuid.UUID) (*domain.Transaction, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return t, nil
}

func (r *TransactionRepository) GetByGroupForUpdate(ctx context.Context, tx *sql.Tx, groupID, userID uuid.UUID) ([]domain.Transaction, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE transfer_group_id = $1 AND user_id = $2 ORDER BY transfer_role DESC FOR UPDATE`,
		groupID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByGroupForUpdate: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByGroupForUpdate: scan: %w", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByGroupForUpdate: rows: %w", err)
	}
	return txns, nil
}

func (r *TransactionRepository) DeleteByIDs(ctx context.Context, tx *sql.Tx, ids []uuid.UUID) error {
	res, err := tx.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ANY($1::uuid[])`, pq.StringArray(uuidStrings(ids)),
	)
	if err != nil {
		return fmt.Errorf("DeleteByIDs: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteByIDs: rows affected: %w", err)
	}
	if rows != int64(len(ids)) {
		return fmt.Errorf("DeleteByIDs: deleted %d of %d: %w", rows, len(ids), domain.ErrNotFound)
	}
	return nil
}

// ExistsForRecurringInWindow reports whether a transaction generated from
// recurringID is dated within [from, to).
func (r *TransactionRepository) ExistsForRecurringInWindow(ctx context.Context, tx *sql.Tx, userID, recurringID uuid.UUID, from, to time.Time) (bool, error) {
	var found bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE user_id = $1 AND recurring_id = $2 AND date >= $3 AND date < $4
		)`,
		userID, recurringID, from, to,
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("ExistsForRecurringInWindow: %w", err)
	}
	return found, nil
}

func (r *TransactionRepository) GetByAccountID(ctx context.Context, accountID, userID uuid.UUID) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = $1 AND user_id = $2 ORDER BY date DESC, created_at DESC`,
		accountID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByAccountID: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByAccountID: scan: %w", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByAccountID: rows: %w", err)
	}
	return txns, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	var sourceID, destID, groupID, recurringID uuid.NullUUID
	var role *string

	err := s.Scan(
		&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Description, &t.Category, &t.Date,
		&t.AccountID, &sourceID, &destID,
		&groupID, &role, &recurringID, &t.IsRecurringGenerated, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.SourceAccountID = uuidPtr(sourceID)
	t.DestinationAccountID = uuidPtr(destID)
	t.TransferGroupID = uuidPtr(groupID)
	t.RecurringID = uuidPtr(recurringID)
	if role != nil {
		tr := domain.TransferRole(*role)
		t.TransferRole = &tr
	}

	return &t, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func uuidPtr(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
