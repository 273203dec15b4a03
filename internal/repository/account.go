package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/finance-ledger/internal/domain"
)

const accountColumns = `id, user_id, name, account_type, currency, initial_balance, balance, created_at`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND user_id = $2`, id, userID,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY account_type, created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByUserID: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByUserID: scan: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByUserID: rows: %w", err)
	}
	return accounts, nil
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (
			id, user_id, name, account_type, currency, initial_balance, balance, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		account.ID, account.UserID, account.Name, account.Type, account.Currency,
		account.InitialBalance, account.Balance, account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *AccountRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id, userID uuid.UUID) (*domain.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return a, nil
}

// Rename sets the account's name and type. Currency and balances are not
// editable.
func (r *AccountRepository) Rename(ctx context.Context, id, userID uuid.UUID, name string, accountType domain.AccountType) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE accounts SET name = $1, account_type = $2
		WHERE id = $3 AND user_id = $4
		RETURNING `+accountColumns,
		name, accountType, id, userID,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Rename: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("Rename: %w", err)
	}
	return a, nil
}

// CountReferences counts the rows that keep an account alive: ledger rows
// on it or naming it as a transfer side, active recurring definitions on
// either side, and loans of any status.
func (r *AccountRepository) CountReferences(ctx context.Context, tx *sql.Tx, id uuid.UUID) (domain.AccountReferences, error) {
	var refs domain.AccountReferences
	err := tx.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM transactions
				WHERE account_id = $1 OR source_account_id = $1 OR destination_account_id = $1),
			(SELECT COUNT(*) FROM recurring_definitions
				WHERE status = $2 AND (account_id = $1 OR destination_account_id = $1)),
			(SELECT COUNT(*) FROM loans WHERE account_id = $1)`,
		id, domain.RecurringStatusActive,
	).Scan(&refs.Transactions, &refs.ActiveRecurring, &refs.Loans)
	if err != nil {
		return domain.AccountReferences{}, fmt.Errorf("CountReferences: %w", err)
	}
	return refs, nil
}

// Delete removes the account together with the paused or ended recurring
// definitions that still point at it.
func (r *AccountRepository) Delete(ctx context.Context, tx *sql.Tx, id, userID uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM recurring_definitions
		WHERE user_id = $1 AND status <> $2 AND (account_id = $3 OR destination_account_id = $3)`,
		userID, domain.RecurringStatusActive, id,
	)
	if err != nil {
		return fmt.Errorf("Delete: recurring definitions: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Delete: %s: %w", id, domain.ErrAccountNotFound)
	}
	return nil
}

// Exists checks ownership inside tx without taking a row lock; the balance
// update that follows takes it.
func (r *AccountRepository) Exists(ctx context.Context, tx *sql.Tx, id, userID uuid.UUID) error {
	var found bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1 AND user_id = $2)`, id, userID,
	).Scan(&found)
	if err != nil {
		return fmt.Errorf("Exists: %w", err)
	}
	if !found {
		return fmt.Errorf("Exists: %s: %w", id, domain.ErrAccountNotFound)
	}
	return nil
}

// IncrementBalance adds delta to the stored balance in a single UPDATE so
// concurrent writers serialise on the row lock instead of racing a
// read-modify-write.
func (r *AccountRepository) IncrementBalance(ctx context.Context, tx *sql.Tx, id, userID uuid.UUID, delta decimal.Decimal) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = balance + $1 WHERE id = $2 AND user_id = $3`,
		delta, id, userID,
	)
	if err != nil {
		return fmt.Errorf("IncrementBalance: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("IncrementBalance: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("IncrementBalance: %s: %w", id, domain.ErrAccountNotFound)
	}
	return nil
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	err := s.Scan(
		&a.ID, &a.UserID, &a.Name, &a.Type, &a.Currency,
		&a.InitialBalance, &a.Balance, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
