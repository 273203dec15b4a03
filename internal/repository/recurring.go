package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/finance-ledger/internal/domain"
)

const recurringColumns = `id, user_id, name, description, amount, type, category, frequency,
	start_date, end_date, next_run_at, last_generated_at, status,
	account_id, destination_account_id, created_at, updated_at`

type RecurringRepository struct {
	db *sql.DB
}

func NewRecurringRepository(db *sql.DB) *RecurringRepository {
	return &RecurringRepository{db: db}
}

func (r *RecurringRepository) Create(ctx context.Context, d *domain.RecurringDefinition) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_definitions (
			id, user_id, name, description, amount, type, category, frequency,
			start_date, end_date, next_run_at, last_generated_at, status,
			account_id, destination_account_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		d.ID, d.UserID, d.Name, d.Description, d.Amount, d.Type, d.Category, d.Frequency,
		d.StartDate, d.EndDate, d.NextRunAt, d.LastGeneratedAt, d.Status,
		d.AccountID, nullUUID(d.DestinationAccountID), d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *RecurringRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.RecurringDefinition, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_definitions WHERE id = $1 AND user_id = $2`, id, userID,
	)
	d, err := scanRecurring(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return d, nil
}

func (r *RecurringRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id, userID uuid.UUID) (*domain.RecurringDefinition, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_definitions WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID,
	)
	d, err := scanRecurring(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return d, nil
}

// ListByUser orders active definitions first, then paused, then ended,
// each by next run.
func (r *RecurringRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.RecurringDefinition, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_definitions
		WHERE user_id = $1
		ORDER BY CASE status WHEN 'ACTIVE' THEN 0 WHEN 'PAUSED' THEN 1 ELSE 2 END, next_run_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByUser: %w", err)
	}
	defer rows.Close()

	var defs []domain.RecurringDefinition
	for rows.Next() {
		d, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByUser: scan: %w", err)
		}
		defs = append(defs, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByUser: rows: %w", err)
	}
	return defs, nil
}

// ListDue returns the user's active definitions whose next run is at or
// before now and whose end date, if any, has not passed.
func (r *RecurringRepository) ListDue(ctx context.Context, userID uuid.UUID, now time.Time) ([]domain.RecurringDefinition, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_definitions
		WHERE user_id = $1 AND status = $2 AND next_run_at <= $3
			AND (end_date IS NULL OR end_date >= $3)
		ORDER BY next_run_at, id`,
		userID, domain.RecurringStatusActive, now,
	)
	if err != nil {
		return nil, fmt.Errorf("ListDue: %w", err)
	}
	defer rows.Close()

	var defs []domain.RecurringDefinition
	for rows.Next() {
		d, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("ListDue: scan: %w", err)
		}
		defs = append(defs, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListDue: rows: %w", err)
	}
	return defs, nil
}

func (r *RecurringRepository) ListDueOwners(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM recurring_definitions
		WHERE status = $1 AND next_run_at <= $2 AND (end_date IS NULL OR end_date >= $2)`,
		domain.RecurringStatusActive, now,
	)
	if err != nil {
		return nil, fmt.Errorf("ListDueOwners: %w", err)
	}
	defer rows.Close()

	var owners []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ListDueOwners: scan: %w", err)
		}
		owners = append(owners, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListDueOwners: rows: %w", err)
	}
	return owners, nil
}

func (r *RecurringRepository) Advance(ctx context.Context, tx *sql.Tx, id uuid.UUID, nextRunAt, generatedAt time.Time, status domain.RecurringStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE recurring_definitions
		SET next_run_at = $1, last_generated_at = $2, status = $3, updated_at = now()
		WHERE id = $4`,
		nextRunAt, generatedAt, status, id,
	)
	if err != nil {
		return fmt.Errorf("Advance: %w", err)
	}
	return expectOneRow(res, "Advance")
}

func (r *RecurringRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id, userID uuid.UUID, status domain.RecurringStatus, endDate *time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE recurring_definitions
		SET status = $1, end_date = COALESCE($2, end_date), updated_at = now()
		WHERE id = $3 AND user_id = $4`,
		status, endDate, id, userID,
	)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}
	return expectOneRow(res, "UpdateStatus")
}

func scanRecurring(s scanner) (*domain.RecurringDefinition, error) {
	var d domain.RecurringDefinition
	var destID uuid.NullUUID
	err := s.Scan(
		&d.ID, &d.UserID, &d.Name, &d.Description, &d.Amount, &d.Type, &d.Category, &d.Frequency,
		&d.StartDate, &d.EndDate, &d.NextRunAt, &d.LastGeneratedAt, &d.Status,
		&d.AccountID, &destID, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.DestinationAccountID = uuidPtr(destID)
	return &d, nil
}

func expectOneRow(res sql.Result, op string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}
