package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/finance-ledger/internal/domain"
)

const netWorthColumns = `id, user_id, type, category, name, current_value, currency, notes,
	valuation_date, created_at, updated_at`

type NetWorthRepository struct {
	db *sql.DB
}

func NewNetWorthRepository(db *sql.DB) *NetWorthRepository {
	return &NetWorthRepository{db: db}
}

func (r *NetWorthRepository) Create(ctx context.Context, e *domain.NetWorthEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO net_worth_entries (`+netWorthColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.UserID, e.Type, e.Category, e.Name, e.CurrentValue, e.Currency, e.Notes,
		e.ValuationDate, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *NetWorthRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.NetWorthEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+netWorthColumns+` FROM net_worth_entries WHERE id = $1 AND user_id = $2`, id, userID,
	)
	e, err := scanNetWorth(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return e, nil
}

// ListByUser returns the most recently touched entries first.
func (r *NetWorthRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.NetWorthEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+netWorthColumns+` FROM net_worth_entries
		WHERE user_id = $1 ORDER BY updated_at DESC, id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByUser: %w", err)
	}
	defer rows.Close()

	var entries []domain.NetWorthEntry
	for rows.Next() {
		e, err := scanNetWorth(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByUser: scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByUser: rows: %w", err)
	}
	return entries, nil
}

// Update writes every editable column of e. The entry type is fixed at
// creation.
func (r *NetWorthRepository) Update(ctx context.Context, e *domain.NetWorthEntry) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE net_worth_entries
		SET category = $1, name = $2, current_value = $3, currency = $4, notes = $5,
			valuation_date = $6, updated_at = $7
		WHERE id = $8 AND user_id = $9`,
		e.Category, e.Name, e.CurrentValue, e.Currency, e.Notes,
		e.ValuationDate, e.UpdatedAt, e.ID, e.UserID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	return expectOneRow(res, "Update")
}

func (r *NetWorthRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM net_worth_entries WHERE id = $1 AND user_id = $2`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return expectOneRow(res, "Delete")
}

func scanNetWorth(s scanner) (*domain.NetWorthEntry, error) {
	var e domain.NetWorthEntry
	err := s.Scan(
		&e.ID, &e.UserID, &e.Type, &e.Category, &e.Name, &e.CurrentValue, &e.Currency, &e.Notes,
		&e.ValuationDate, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
