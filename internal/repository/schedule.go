package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/finance-ledger/internal/domain"
)

const scheduleColumns = `id, loan_id, due_date, amount, principal_component, interest_component,
	status, paid_at, transaction_id`

type ScheduleRepository struct {
	db *sql.DB
}

func NewScheduleRepository(db *sql.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) CreateRows(ctx context.Context, tx *sql.Tx, rows []domain.ScheduleRow) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO loan_schedule_rows (
			id, loan_id, due_date, amount, principal_component, interest_component, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	)
	if err != nil {
		return fmt.Errorf("CreateRows: prepare: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx,
			row.ID, row.LoanID, row.DueDate, row.Amount,
			row.PrincipalComponent, row.InterestComponent, row.Status,
		); err != nil {
			return fmt.Errorf("CreateRows: %s: %w", row.ID, err)
		}
	}
	return nil
}

func (r *ScheduleRepository) GetByLoanID(ctx context.Context, loanID uuid.UUID) ([]domain.ScheduleRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM loan_schedule_rows WHERE loan_id = $1 ORDER BY due_date`, loanID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByLoanID: %w", err)
	}
	defer rows.Close()

	return collectScheduleRows(rows, "GetByLoanID")
}

// GetForUpdate locks one installment, scoped to its loan and the loan's owner.
func (r *ScheduleRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id, loanID, userID uuid.UUID) (*domain.ScheduleRow, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT s.id, s.loan_id, s.due_date, s.amount, s.principal_component, s.interest_component,
			s.status, s.paid_at, s.transaction_id
		FROM loan_schedule_rows s
		JOIN loans l ON l.id = s.loan_id
		WHERE s.id = $1 AND s.loan_id = $2 AND l.user_id = $3
		FOR UPDATE OF s`,
		id, loanID, userID,
	)
	sr, err := scanScheduleRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return sr, nil
}

func (r *ScheduleRepository) GetPendingForUpdate(ctx context.Context, tx *sql.Tx, loanID uuid.UUID) ([]domain.ScheduleRow, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM loan_schedule_rows
		WHERE loan_id = $1 AND status = $2 ORDER BY due_date FOR UPDATE`,
		loanID, domain.ScheduleStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("GetPendingForUpdate: %w", err)
	}
	defer rows.Close()

	return collectScheduleRows(rows, "GetPendingForUpdate")
}

func (r *ScheduleRepository) MarkPaid(ctx context.Context, tx *sql.Tx, id, transactionID uuid.UUID, paidAt time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE loan_schedule_rows SET status = $1, paid_at = $2, transaction_id = $3
		WHERE id = $4 AND status = $5`,
		domain.ScheduleStatusPaid, paidAt, transactionID, id, domain.ScheduleStatusPending,
	)
	if err != nil {
		return fmt.Errorf("MarkPaid: %w", err)
	}
	return expectOneRow(res, "MarkPaid")
}

// Overwrite replaces the money fields of a pending row. Due date and status
// are left as they are.
func (r *ScheduleRepository) Overwrite(ctx context.Context, tx *sql.Tx, id uuid.UUID, amount, principal, interest decimal.Decimal) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE loan_schedule_rows SET amount = $1, principal_component = $2, interest_component = $3
		WHERE id = $4 AND status = $5`,
		amount, principal, interest, id, domain.ScheduleStatusPending,
	)
	if err != nil {
		return fmt.Errorf("Overwrite: %w", err)
	}
	return expectOneRow(res, "Overwrite")
}

func collectScheduleRows(rows *sql.Rows, op string) ([]domain.ScheduleRow, error) {
	var out []domain.ScheduleRow
	for rows.Next() {
		sr, err := scanScheduleRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, *sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return out, nil
}

func scanScheduleRow(s scanner) (*domain.ScheduleRow, error) {
	var sr domain.ScheduleRow
	var txnID uuid.NullUUID
	err := s.Scan(
		&sr.ID, &sr.LoanID, &sr.DueDate, &sr.Amount, &sr.PrincipalComponent, &sr.InterestComponent,
		&sr.Status, &sr.PaidAt, &txnID,
	)
	if err != nil {
		return nil, err
	}
	sr.TransactionID = uuidPtr(txnID)
	return &sr, nil
}
