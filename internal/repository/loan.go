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

const loanColumns = `id, user_id, account_id, name, principal, interest_rate, tenure_months,
	start_date, emi_amount, remaining_principal, paid_principal, paid_interest,
	status, created_at, updated_at`

type LoanRepository struct {
	db *sql.DB
}

func NewLoanRepository(db *sql.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

func (r *LoanRepository) Create(ctx context.Context, tx *sql.Tx, l *domain.Loan) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO loans (
			id, user_id, account_id, name, principal, interest_rate, tenure_months,
			start_date, emi_amount, remaining_principal, paid_principal, paid_interest,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		l.ID, l.UserID, l.AccountID, l.Name, l.Principal, l.InterestRate, l.TenureMonths,
		l.StartDate, l.EMIAmount, l.RemainingPrincipal, l.PaidPrincipal, l.PaidInterest,
		l.Status, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *LoanRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Loan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = $1 AND user_id = $2`, id, userID,
	)
	l, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return l, nil
}

func (r *LoanRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Loan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE user_id = $1 ORDER BY status, created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByUserID: %w", err)
	}
	defer rows.Close()

	var loans []domain.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByUserID: scan: %w", err)
		}
		loans = append(loans, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByUserID: rows: %w", err)
	}
	return loans, nil
}

func (r *LoanRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id, userID uuid.UUID) (*domain.Loan, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID,
	)
	l, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return l, nil
}

// ApplyRepayment moves principal (and interest) from remaining to paid and
// returns the new remaining principal. Rounding on the final row can
// overshoot by a cent, so the remainder is floored at zero.
func (r *LoanRepository) ApplyRepayment(ctx context.Context, tx *sql.Tx, id uuid.UUID, principal, interest decimal.Decimal) (decimal.Decimal, error) {
	var remaining decimal.Decimal
	err := tx.QueryRowContext(ctx,
		`UPDATE loans SET
			remaining_principal = GREATEST(remaining_principal - $1, 0),
			paid_principal = paid_principal + $1,
			paid_interest = paid_interest + $2,
			updated_at = now()
		WHERE id = $3
		RETURNING remaining_principal`,
		principal, interest, id,
	).Scan(&remaining)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("ApplyRepayment: %w", domain.ErrNotFound)
		}
		return decimal.Zero, fmt.Errorf("ApplyRepayment: %w", err)
	}
	return remaining, nil
}

// Close marks the loan repaid and floors the remaining principal to zero.
func (r *LoanRepository) Close(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE loans SET status = $1, remaining_principal = 0, updated_at = now() WHERE id = $2`,
		domain.LoanStatusClosed, id,
	)
	if err != nil {
		return fmt.Errorf("Close: %w", err)
	}
	return expectOneRow(res, "Close")
}

func (r *LoanRepository) UpdateEMI(ctx context.Context, tx *sql.Tx, id uuid.UUID, emi decimal.Decimal) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE loans SET emi_amount = $1, updated_at = now() WHERE id = $2`, emi, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateEMI: %w", err)
	}
	return expectOneRow(res, "UpdateEMI")
}

func scanLoan(s scanner) (*domain.Loan, error) {
	var l domain.Loan
	err := s.Scan(
		&l.ID, &l.UserID, &l.AccountID, &l.Name, &l.Principal, &l.InterestRate, &l.TenureMonths,
		&l.StartDate, &l.EMIAmount, &l.RemainingPrincipal, &l.PaidPrincipal, &l.PaidInterest,
		&l.Status, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
