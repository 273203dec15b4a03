package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/finance-ledger/internal/domain"
)

const prepaymentColumns = `id, loan_id, amount, date, transaction_id, created_at`

type PrepaymentRepository struct {
	db *sql.DB
}

func NewPrepaymentRepository(db *sql.DB) *PrepaymentRepository {
	return &PrepaymentRepository{db: db}
}

func (r *PrepaymentRepository) Create(ctx context.Context, tx *sql.Tx, p *domain.Prepayment) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO loan_prepayments (id, loan_id, amount, date, transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.LoanID, p.Amount, p.Date, p.TransactionID, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *PrepaymentRepository) GetByLoanID(ctx context.Context, loanID uuid.UUID) ([]domain.Prepayment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+prepaymentColumns+` FROM loan_prepayments WHERE loan_id = $1 ORDER BY date, created_at`, loanID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByLoanID: %w", err)
	}
	defer rows.Close()

	var out []domain.Prepayment
	for rows.Next() {
		var p domain.Prepayment
		if err := rows.Scan(&p.ID, &p.LoanID, &p.Amount, &p.Date, &p.TransactionID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("GetByLoanID: scan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByLoanID: rows: %w", err)
	}
	return out, nil
}
