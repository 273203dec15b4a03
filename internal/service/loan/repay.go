package loan

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
	"github.com/josh-kwaku/finance-ledger/internal/service/ledger"
)

type PayInstallmentRequest struct {
	OwnerID     uuid.UUID
	LoanID      uuid.UUID
	RowID       uuid.UUID
	Date        *time.Time
	Description string
}

type InstallmentResult struct {
	Loan        domain.Loan
	Row         domain.ScheduleRow
	Transaction domain.Transaction
}

// PayInstallment settles one pending schedule row with an EXPENSE on the
// loan's account and moves its components from remaining to paid.
func (s *Service) PayInstallment(ctx context.Context, req PayInstallmentRequest) (*InstallmentResult, error) {
	log := logging.FromContext(ctx)

	date := s.paymentDate(req.Date)
	var result InstallmentResult
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		l, err := s.loans.GetForUpdate(ctx, tx, req.LoanID, req.OwnerID)
		if err != nil {
			return err
		}
		if l.Status != domain.LoanStatusActive {
			return domain.ErrLoanNotActive
		}

		row, err := s.schedule.GetForUpdate(ctx, tx, req.RowID, l.ID, req.OwnerID)
		if err != nil {
			return err
		}
		if row.Status == domain.ScheduleStatusPaid {
			return domain.ErrInstallmentPaid
		}

		txn, err := s.expense(ctx, tx, l, row.Amount, domain.CategoryLoanEMI, date,
			describe(req.Description, "EMI Payment - "+l.Name))
		if err != nil {
			return err
		}

		if err := s.schedule.MarkPaid(ctx, tx, row.ID, txn.ID, date); err != nil {
			return err
		}
		row.Status = domain.ScheduleStatusPaid
		row.PaidAt = &date
		row.TransactionID = &txn.ID

		if err := s.repay(ctx, tx, l, row.PrincipalComponent, row.InterestComponent); err != nil {
			return err
		}

		result = InstallmentResult{Loan: *l, Row: *row, Transaction: *txn}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("PayInstallment: %w", err)
	}

	log.Info("loan installment paid",
		"loan_id", req.LoanID,
		"row_id", req.RowID,
		"transaction_id", result.Transaction.ID,
		"amount", result.Row.Amount.String(),
		"remaining_principal", result.Loan.RemainingPrincipal.String(),
		"status", result.Loan.Status,
	)

	return &result, nil
}

type PrepayRequest struct {
	OwnerID     uuid.UUID
	LoanID      uuid.UUID
	Amount      decimal.Decimal
	Date        *time.Time
	Description string
}

type PrepaymentResult struct {
	Loan        domain.Loan
	Prepayment  domain.Prepayment
	Transaction domain.Transaction
	// Schedule holds the pending rows after recomputation. Empty when the
	// prepayment closed the loan.
	Schedule []domain.ScheduleRow
}

// Prepay pays amount off the principal outside the schedule, then
// re-spreads the remaining principal over the pending rows. Due dates of
// pending rows do not move.
func (s *Service) Prepay(ctx context.Context, req PrepayRequest) (*PrepaymentResult, error) {
	log := logging.FromContext(ctx)

	amount := req.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("Prepay: %w", domain.ErrInvalidAmount)
	}

	date := s.paymentDate(req.Date)
	var result PrepaymentResult
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		l, err := s.loans.GetForUpdate(ctx, tx, req.LoanID, req.OwnerID)
		if err != nil {
			return err
		}
		if l.Status != domain.LoanStatusActive {
			return domain.ErrLoanNotActive
		}
		if amount.GreaterThan(l.RemainingPrincipal) {
			return domain.ErrPrepaymentExceedsPrincipal
		}

		txn, err := s.expense(ctx, tx, l, amount, domain.CategoryLoanPrepayment, date,
			describe(req.Description, "Loan prepayment - "+l.Name))
		if err != nil {
			return err
		}

		p := domain.Prepayment{
			ID:            uuid.New(),
			LoanID:        l.ID,
			Amount:        amount,
			Date:          date,
			TransactionID: txn.ID,
			CreatedAt:     s.now(),
		}
		if err := s.prepayments.Create(ctx, tx, &p); err != nil {
			return err
		}

		if err := s.repay(ctx, tx, l, amount, decimal.Zero); err != nil {
			return err
		}

		var rebuilt []domain.ScheduleRow
		if l.Status == domain.LoanStatusActive {
			rebuilt, err = s.reschedule(ctx, tx, l)
			if err != nil {
				return err
			}
		}

		result = PrepaymentResult{Loan: *l, Prepayment: p, Transaction: *txn, Schedule: rebuilt}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Prepay: %w", err)
	}

	log.Info("loan prepaid",
		"loan_id", req.LoanID,
		"transaction_id", result.Transaction.ID,
		"amount", amount.String(),
		"remaining_principal", result.Loan.RemainingPrincipal.String(),
		"emi", result.Loan.EMIAmount.String(),
		"status", result.Loan.Status,
	)

	return &result, nil
}

// expense records the payment through the ledger, which applies the single
// balance decrement on the loan's account.
func (s *Service) expense(ctx context.Context, tx *sql.Tx, l *domain.Loan, amount decimal.Decimal, category string, date time.Time, description string) (*domain.Transaction, error) {
	created, err := s.ledger.CreateInTx(ctx, tx, ledger.CreateRequest{
		OwnerID:     l.UserID,
		Type:        domain.TransactionTypeExpense,
		Amount:      amount,
		Description: description,
		Category:    &category,
		Date:        &date,
		AccountID:   l.AccountID,
	})
	if err != nil {
		return nil, fmt.Errorf("expense: %w", err)
	}
	return &created[0], nil
}

// repay applies a repayment to l in the store and mirrors it on l, closing
// the loan once the remainder is within ClosingTolerance.
func (s *Service) repay(ctx context.Context, tx *sql.Tx, l *domain.Loan, principal, interest decimal.Decimal) error {
	remaining, err := s.loans.ApplyRepayment(ctx, tx, l.ID, principal, interest)
	if err != nil {
		return fmt.Errorf("repay: %w", err)
	}
	l.RemainingPrincipal = remaining
	l.PaidPrincipal = l.PaidPrincipal.Add(principal)
	l.PaidInterest = l.PaidInterest.Add(interest)

	if remaining.GreaterThan(domain.ClosingTolerance) {
		return nil
	}
	if err := s.loans.Close(ctx, tx, l.ID); err != nil {
		return fmt.Errorf("repay: %w", err)
	}
	l.RemainingPrincipal = decimal.Zero
	l.Status = domain.LoanStatusClosed
	return nil
}

// reschedule rebuilds the pending rows over the loan's remaining principal
// at the same rate, starting from the first pending due date, and stores
// the new installment on the loan.
func (s *Service) reschedule(ctx context.Context, tx *sql.Tx, l *domain.Loan) ([]domain.ScheduleRow, error) {
	pending, err := s.schedule.GetPendingForUpdate(ctx, tx, l.ID)
	if err != nil {
		return nil, fmt.Errorf("reschedule: %w", err)
	}
	if len(pending) == 0 {
		return nil, nil
	}

	sched, err := BuildSchedule(l.RemainingPrincipal, l.InterestRate, len(pending), pending[0].DueDate)
	if err != nil {
		return nil, fmt.Errorf("reschedule: %w", err)
	}

	for i := range pending {
		inst := sched.Rows[i]
		if err := s.schedule.Overwrite(ctx, tx, pending[i].ID, inst.Amount, inst.Principal, inst.Interest); err != nil {
			return nil, fmt.Errorf("reschedule: %w", err)
		}
		pending[i].Amount = inst.Amount
		pending[i].PrincipalComponent = inst.Principal
		pending[i].InterestComponent = inst.Interest
	}

	if err := s.loans.UpdateEMI(ctx, tx, l.ID, sched.Installment); err != nil {
		return nil, fmt.Errorf("reschedule: %w", err)
	}
	l.EMIAmount = sched.Installment

	return pending, nil
}

func (s *Service) paymentDate(d *time.Time) time.Time {
	if d == nil {
		return s.now()
	}
	return d.UTC()
}

func describe(given, fallback string) string {
	if d := strings.TrimSpace(given); d != "" {
		return d
	}
	return fallback
}
