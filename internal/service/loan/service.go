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

const (
	maxTenureMonths = 600
	ratePlaces      = 4
)

type loanRepo interface {
	Create(ctx context.Context, tx *sql.Tx, l *domain.Loan) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Loan, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Loan, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id, userID uuid.UUID) (*domain.Loan, error)
	ApplyRepayment(ctx context.Context, tx *sql.Tx, id uuid.UUID, principal, interest decimal.Decimal) (decimal.Decimal, error)
	Close(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
	UpdateEMI(ctx context.Context, tx *sql.Tx, id uuid.UUID, emi decimal.Decimal) error
}

type scheduleRepo interface {
	CreateRows(ctx context.Context, tx *sql.Tx, rows []domain.ScheduleRow) error
	GetByLoanID(ctx context.Context, loanID uuid.UUID) ([]domain.ScheduleRow, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id, loanID, userID uuid.UUID) (*domain.ScheduleRow, error)
	GetPendingForUpdate(ctx context.Context, tx *sql.Tx, loanID uuid.UUID) ([]domain.ScheduleRow, error)
	MarkPaid(ctx context.Context, tx *sql.Tx, id, transactionID uuid.UUID, paidAt time.Time) error
	Overwrite(ctx context.Context, tx *sql.Tx, id uuid.UUID, amount, principal, interest decimal.Decimal) error
}

type prepaymentRepo interface {
	Create(ctx context.Context, tx *sql.Tx, p *domain.Prepayment) error
	GetByLoanID(ctx context.Context, loanID uuid.UUID) ([]domain.Prepayment, error)
}

type accountChecker interface {
	GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Account, error)
}

type ledgerWriter interface {
	CreateInTx(ctx context.Context, tx *sql.Tx, req ledger.CreateRequest) ([]domain.Transaction, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type Service struct {
	loans       loanRepo
	schedule    scheduleRepo
	prepayments prepaymentRepo
	accounts    accountChecker
	ledger      ledgerWriter
	db          txRunner
	now         func() time.Time
}

func NewService(
	loans loanRepo,
	schedule scheduleRepo,
	prepayments prepaymentRepo,
	accounts accountChecker,
	ledgerSvc ledgerWriter,
	db txRunner,
) *Service {
	return &Service{
		loans:       loans,
		schedule:    schedule,
		prepayments: prepayments,
		accounts:    accounts,
		ledger:      ledgerSvc,
		db:          db,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type CreateLoanRequest struct {
	OwnerID      uuid.UUID
	AccountID    uuid.UUID
	Name         string
	Principal    decimal.Decimal
	InterestRate decimal.Decimal
	TenureMonths int
	StartDate    time.Time
}

// LoanDetails is a loan with its schedule ordered by due date and its
// prepayment history.
type LoanDetails struct {
	Loan        domain.Loan
	Schedule    []domain.ScheduleRow
	Prepayments []domain.Prepayment
}

func (s *Service) CreateLoan(ctx context.Context, req CreateLoanRequest) (*LoanDetails, error) {
	log := logging.FromContext(ctx)

	if err := validateLoan(req); err != nil {
		return nil, fmt.Errorf("CreateLoan: %w", err)
	}
	if _, err := s.accounts.GetByID(ctx, req.AccountID, req.OwnerID); err != nil {
		return nil, fmt.Errorf("CreateLoan: %w", err)
	}

	principal := req.Principal.Round(2)
	start := req.StartDate.UTC()
	sched, err := BuildSchedule(principal, req.InterestRate, req.TenureMonths, start)
	if err != nil {
		return nil, fmt.Errorf("CreateLoan: %w", err)
	}

	now := s.now()
	l := domain.Loan{
		ID:                 uuid.New(),
		UserID:             req.OwnerID,
		AccountID:          req.AccountID,
		Name:               strings.TrimSpace(req.Name),
		Principal:          principal,
		InterestRate:       req.InterestRate,
		TenureMonths:       req.TenureMonths,
		StartDate:          start,
		EMIAmount:          sched.Installment,
		RemainingPrincipal: principal,
		PaidPrincipal:      decimal.Zero,
		PaidInterest:       decimal.Zero,
		Status:             domain.LoanStatusActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	rows := make([]domain.ScheduleRow, len(sched.Rows))
	for i, inst := range sched.Rows {
		rows[i] = domain.ScheduleRow{
			ID:                 uuid.New(),
			LoanID:             l.ID,
			DueDate:            inst.DueDate,
			Amount:             inst.Amount,
			PrincipalComponent: inst.Principal,
			InterestComponent:  inst.Interest,
			Status:             domain.ScheduleStatusPending,
		}
	}

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.loans.Create(ctx, tx, &l); err != nil {
			return err
		}
		return s.schedule.CreateRows(ctx, tx, rows)
	})
	if err != nil {
		return nil, fmt.Errorf("CreateLoan: %w", err)
	}

	log.Info("loan created",
		"loan_id", l.ID,
		"principal", principal.String(),
		"emi", sched.Installment.String(),
		"tenure_months", req.TenureMonths,
	)

	return &LoanDetails{Loan: l, Schedule: rows}, nil
}

func (s *Service) GetLoan(ctx context.Context, ownerID, id uuid.UUID) (*LoanDetails, error) {
	l, err := s.loans.GetByID(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("GetLoan: %w", err)
	}

	rows, err := s.schedule.GetByLoanID(ctx, l.ID)
	if err != nil {
		return nil, fmt.Errorf("GetLoan: %w", err)
	}

	prepayments, err := s.prepayments.GetByLoanID(ctx, l.ID)
	if err != nil {
		return nil, fmt.Errorf("GetLoan: %w", err)
	}

	return &LoanDetails{Loan: *l, Schedule: rows, Prepayments: prepayments}, nil
}

func (s *Service) ListLoans(ctx context.Context, ownerID uuid.UUID) ([]domain.Loan, error) {
	loans, err := s.loans.GetByUserID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ListLoans: %w", err)
	}
	return loans, nil
}

func validateLoan(req CreateLoanRequest) error {
	if len(strings.TrimSpace(req.Name)) < 2 {
		return fmt.Errorf("validateLoan: %w: name must be at least 2 characters", domain.ErrInvalidInput)
	}
	if !req.Principal.Round(2).IsPositive() {
		return fmt.Errorf("validateLoan: %w", domain.ErrInvalidAmount)
	}
	if req.InterestRate.IsNegative() || req.InterestRate.GreaterThan(hundred) {
		return fmt.Errorf("validateLoan: %w: rate must be between 0 and 100", domain.ErrInvalidSchedule)
	}
	// the stored rate keeps four places and later reschedules read it back
	if !req.InterestRate.Equal(req.InterestRate.Round(ratePlaces)) {
		return fmt.Errorf("validateLoan: %w: rate allows at most %d decimal places", domain.ErrInvalidSchedule, ratePlaces)
	}
	if req.TenureMonths < 1 || req.TenureMonths > maxTenureMonths {
		return fmt.Errorf("validateLoan: %w: tenure must be between 1 and %d months", domain.ErrInvalidSchedule, maxTenureMonths)
	}
	if req.StartDate.IsZero() {
		return fmt.Errorf("validateLoan: %w: start date is required", domain.ErrInvalidInput)
	}
	return nil
}
