package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	LoanStatusActive LoanStatus = "ACTIVE"
	LoanStatusClosed LoanStatus = "CLOSED"
)

// ClosingTolerance is the remaining principal at or below which a loan is
// considered repaid.
var ClosingTolerance = decimal.RequireFromString("0.01")

type Loan struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	AccountID          uuid.UUID
	Name               string
	Principal          decimal.Decimal
	InterestRate       decimal.Decimal
	TenureMonths       int
	StartDate          time.Time
	EMIAmount          decimal.Decimal
	RemainingPrincipal decimal.Decimal
	PaidPrincipal      decimal.Decimal
	PaidInterest       decimal.Decimal
	Status             LoanStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type ScheduleStatus string

const (
	ScheduleStatusPending ScheduleStatus = "PENDING"
	ScheduleStatusPaid    ScheduleStatus = "PAID"
)

type ScheduleRow struct {
	ID                 uuid.UUID
	LoanID             uuid.UUID
	DueDate            time.Time
	Amount             decimal.Decimal
	PrincipalComponent decimal.Decimal
	InterestComponent  decimal.Decimal
	Status             ScheduleStatus
	PaidAt             *time.Time
	TransactionID      *uuid.UUID
}

type Prepayment struct {
	ID            uuid.UUID
	LoanID        uuid.UUID
	Amount        decimal.Decimal
	Date          time.Time
	TransactionID uuid.UUID
	CreatedAt     time.Time
}
