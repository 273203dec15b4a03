package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "INCOME"
	TransactionTypeExpense  TransactionType = "EXPENSE"
	TransactionTypeTransfer TransactionType = "TRANSFER"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransfer:
		return true
	default:
		return false
	}
}

type TransferRole string

const (
	TransferRoleDebit  TransferRole = "DEBIT"
	TransferRoleCredit TransferRole = "CREDIT"
)

const (
	CategoryTransfer       = "TRANSFER"
	CategoryLoanEMI        = "LOAN_EMI"
	CategoryLoanPrepayment = "LOAN_PREPAYMENT"
)

type Transaction struct {
	ID                   uuid.UUID
	UserID               uuid.UUID
	Type                 TransactionType
	Amount               decimal.Decimal
	Description          string
	Category             *string
	Date                 time.Time
	AccountID            uuid.UUID
	SourceAccountID      *uuid.UUID
	DestinationAccountID *uuid.UUID
	TransferGroupID      *uuid.UUID
	TransferRole         *TransferRole
	RecurringID          *uuid.UUID
	IsRecurringGenerated bool
	Tags                 []string
	CreatedAt            time.Time
}

// SignedAmount is the balance effect of t on its own account.
func (t *Transaction) SignedAmount() decimal.Decimal {
	switch t.Type {
	case TransactionTypeIncome:
		return t.Amount
	case TransactionTypeExpense:
		return t.Amount.Neg()
	case TransactionTypeTransfer:
		if t.TransferRole != nil && *t.TransferRole == TransferRoleCredit {
			return t.Amount
		}
		return t.Amount.Neg()
	default:
		return decimal.Zero
	}
}

// ReversalDelta is the delta that undoes t's effect on its account.
func (t *Transaction) ReversalDelta() decimal.Decimal {
	return t.SignedAmount().Neg()
}
