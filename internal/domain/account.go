package domain

import (
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Currency string

// IsValid reports whether c is a known ISO 4217 code.
func (c Currency) IsValid() bool {
	return c != "" && money.GetCurrency(string(c)) != nil
}

type AccountType string

const (
	AccountTypeCash       AccountType = "CASH"
	AccountTypeBank       AccountType = "BANK"
	AccountTypeWallet     AccountType = "WALLET"
	AccountTypeCredit     AccountType = "CREDIT"
	AccountTypeCreditCard AccountType = "CREDIT_CARD"
)

func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeCash, AccountTypeBank, AccountTypeWallet, AccountTypeCredit, AccountTypeCreditCard:
		return true
	default:
		return false
	}
}

type Account struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Name           string
	Type           AccountType
	Currency       Currency
	InitialBalance decimal.Decimal
	Balance        decimal.Decimal
	CreatedAt      time.Time
}

// AccountReferences counts what still depends on an account. An account
// with any of them cannot be deleted.
type AccountReferences struct {
	Transactions    int
	ActiveRecurring int
	Loans           int
}

func (r AccountReferences) InUse() bool {
	return r.Transactions > 0 || r.ActiveRecurring > 0 || r.Loans > 0
}
