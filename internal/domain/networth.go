package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type NetWorthEntryType string

const (
	NetWorthEntryAsset NetWorthEntryType = "ASSET"
	NetWorthEntryDebt  NetWorthEntryType = "DEBT"
)

func (t NetWorthEntryType) IsValid() bool {
	return t == NetWorthEntryAsset || t == NetWorthEntryDebt
}

// NetWorthEntry is a manually valued holding or debt kept outside the
// ledger, such as property or a private loan. It never moves account
// balances.
type NetWorthEntry struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Type          NetWorthEntryType
	Category      string
	Name          string
	CurrentValue  decimal.Decimal
	Currency      Currency
	Notes         *string
	ValuationDate time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
