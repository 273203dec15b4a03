package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyYearly  Frequency = "YEARLY"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	default:
		return false
	}
}

// Step returns t advanced by one period. Month and year steps use calendar
// arithmetic, so Jan 31 + 1 month normalises into March.
func (f Frequency) Step(t time.Time) time.Time {
	switch f {
	case FrequencyDaily:
		return t.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return t.AddDate(0, 1, 0)
	case FrequencyYearly:
		return t.AddDate(1, 0, 0)
	default:
		return t
	}
}

type RecurringStatus string

const (
	RecurringStatusActive RecurringStatus = "ACTIVE"
	RecurringStatusPaused RecurringStatus = "PAUSED"
	RecurringStatusEnded  RecurringStatus = "ENDED"
)

type RecurringDefinition struct {
	ID                   uuid.UUID
	UserID               uuid.UUID
	Name                 string
	Description          *string
	Amount               decimal.Decimal
	Type                 TransactionType
	Category             *string
	Frequency            Frequency
	StartDate            time.Time
	EndDate              *time.Time
	NextRunAt            time.Time
	LastGeneratedAt      *time.Time
	Status               RecurringStatus
	AccountID            uuid.UUID
	DestinationAccountID *uuid.UUID
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsDue reports whether d should generate an occurrence at now.
func (d *RecurringDefinition) IsDue(now time.Time) bool {
	if d.Status != RecurringStatusActive || d.NextRunAt.After(now) {
		return false
	}
	return d.EndDate == nil || !d.EndDate.Before(now)
}
