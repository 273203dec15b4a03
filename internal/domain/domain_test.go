package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFrequencyStep(t *testing.T) {
	base := time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		freq Frequency
		want time.Time
	}{
		{FrequencyDaily, time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)},
		{FrequencyWeekly, time.Date(2024, 2, 7, 9, 0, 0, 0, time.UTC)},
		// 2024-02-31 normalises to 2024-03-02
		{FrequencyMonthly, time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)},
		{FrequencyYearly, time.Date(2025, 1, 31, 9, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(string(tt.freq), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.freq.Step(base))
		})
	}

	assert.Equal(t, base, Frequency("HOURLY").Step(base))
}

func TestSignedAmount(t *testing.T) {
	credit, debit := TransferRoleCredit, TransferRoleDebit
	amt := decimal.RequireFromString("25.50")

	tests := []struct {
		name string
		txn  Transaction
		want string
	}{
		{"income", Transaction{Type: TransactionTypeIncome, Amount: amt}, "25.5"},
		{"expense", Transaction{Type: TransactionTypeExpense, Amount: amt}, "-25.5"},
		{"transfer debit", Transaction{Type: TransactionTypeTransfer, Amount: amt, TransferRole: &debit}, "-25.5"},
		{"transfer credit", Transaction{Type: TransactionTypeTransfer, Amount: amt, TransferRole: &credit}, "25.5"},
		{"transfer without role debits", Transaction{Type: TransactionTypeTransfer, Amount: amt}, "-25.5"},
		{"unknown type", Transaction{Type: "GIFT", Amount: amt}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.txn.SignedAmount().String())
			assert.True(t, tt.txn.SignedAmount().Add(tt.txn.ReversalDelta()).IsZero())
		})
	}
}

func TestRecurringDefinitionIsDue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		def  RecurringDefinition
		want bool
	}{
		{"active and due", RecurringDefinition{Status: RecurringStatusActive, NextRunAt: past}, true},
		{"due exactly now", RecurringDefinition{Status: RecurringStatusActive, NextRunAt: now}, true},
		{"not yet due", RecurringDefinition{Status: RecurringStatusActive, NextRunAt: future}, false},
		{"paused", RecurringDefinition{Status: RecurringStatusPaused, NextRunAt: past}, false},
		{"ended", RecurringDefinition{Status: RecurringStatusEnded, NextRunAt: past}, false},
		{"end date passed", RecurringDefinition{Status: RecurringStatusActive, NextRunAt: past, EndDate: &past}, false},
		{"end date ahead", RecurringDefinition{Status: RecurringStatusActive, NextRunAt: past, EndDate: &future}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.def.IsDue(now))
		})
	}
}

func TestErrorTaxonomy(t *testing.T) {
	assert.True(t, errors.Is(ErrAccountNotFound, ErrNotFound))
	assert.True(t, errors.Is(ErrSelfTransfer, ErrInvalidInput))
	assert.True(t, errors.Is(ErrPrepaymentExceedsPrincipal, ErrInvalidInput))
	assert.True(t, errors.Is(ErrInstallmentPaid, ErrInvalidState))
	assert.False(t, errors.Is(ErrLoanNotActive, ErrInvalidInput))
}

func TestCurrencyIsValid(t *testing.T) {
	assert.True(t, Currency("USD").IsValid())
	assert.True(t, Currency("NGN").IsValid())
	assert.False(t, Currency("").IsValid())
	assert.False(t, Currency("XXQ").IsValid())
}
