package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/finance-ledger/internal/service/loan"
)

func TestFormatAmount(t *testing.T) {
	usd := money.GetCurrency(money.USD)
	jpy := money.GetCurrency(money.JPY)

	assert.Equal(t, "$10,661.85", formatAmount(decimal.RequireFromString("10661.85"), usd))
	assert.Equal(t, "$0.10", formatAmount(decimal.RequireFromString("0.1"), usd))
	assert.Equal(t, "¥1,200", formatAmount(decimal.RequireFromString("1200"), jpy))
}

func TestWriteSchedule(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sched, err := loan.BuildSchedule(decimal.NewFromInt(1200), decimal.Zero, 3, start)
	require.NoError(t, err)

	var buf bytes.Buffer
	writeSchedule(&buf, sched, money.GetCurrency(money.USD))
	out := buf.String()

	lines := strings.Split(strings.TrimSpace(out), "\n")
	// header, three rows, blank line, summary
	require.Len(t, lines, 6)
	assert.Contains(t, lines[1], "2025-01-01")
	assert.Contains(t, lines[3], "2025-03-01")
	assert.Contains(t, lines[1], "$400.00")
	assert.Contains(t, out, "installment $400.00, total interest $0.00")
}
