package loan

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/finance-ledger/internal/domain"
)

// workingPlaces bounds intermediate precision; stored figures are rounded
// to cents. A rounding error in the installment compounds by roughly
// ((1+r)^n-1)/r over the term, which reaches 1e22 at 100% over 600 months.
const workingPlaces = 40

var (
	hundred            = decimal.NewFromInt(100)
	monthlyRateDivisor = decimal.NewFromInt(1200)
)

type Installment struct {
	DueDate   time.Time
	Amount    decimal.Decimal
	Principal decimal.Decimal
	Interest  decimal.Decimal
}

type Schedule struct {
	Installment decimal.Decimal
	Rows        []Installment
}

// BuildSchedule splits principal into tenureMonths equal installments on a
// reducing balance. Each row's figures are rounded on their own, so the
// principal components may miss the principal by a few cents.
func BuildSchedule(principal, annualRatePct decimal.Decimal, tenureMonths int, start time.Time) (*Schedule, error) {
	if !principal.IsPositive() {
		return nil, fmt.Errorf("BuildSchedule: %w: principal must be positive", domain.ErrInvalidSchedule)
	}
	if annualRatePct.IsNegative() {
		return nil, fmt.Errorf("BuildSchedule: %w: rate must not be negative", domain.ErrInvalidSchedule)
	}
	if tenureMonths < 1 {
		return nil, fmt.Errorf("BuildSchedule: %w: tenure must be at least one month", domain.ErrInvalidSchedule)
	}

	r := annualRatePct.DivRound(monthlyRateDivisor, workingPlaces)
	installment := installmentFor(principal, r, tenureMonths)

	amount := installment.Round(2)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("BuildSchedule: %s over %d months: %w", principal, tenureMonths, domain.ErrInstallmentTooSmall)
	}

	rows := make([]Installment, tenureMonths)
	remaining := principal
	for i := range rows {
		interest := remaining.Mul(r).Round(workingPlaces)
		principalPart := decimal.Min(remaining, installment.Sub(interest))
		remaining = remaining.Sub(principalPart)

		rows[i] = Installment{
			DueDate:   start.AddDate(0, i, 0),
			Amount:    amount,
			Principal: principalPart.Round(2),
			Interest:  interest.Round(2),
		}
	}

	return &Schedule{Installment: amount, Rows: rows}, nil
}

func installmentFor(principal, r decimal.Decimal, n int) decimal.Decimal {
	if r.IsZero() {
		return principal.DivRound(decimal.NewFromInt(int64(n)), workingPlaces)
	}

	growth := decimal.NewFromInt(1)
	onePlusR := growth.Add(r)
	for range n {
		growth = growth.Mul(onePlusR).Round(workingPlaces)
	}

	return principal.Mul(r).Mul(growth).DivRound(growth.Sub(decimal.NewFromInt(1)), workingPlaces)
}

// TotalInterest is the interest the schedule charges over its life.
func (s *Schedule) TotalInterest() decimal.Decimal {
	total := decimal.Zero
	for _, row := range s.Rows {
		total = total.Add(row.Interest)
	}
	return total
}
