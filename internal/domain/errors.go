package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidState = errors.New("invalid state")
	ErrStoreFailure = errors.New("store failure")
)

var (
	ErrAccountNotFound            = fmt.Errorf("account %w", ErrNotFound)
	ErrInvalidAmount              = fmt.Errorf("%w: amount must be greater than zero", ErrInvalidInput)
	ErrInvalidType                = fmt.Errorf("%w: unknown transaction type", ErrInvalidInput)
	ErrMissingDestination         = fmt.Errorf("%w: destination account is required for transfers", ErrInvalidInput)
	ErrSelfTransfer               = fmt.Errorf("%w: source and destination account must be different", ErrInvalidInput)
	ErrInvalidCurrency            = fmt.Errorf("%w: invalid currency", ErrInvalidInput)
	ErrInvalidFrequency           = fmt.Errorf("%w: unknown frequency", ErrInvalidInput)
	ErrInvalidSchedule            = fmt.Errorf("%w: invalid loan terms", ErrInvalidInput)
	ErrPrepaymentExceedsPrincipal = fmt.Errorf("%w: prepayment cannot exceed remaining principal", ErrInvalidInput)
	ErrInstallmentTooSmall        = fmt.Errorf("%w: installment rounds to zero", ErrInvalidSchedule)

	ErrLoanNotActive      = fmt.Errorf("%w: loan is not active", ErrInvalidState)
	ErrInstallmentPaid    = fmt.Errorf("%w: installment already paid", ErrInvalidState)
	ErrRecurringNotActive = fmt.Errorf("%w: recurring definition is not active", ErrInvalidState)
	ErrRecurringNotPaused = fmt.Errorf("%w: recurring definition is not paused", ErrInvalidState)
	ErrAccountInUse       = fmt.Errorf("%w: account is still referenced", ErrInvalidState)
)
