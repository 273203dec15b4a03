package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}
	ErrStoreUnavailable   = &AppError{http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "The change could not be committed, please retry"}

	ErrAccountNotFound            = &AppError{http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found"}
	ErrInvalidAmount              = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrSelfTransfer               = &AppError{http.StatusUnprocessableEntity, "SELF_TRANSFER_NOT_ALLOWED", "Cannot transfer to the same account"}
	ErrMissingDestination         = &AppError{http.StatusBadRequest, "MISSING_DESTINATION", "Transfers require a destination account"}
	ErrInvalidCurrency            = &AppError{http.StatusBadRequest, "INVALID_CURRENCY", "Invalid currency"}
	ErrPrepaymentExceedsPrincipal = &AppError{http.StatusUnprocessableEntity, "PREPAYMENT_EXCEEDS_PRINCIPAL", "Prepayment cannot exceed remaining principal"}
	ErrInstallmentTooSmall        = &AppError{http.StatusUnprocessableEntity, "INSTALLMENT_TOO_SMALL", "The principal is too small to spread over the installments"}
	ErrInvalidInput               = &AppError{http.StatusBadRequest, "INVALID_INPUT", "Invalid input"}

	ErrLoanNotActive      = &AppError{http.StatusConflict, "LOAN_NOT_ACTIVE", "Loan is not active"}
	ErrInstallmentPaid    = &AppError{http.StatusConflict, "INSTALLMENT_ALREADY_PAID", "Installment is already paid"}
	ErrRecurringNotActive = &AppError{http.StatusConflict, "RECURRING_NOT_ACTIVE", "Recurring definition is not active"}
	ErrRecurringNotPaused = &AppError{http.StatusConflict, "RECURRING_NOT_PAUSED", "Recurring definition is not paused"}
	ErrAccountInUse       = &AppError{http.StatusConflict, "ACCOUNT_IN_USE", "Account has transactions or active recurring definitions or loans"}
	ErrInvalidState       = &AppError{http.StatusConflict, "INVALID_STATE", "Operation not allowed in the current state"}

	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
)
