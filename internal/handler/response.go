package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/finance-ledger/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

// RespondDomainError maps specific domain errors first and falls back to
// their taxonomy root.
func RespondDomainError(w http.ResponseWriter, err error) {
	RespondAppError(w, appErrorFor(err), nil)
}

func appErrorFor(err error) *AppError {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return ErrAccountNotFound
	case errors.Is(err, domain.ErrNotFound):
		return ErrResourceNotFound

	case errors.Is(err, domain.ErrInvalidAmount):
		return ErrInvalidAmount
	case errors.Is(err, domain.ErrSelfTransfer):
		return ErrSelfTransfer
	case errors.Is(err, domain.ErrMissingDestination):
		return ErrMissingDestination
	case errors.Is(err, domain.ErrInvalidCurrency):
		return ErrInvalidCurrency
	case errors.Is(err, domain.ErrPrepaymentExceedsPrincipal):
		return ErrPrepaymentExceedsPrincipal
	case errors.Is(err, domain.ErrInstallmentTooSmall):
		return ErrInstallmentTooSmall
	case errors.Is(err, domain.ErrInvalidInput):
		return ErrInvalidInput

	case errors.Is(err, domain.ErrLoanNotActive):
		return ErrLoanNotActive
	case errors.Is(err, domain.ErrInstallmentPaid):
		return ErrInstallmentPaid
	case errors.Is(err, domain.ErrRecurringNotActive):
		return ErrRecurringNotActive
	case errors.Is(err, domain.ErrRecurringNotPaused):
		return ErrRecurringNotPaused
	case errors.Is(err, domain.ErrAccountInUse):
		return ErrAccountInUse
	case errors.Is(err, domain.ErrInvalidState):
		return ErrInvalidState

	case errors.Is(err, domain.ErrStoreFailure):
		return ErrStoreUnavailable
	default:
		slog.Error("unhandled domain error", "error", err)
		return ErrInternalError
	}
}

// decodeJSON rejects unknown fields so typos in optional fields surface
// as errors instead of silently taking defaults.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
