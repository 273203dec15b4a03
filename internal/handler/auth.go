package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/josh-kwaku/finance-ledger/internal/auth"
	"github.com/josh-kwaku/finance-ledger/internal/domain"
	"github.com/josh-kwaku/finance-ledger/internal/logging"
)

type userByEmail interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type AuthHandler struct {
	users     userByEmail
	jwtSecret string
	jwtExpiry time.Duration
}

func NewAuthHandler(users userByEmail, jwtSecret string, jwtExpiry time.Duration) *AuthHandler {
	return &AuthHandler{users: users, jwtSecret: jwtSecret, jwtExpiry: jwtExpiry}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(r.Email) == "" {
		errs = append(errs, FieldError{Field: "email", Message: "required"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "required"})
	}
	return errs
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      userDTO   `json:"user"`
}

// Login exchanges an owner's email and password for a bearer token. Unknown
// emails and wrong passwords get the same response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	user, err := h.users.GetByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			RespondAppError(w, ErrInvalidCredentials, nil)
			return
		}
		log.Error("login lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			log.Error("password check failed", "owner_id", user.ID, "error", err)
		}
		RespondAppError(w, ErrInvalidCredentials, nil)
		return
	}

	expiresAt := time.Now().Add(h.jwtExpiry).UTC()
	token, err := auth.GenerateToken(user.ID, user.Email, h.jwtSecret, h.jwtExpiry)
	if err != nil {
		log.Error("token signing failed", "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	RespondSuccess(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      userDTO{ID: user.ID, Email: user.Email, Name: user.Name, CreatedAt: user.CreatedAt},
	})
}
