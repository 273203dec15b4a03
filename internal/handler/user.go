package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/finance-ledger/internal/domain"
	"github.com/josh-kwaku/finance-ledger/internal/logging"
)

type userGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type UserHandler struct {
	users userGetter
}

func NewUserHandler(users userGetter) *UserHandler {
	return &UserHandler{users: users}
}

type userDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Me returns the authenticated owner.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ownerID, appErr := requireOwner(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	user, err := h.users.GetByID(r.Context(), ownerID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("owner lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, userDTO{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
	})
}
