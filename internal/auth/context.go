package auth

import (
	"context"

	"github.com/google/uuid"
)

type ownerIDKey struct{}

// ContextWithOwner records the authenticated owner. Every ledger operation
// is scoped to this id.
func ContextWithOwner(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ownerIDKey{}, id)
}

func OwnerFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ownerIDKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
