package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/finance-ledger/internal/auth"
)

func requireOwner(r *http.Request) (uuid.UUID, *AppError) {
	ownerID, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		return uuid.Nil, ErrMissingToken
	}
	return ownerID, nil
}

// pathID parses a path parameter. A malformed id is reported as not found,
// the same as an id the caller does not own.
func pathID(r *http.Request, name string) (uuid.UUID, *AppError) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, ErrResourceNotFound
	}
	return id, nil
}
