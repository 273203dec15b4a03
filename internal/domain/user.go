package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID    uuid.UUID
	Email string
	Name  string
	// PasswordHash is a bcrypt hash; empty disables password login.
	PasswordHash string
	CreatedAt    time.Time
}
