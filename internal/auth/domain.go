package auth

import (
	"time"

	"github.com/google/uuid"
)

// Account is the credential-bearing view of a portal profile.
type Account struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Role         string
	Station      string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
