package users

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows user listings.
type ListFilter struct {
	ActiveOnly bool
	Station    string
	Search     string
}

// CreateParams carries the fields of a new account.
type CreateParams struct {
	Email        string
	Name         string
	PasswordHash string
	Role         string
	Station      string
	EmployeeID   string
}

// UpdateParams carries the mutable fields of an account.
type UpdateParams struct {
	Name    string
	Role    string
	Station string
}

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, filter ListFilter) ([]User, error)
	GetUser(ctx context.Context, id uuid.UUID) (User, error)
	CreateUser(ctx context.Context, params CreateParams) (User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, params UpdateParams) (User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}
