package permissions

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Store errors. The resolver keys its fallback behavior off these: unknown
// profiles resolve fail-closed, unavailable stores fall back to the role
// template (never to full access).
var (
	ErrProfileNotFound  = errors.New("permissions: profile not found")
	ErrStoreUnavailable = errors.New("permissions: store unavailable")
)

// ProfileRecord is the store's view of a user profile, as consumed by the
// editor's user picker and the resolver.
type ProfileRecord struct {
	ID         uuid.UUID
	Email      string
	Name       string
	Role       Role
	Station    string
	EmployeeID string
	Active     bool
}

// ListFilter narrows ListProfiles results.
type ListFilter struct {
	ActiveOnly bool
}

// Store is the persistence boundary for permission overrides and profile
// lookups. The override travels as an opaque serialized document; parsing and
// defaulting happen in the domain layer.
type Store interface {
	// ReadOverride returns the stored override blob for a user, or nil when
	// the profile exists but carries no override. Unknown users yield
	// ErrProfileNotFound.
	ReadOverride(ctx context.Context, userID uuid.UUID) ([]byte, error)
	// WriteOverride replaces the stored override document in full.
	WriteOverride(ctx context.Context, userID uuid.UUID, o Override) error
	// GetProfile fetches one profile, or ErrProfileNotFound.
	GetProfile(ctx context.Context, userID uuid.UUID) (ProfileRecord, error)
	// ListProfiles returns profiles for the editor's user picker.
	ListProfiles(ctx context.Context, filter ListFilter) ([]ProfileRecord, error)
}

// Principal converts the record into the identity the guard reasons about.
func (r ProfileRecord) Principal() Principal {
	return Principal{ID: r.ID, Role: r.Role, Station: r.Station, Active: r.Active}
}
