package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mobil3801/dfs-manager-portal/internal/catalog"
	"github.com/mobil3801/dfs-manager-portal/internal/permissions"
	"github.com/mobil3801/dfs-manager-portal/internal/shared"
)

// CreateInput is the validated input for a new account.
type CreateInput struct {
	Email      string
	Name       string
	Password   string
	Role       string
	Station    string
	EmployeeID string
}

// UpdateInput is the validated input for a profile update.
type UpdateInput struct {
	Name    string
	Role    string
	Station string
}

// Service handles user business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service instance. audit may be nil.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// ListUsers returns accounts matching the filter.
func (s *Service) ListUsers(ctx context.Context, filter ListFilter) ([]User, error) {
	return s.repo.ListUsers(ctx, filter)
}

// GetUser fetches one account.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// CreateUser registers a new account with a hashed password. New accounts
// start on their role template; overrides are granted later through the
// permission editor.
func (s *Service) CreateUser(ctx context.Context, actorID uuid.UUID, input CreateInput) (User, error) {
	role, station, err := normalizeRoleStation(input.Role, input.Station)
	if err != nil {
		return User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	user, err := s.repo.CreateUser(ctx, CreateParams{
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: string(hash),
		Role:         role,
		Station:      station,
		EmployeeID:   strings.TrimSpace(input.EmployeeID),
	})
	if err != nil {
		return User{}, err
	}
	s.record(ctx, actorID, "user.create", user.ID, map[string]any{"role": user.Role, "station": user.Station})
	return user, nil
}

// UpdateUser changes name, role and station.
func (s *Service) UpdateUser(ctx context.Context, actorID, id uuid.UUID, input UpdateInput) (User, error) {
	role, station, err := normalizeRoleStation(input.Role, input.Station)
	if err != nil {
		return User{}, err
	}
	user, err := s.repo.UpdateUser(ctx, id, UpdateParams{
		Name:    strings.TrimSpace(input.Name),
		Role:    role,
		Station: station,
	})
	if err != nil {
		return User{}, err
	}
	s.record(ctx, actorID, "user.update", user.ID, map[string]any{"role": user.Role, "station": user.Station})
	return user, nil
}

// SetActive enables or disables an account. Disabled accounts fail every
// access check regardless of their matrix.
func (s *Service) SetActive(ctx context.Context, actorID, id uuid.UUID, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.record(ctx, actorID, "user.set_active", id, map[string]any{"active": active})
	return nil
}

func (s *Service) record(ctx context.Context, actorID uuid.UUID, action string, entityID uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user_profile",
		EntityID: entityID.String(),
		Meta:     meta,
	})
}

func normalizeRoleStation(rawRole, rawStation string) (string, string, error) {
	role := permissions.ParseRole(rawRole)
	if role == permissions.RoleUnknown {
		return "", "", fmt.Errorf("unknown role %q", rawRole)
	}
	station := strings.TrimSpace(rawStation)
	if station != catalog.AllStations && !catalog.ValidStation(station) {
		return "", "", fmt.Errorf("unknown station %q", rawStation)
	}
	return string(role), station, nil
}
