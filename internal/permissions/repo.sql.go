package permissions

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore implements Store on PostgreSQL. Overrides live in the
// detailed_permissions JSONB column of user_profiles.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PostgreSQL backed store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// ReadOverride fetches the raw override document for a user.
func (s *PGStore) ReadOverride(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT detailed_permissions FROM user_profiles WHERE user_id = $1`,
		userID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("%w: read override: %v", ErrStoreUnavailable, err)
	}
	return raw, nil
}

// WriteOverride replaces the stored override in full. Last writer wins; there
// is no optimistic versioning on this document.
func (s *PGStore) WriteOverride(ctx context.Context, userID uuid.UUID, o Override) error {
	data, err := o.Serialize()
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE user_profiles SET detailed_permissions = $2, updated_at = NOW() WHERE user_id = $1`,
		userID, data,
	)
	if err != nil {
		return fmt.Errorf("%w: write override: %v", ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// GetProfile fetches one profile by user ID.
func (s *PGStore) GetProfile(ctx context.Context, userID uuid.UUID) (ProfileRecord, error) {
	var rec ProfileRecord
	var role string
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, email, full_name, role, station, employee_id, is_active
		FROM user_profiles WHERE user_id = $1`,
		userID,
	).Scan(&rec.ID, &rec.Email, &rec.Name, &role, &rec.Station, &rec.EmployeeID, &rec.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProfileRecord{}, ErrProfileNotFound
		}
		return ProfileRecord{}, fmt.Errorf("%w: get profile: %v", ErrStoreUnavailable, err)
	}
	rec.Role = ParseRole(role)
	return rec, nil
}

// ListProfiles returns profiles for the user picker, newest first.
func (s *PGStore) ListProfiles(ctx context.Context, filter ListFilter) ([]ProfileRecord, error) {
	query := `SELECT user_id, email, full_name, role, station, employee_id, is_active
		FROM user_profiles`
	if filter.ActiveOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list profiles: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var profiles []ProfileRecord
	for rows.Next() {
		var rec ProfileRecord
		var role string
		if err := rows.Scan(&rec.ID, &rec.Email, &rec.Name, &role, &rec.Station, &rec.EmployeeID, &rec.Active); err != nil {
			return nil, err
		}
		rec.Role = ParseRole(role)
		profiles = append(profiles, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}
