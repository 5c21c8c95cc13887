package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mobil3801/dfs-manager-portal/internal/shared"
)

const userColumns = `user_id, email, full_name, role, station, employee_id, is_active, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUsers returns accounts matching the filter, newest first.
func (r *Repository) ListUsers(ctx context.Context, filter ListFilter) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM user_profiles WHERE 1=1`
	var args []any
	if filter.ActiveOnly {
		query += ` AND is_active`
	}
	if filter.Station != "" {
		args = append(args, filter.Station)
		query += ` AND station = $1`
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		if filter.Station != "" {
			query += ` AND (email ILIKE $2 OR full_name ILIKE $2)`
		} else {
			query += ` AND (email ILIKE $1 OR full_name ILIKE $1)`
		}
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser fetches one account by ID.
func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM user_profiles WHERE user_id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// CreateUser inserts a new account.
func (r *Repository) CreateUser(ctx context.Context, params CreateParams) (User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO user_profiles (user_id, email, full_name, password_hash, role, station, employee_id, is_active, detailed_permissions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, NULL, NOW(), NOW())
		RETURNING `+userColumns,
		uuid.New(), params.Email, params.Name, params.PasswordHash, params.Role, params.Station, params.EmployeeID,
	)
	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return user, nil
}

// UpdateUser changes the mutable profile fields.
func (r *Repository) UpdateUser(ctx context.Context, id uuid.UUID, params UpdateParams) (User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE user_profiles SET full_name = $2, role = $3, station = $4, updated_at = NOW()
		WHERE user_id = $1
		RETURNING `+userColumns,
		id, params.Name, params.Role, params.Station,
	)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// SetActive toggles the account on or off.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE user_profiles SET is_active = $2, updated_at = NOW() WHERE user_id = $1`,
		id, active,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.Station,
		&user.EmployeeID, &user.Active, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

var _ RepositoryPort = (*Repository)(nil)
