package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lifeline/internal/users/models"
	"lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
)

const userColumns = `id, email, name, avatar, blood_group, district, upazila, role, status, created_at, updated_at`

// PostgresStore persists the directory in the users table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// CreateIfAbsent relies on the email UNIQUE constraint; on conflict the
// existing row is returned instead.
func (s *PostgresStore) CreateIfAbsent(ctx context.Context, user *models.User) (*models.User, bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (email) DO NOTHING`,
		uuid.UUID(user.ID), string(user.Email), user.Name, user.Avatar, user.BloodGroup,
		user.District, user.Upazila, string(user.Role), string(user.Status),
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert user: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return user, true, nil
	}
	existing, err := s.FindByEmail(ctx, user.Email)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email domain.Email) (*models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, string(email))
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at, email
		OFFSET $2 LIMIT $3`,
		string(filter.Status), page.Skip(), page.Limit(),
	)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0, page.Limit())
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// UpdateProfile writes only the profile columns that are set. Role and
// status are never part of the statement, so a concurrent admin change
// survives a profile edit.
func (s *PostgresStore) UpdateProfile(ctx context.Context, email domain.Email, p models.Profile, at time.Time) (*models.User, error) {
	return s.updateReturning(ctx, "update user profile", `
		UPDATE users
		SET name = COALESCE($2, name), avatar = COALESCE($3, avatar),
		    blood_group = COALESCE($4, blood_group), district = COALESCE($5, district),
		    upazila = COALESCE($6, upazila), updated_at = $7
		WHERE email = $1
		RETURNING `+userColumns,
		string(email), p.Name, p.Avatar, p.BloodGroup, p.District, p.Upazila, at,
	)
}

func (s *PostgresStore) SetRole(ctx context.Context, email domain.Email, role models.Role, at time.Time) (*models.User, error) {
	return s.updateReturning(ctx, "update user role", `
		UPDATE users SET role = $2, updated_at = $3 WHERE email = $1
		RETURNING `+userColumns,
		string(email), string(role), at,
	)
}

func (s *PostgresStore) SetStatus(ctx context.Context, email domain.Email, status models.Status, at time.Time) (*models.User, error) {
	return s.updateReturning(ctx, "update user status", `
		UPDATE users SET status = $2, updated_at = $3 WHERE email = $1
		RETURNING `+userColumns,
		string(email), string(status), at,
	)
}

func (s *PostgresStore) updateReturning(ctx context.Context, op, query string, args ...any) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		u            models.User
		id           uuid.UUID
		email        string
		role, status string
	)
	err := row.Scan(&id, &email, &u.Name, &u.Avatar, &u.BloodGroup, &u.District, &u.Upazila,
		&role, &status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.ID = domain.UserID(id)
	u.Email = domain.Email(email)
	u.Role = models.Role(role)
	u.Status = models.Status(status)
	return &u, nil
}
