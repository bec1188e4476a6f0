package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ibnelve/api/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

const userColumns = `
	id, username, email, full_name, password_hash, tenant_id, active,
	failed_login_attempts, lockout_until, last_login_at, created_at, updated_at
`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO usuarios (
			id, username, email, full_name, password_hash, tenant_id, active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.TenantID,
		user.Active,
	)
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	const query = `SELECT` + userColumns + `FROM usuarios WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// FindByUsername resolves a user by username. A non-nil tenantID narrows the
// lookup to that tenant.
func (r *UserRepository) FindByUsername(ctx context.Context, username string, tenantID *uuid.UUID) (models.User, error) {
	const query = `
		SELECT` + userColumns + `
		FROM usuarios
		WHERE username = $1 AND ($2::uuid IS NULL OR tenant_id = $2)
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, username, tenantID))
}

// FindByEmail resolves a user by email, optionally scoped to a tenant.
func (r *UserRepository) FindByEmail(ctx context.Context, email string, tenantID *uuid.UUID) (models.User, error) {
	const query = `
		SELECT` + userColumns + `
		FROM usuarios
		WHERE email = $1 AND ($2::uuid IS NULL OR tenant_id = $2)
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, email, tenantID))
}

func (r *UserRepository) scanOne(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.TenantID,
		&user.Active,
		&user.FailedLoginAttempts,
		&user.LockoutUntil,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// GetRoles returns the role names assigned to a user.
func (r *UserRepository) GetRoles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	const query = `
		SELECT r.name
		FROM usuario_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.usuario_id = $1
		ORDER BY r.name
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		roles = append(roles, name)
	}
	return roles, rows.Err()
}

func (r *UserRepository) AssignRole(ctx context.Context, userID, roleID uuid.UUID) error {
	const query = `
		INSERT INTO usuario_roles (usuario_id, role_id, assigned_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (usuario_id, role_id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, userID, roleID)
	return err
}

// RecordFailedLogin increments the failed-attempt counter and, when it
// reaches maxAttempts, sets the lockout in the same statement. The whole
// increment-and-check runs as one UPDATE so concurrent failures cannot race
// past the threshold.
func (r *UserRepository) RecordFailedLogin(ctx context.Context, userID uuid.UUID, maxAttempts int, lockoutUntil time.Time) (int, error) {
	const query = `
		UPDATE usuarios
		SET failed_login_attempts = failed_login_attempts + 1,
		    lockout_until = CASE
		        WHEN failed_login_attempts + 1 >= $2 THEN $3
		        ELSE lockout_until
		    END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING failed_login_attempts
	`

	var attempts int
	if err := r.pool.QueryRow(ctx, query, userID, maxAttempts, lockoutUntil).Scan(&attempts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return attempts, nil
}

// ResetLockout clears the failed-attempt counter and any pending lockout.
func (r *UserRepository) ResetLockout(ctx context.Context, userID uuid.UUID) error {
	const query = `
		UPDATE usuarios
		SET failed_login_attempts = 0, lockout_until = NULL, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	const query = `
		UPDATE usuarios SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}
