// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carterperez-dev/portfolio-api/internal/core"
)

const pgUniqueViolation = "23505"

// Repository persists users. Every mutation is a single UPDATE scoped to one
// row; state-machine preconditions are expressed in the WHERE clause so the
// check and the write happen in the same statement.
type Repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) *Repository {
	return &Repository{db: db}
}

const userColumns = `
	id, email, password_hash, name, role, status,
	failed_login_count, locked_until, password_changed_at,
	refresh_token_hash, password_reset_token_hash, password_reset_expires,
	last_login_at, created_at, updated_at`

func (r *Repository) Create(
	ctx context.Context,
	email, passwordHash, name, role, status string,
) (*User, error) {
	query := `
		INSERT INTO users (id, email, password_hash, name, role, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns

	var u User
	err := r.db.GetContext(
		ctx,
		&u,
		query,
		uuid.New().String(),
		email,
		passwordHash,
		name,
		role,
		status,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, core.ErrDuplicateKey
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &u, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u User
	if err := r.db.GetContext(ctx, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}

	return &u, nil
}

func (r *Repository) FindByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var u User
	if err := r.db.GetContext(ctx, &u, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	return &u, nil
}

func (r *Repository) List(
	ctx context.Context,
	params ListParams,
) ([]User, int, error) {
	countQuery := `SELECT COUNT(*) FROM users WHERE ($1 = '' OR role = $1)`

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, params.Role); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE ($1 = '' OR role = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	users := []User{}
	err := r.db.SelectContext(
		ctx,
		&users,
		query,
		params.Role,
		params.PerPage,
		params.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *Repository) UpdateName(
	ctx context.Context,
	id, name string,
) (*User, error) {
	query := `
		UPDATE users
		SET name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	var u User
	if err := r.db.GetContext(ctx, &u, query, id, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("update user name: %w", err)
	}

	return &u, nil
}

func (r *Repository) UpdateRole(
	ctx context.Context,
	id, role string,
) (*User, error) {
	query := `
		UPDATE users
		SET role = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	var u User
	if err := r.db.GetContext(ctx, &u, query, id, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("update user role: %w", err)
	}

	return &u, nil
}

func (r *Repository) UpdateStatus(
	ctx context.Context,
	id, status string,
) (*User, error) {
	query := `
		UPDATE users
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	var u User
	if err := r.db.GetContext(ctx, &u, query, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("update user status: %w", err)
	}

	return &u, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user rows affected: %w", err)
	}
	if rows == 0 {
		return core.ErrNotFound
	}

	return nil
}

func (r *Repository) CountByRole(
	ctx context.Context,
	role string,
) (int, error) {
	var count int
	err := r.db.GetContext(
		ctx,
		&count,
		`SELECT COUNT(*) FROM users WHERE role = $1`,
		role,
	)
	if err != nil {
		return 0, fmt.Errorf("count users by role: %w", err)
	}

	return count, nil
}

// ApplyLoginFailure writes a lockout transition, conditional on the failure
// count the caller observed. Zero rows means a concurrent attempt advanced
// the count first; the caller reloads and retries.
func (r *Repository) ApplyLoginFailure(
	ctx context.Context,
	id string,
	failedCount int,
	lockedUntil *time.Time,
	expectedCount int,
) error {
	query := `
		UPDATE users
		SET failed_login_count = $2, locked_until = $3, updated_at = NOW()
		WHERE id = $1 AND failed_login_count = $4`

	result, err := r.db.ExecContext(
		ctx,
		query,
		id,
		failedCount,
		lockedUntil,
		expectedCount,
	)
	if err != nil {
		return fmt.Errorf("apply login failure: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("apply login failure rows affected: %w", err)
	}
	if rows == 0 {
		return core.ErrConflict
	}

	return nil
}

func (r *Repository) ApplyLoginSuccess(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET failed_login_count = 0,
		    locked_until = NULL,
		    last_login_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("apply login success: %w", err)
	}

	return nil
}

// ReplacePassword swaps the hash, stamps password_changed_at and revokes
// the stored refresh token and any pending reset token in one statement.
func (r *Repository) ReplacePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2,
		    password_changed_at = NOW(),
		    refresh_token_hash = NULL,
		    password_reset_token_hash = NULL,
		    password_reset_expires = NULL,
		    updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("replace password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace password rows affected: %w", err)
	}
	if rows == 0 {
		return core.ErrNotFound
	}

	return nil
}

func (r *Repository) StoreRefreshTokenHash(
	ctx context.Context,
	id string,
	hash *string,
) error {
	query := `
		UPDATE users
		SET refresh_token_hash = $2, updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, hash); err != nil {
		return fmt.Errorf("store refresh token hash: %w", err)
	}

	return nil
}

func (r *Repository) StorePasswordReset(
	ctx context.Context,
	id, tokenHash string,
	expires time.Time,
) error {
	query := `
		UPDATE users
		SET password_reset_token_hash = $2,
		    password_reset_expires = $3,
		    updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, tokenHash, expires); err != nil {
		return fmt.Errorf("store password reset: %w", err)
	}

	return nil
}

func (r *Repository) ClearPasswordReset(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET password_reset_token_hash = NULL,
		    password_reset_expires = NULL,
		    updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("clear password reset: %w", err)
	}

	return nil
}

// ConsumePasswordReset matches an unexpired reset token hash and, in the
// same statement, replaces the password, stamps password_changed_at, clears
// the reset fields and revokes the refresh token. A second call with the
// same hash matches nothing.
func (r *Repository) ConsumePasswordReset(
	ctx context.Context,
	tokenHash, newPasswordHash string,
) (*User, error) {
	query := `
		UPDATE users
		SET password_hash = $2,
		    password_changed_at = NOW(),
		    password_reset_token_hash = NULL,
		    password_reset_expires = NULL,
		    refresh_token_hash = NULL,
		    failed_login_count = 0,
		    locked_until = NULL,
		    updated_at = NOW()
		WHERE password_reset_token_hash = $1
		  AND password_reset_expires > NOW()
		RETURNING ` + userColumns

	var u User
	err := r.db.GetContext(ctx, &u, query, tokenHash, newPasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("consume password reset: %w", err)
	}

	return &u, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
