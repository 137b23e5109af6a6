// AngelaMos | 2026
// entity.go

package user

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusBanned    = "banned"
)

type User struct {
	ID                     string     `db:"id"`
	Email                  string     `db:"email"`
	PasswordHash           string     `db:"password_hash"`
	Name                   string     `db:"name"`
	Role                   string     `db:"role"`
	Status                 string     `db:"status"`
	FailedLoginCount       int        `db:"failed_login_count"`
	LockedUntil            *time.Time `db:"locked_until"`
	PasswordChangedAt      *time.Time `db:"password_changed_at"`
	RefreshTokenHash       *string    `db:"refresh_token_hash"`
	PasswordResetTokenHash *string    `db:"password_reset_token_hash"`
	PasswordResetExpires   *time.Time `db:"password_reset_expires"`
	LastLoginAt            *time.Time `db:"last_login_at"`
	CreatedAt              time.Time  `db:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}
