// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/carterperez-dev/portfolio-api/internal/auth"
	"github.com/carterperez-dev/portfolio-api/internal/config"
	"github.com/carterperez-dev/portfolio-api/internal/core"
	"github.com/carterperez-dev/portfolio-api/internal/middleware"
)

var (
	// ErrLastAdmin guards the invariant that at least one admin always
	// remains: the last admin cannot be demoted, suspended or deleted.
	ErrLastAdmin = errors.New("cannot remove the last admin")

	// ErrSelfAction blocks admins from changing their own role or status,
	// or deleting their own account, through the admin endpoints.
	ErrSelfAction = errors.New("admins cannot perform this action on themselves")
)

// Store is the persistence surface the service consumes; implemented by
// Repository.
type Store interface {
	Create(
		ctx context.Context,
		email, passwordHash, name, role, status string,
	) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, params ListParams) ([]User, int, error)
	UpdateName(ctx context.Context, id, name string) (*User, error)
	UpdateRole(ctx context.Context, id, role string) (*User, error)
	UpdateStatus(ctx context.Context, id, status string) (*User, error)
	Delete(ctx context.Context, id string) error
	CountByRole(ctx context.Context, role string) (int, error)
	ApplyLoginFailure(
		ctx context.Context,
		id string,
		failedCount int,
		lockedUntil *time.Time,
		expectedCount int,
	) error
	ApplyLoginSuccess(ctx context.Context, id string) error
	ReplacePassword(ctx context.Context, id, passwordHash string) error
	StoreRefreshTokenHash(ctx context.Context, id string, hash *string) error
	StorePasswordReset(
		ctx context.Context,
		id, tokenHash string,
		expires time.Time,
	) error
	ClearPasswordReset(ctx context.Context, id string) error
	ConsumePasswordReset(
		ctx context.Context,
		tokenHash, newPasswordHash string,
	) (*User, error)
}

type Service struct {
	repo   Store
	hasher *core.Hasher
}

func NewService(repo Store, hasher *core.Hasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) List(
	ctx context.Context,
	params ListParams,
) ([]User, int, error) {
	params.Normalize()
	return s.repo.List(ctx, params)
}

func (s *Service) UpdateName(
	ctx context.Context,
	id, name string,
) (*User, error) {
	return s.repo.UpdateName(ctx, id, name)
}

// UpdateRole applies the admin safety rules before writing: no self
// role-change, and a demotion away from admin must leave another admin
// behind. The count check and the write are separate statements; the
// window between them is accepted.
func (s *Service) UpdateRole(
	ctx context.Context,
	actorID, targetID, role string,
) (*User, error) {
	if actorID == targetID {
		return nil, ErrSelfAction
	}

	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if target.IsAdmin() && role != RoleAdmin {
		if err := s.requireAnotherAdmin(ctx); err != nil {
			return nil, err
		}
	}

	return s.repo.UpdateRole(ctx, targetID, role)
}

func (s *Service) UpdateStatus(
	ctx context.Context,
	actorID, targetID, status string,
) (*User, error) {
	if actorID == targetID {
		return nil, ErrSelfAction
	}

	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if target.IsAdmin() && status != StatusActive {
		if err := s.requireAnotherAdmin(ctx); err != nil {
			return nil, err
		}
	}

	return s.repo.UpdateStatus(ctx, targetID, status)
}

func (s *Service) Delete(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return ErrSelfAction
	}

	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return err
	}

	if target.IsAdmin() {
		if err := s.requireAnotherAdmin(ctx); err != nil {
			return err
		}
	}

	return s.repo.Delete(ctx, targetID)
}

func (s *Service) requireAnotherAdmin(ctx context.Context) error {
	count, err := s.repo.CountByRole(ctx, RoleAdmin)
	if err != nil {
		return err
	}
	if count <= 1 {
		return ErrLastAdmin
	}
	return nil
}

// EnsureAdmin creates the bootstrap admin account at startup when none
// exists. A no-op when the email is unset or the account already exists.
func (s *Service) EnsureAdmin(
	ctx context.Context,
	cfg config.SecurityConfig,
) error {
	if cfg.BootstrapAdminEmail == "" || cfg.BootstrapAdminSecret == "" {
		return nil
	}

	email := strings.ToLower(cfg.BootstrapAdminEmail)

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("look up bootstrap admin: %w", err)
	}

	passwordHash, err := s.hasher.Hash(cfg.BootstrapAdminSecret)
	if err != nil {
		return fmt.Errorf("hash bootstrap admin password: %w", err)
	}

	name := cfg.BootstrapAdminName
	if name == "" {
		name = "Administrator"
	}

	_, err = s.repo.Create(ctx, email, passwordHash, name, RoleAdmin, StatusActive)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil
		}
		return fmt.Errorf("create bootstrap admin: %w", err)
	}

	slog.Info("bootstrap admin created", "email", email)
	return nil
}

// FindByEmail implements auth.AccountStore.
func (s *Service) FindByEmail(
	ctx context.Context,
	email string,
) (*auth.Account, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return toAccount(u), nil
}

// FindByID implements auth.AccountStore.
func (s *Service) FindByID(
	ctx context.Context,
	id string,
) (*auth.Account, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toAccount(u), nil
}

// CreateAccount implements auth.AccountStore. Self-registered accounts are
// always plain active users; role escalation only happens through the admin
// endpoints.
func (s *Service) CreateAccount(
	ctx context.Context,
	email, passwordHash, name string,
) (*auth.Account, error) {
	u, err := s.repo.Create(ctx, email, passwordHash, name, RoleUser, StatusActive)
	if err != nil {
		return nil, err
	}
	return toAccount(u), nil
}

// ApplyLoginFailure implements auth.AccountStore.
func (s *Service) ApplyLoginFailure(
	ctx context.Context,
	id string,
	failedCount int,
	lockedUntil *time.Time,
	expectedCount int,
) error {
	return s.repo.ApplyLoginFailure(ctx, id, failedCount, lockedUntil, expectedCount)
}

// ApplyLoginSuccess implements auth.AccountStore.
func (s *Service) ApplyLoginSuccess(ctx context.Context, id string) error {
	return s.repo.ApplyLoginSuccess(ctx, id)
}

// ReplacePassword implements auth.AccountStore.
func (s *Service) ReplacePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	return s.repo.ReplacePassword(ctx, id, passwordHash)
}

// StoreRefreshTokenHash implements auth.AccountStore.
func (s *Service) StoreRefreshTokenHash(
	ctx context.Context,
	id string,
	hash *string,
) error {
	return s.repo.StoreRefreshTokenHash(ctx, id, hash)
}

// StorePasswordReset implements auth.AccountStore.
func (s *Service) StorePasswordReset(
	ctx context.Context,
	id, tokenHash string,
	expires time.Time,
) error {
	return s.repo.StorePasswordReset(ctx, id, tokenHash, expires)
}

// ClearPasswordReset implements auth.AccountStore.
func (s *Service) ClearPasswordReset(ctx context.Context, id string) error {
	return s.repo.ClearPasswordReset(ctx, id)
}

// ConsumePasswordReset implements auth.AccountStore.
func (s *Service) ConsumePasswordReset(
	ctx context.Context,
	tokenHash, newPasswordHash string,
) (*auth.Account, error) {
	u, err := s.repo.ConsumePasswordReset(ctx, tokenHash, newPasswordHash)
	if err != nil {
		return nil, err
	}
	return toAccount(u), nil
}

// LoadAuthUser implements middleware.UserLoader.
func (s *Service) LoadAuthUser(
	ctx context.Context,
	id string,
) (*middleware.AuthUser, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &middleware.AuthUser{
		ID:                u.ID,
		Email:             u.Email,
		Name:              u.Name,
		Role:              u.Role,
		Status:            u.Status,
		PasswordChangedAt: u.PasswordChangedAt,
	}, nil
}

func toAccount(u *User) *auth.Account {
	return &auth.Account{
		ID:                u.ID,
		Email:             u.Email,
		Name:              u.Name,
		PasswordHash:      u.PasswordHash,
		Role:              u.Role,
		Status:            u.Status,
		FailedLoginCount:  u.FailedLoginCount,
		LockedUntil:       u.LockedUntil,
		PasswordChangedAt: u.PasswordChangedAt,
	}
}

var (
	_ Store                 = (*Repository)(nil)
	_ auth.AccountStore     = (*Service)(nil)
	_ middleware.UserLoader = (*Service)(nil)
)
