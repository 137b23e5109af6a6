// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/carterperez-dev/portfolio-api/internal/config"
	"github.com/carterperez-dev/portfolio-api/internal/core"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already exists")
	ErrResetTokenInvalid  = errors.New("reset token invalid or expired")
)

// Account is the immutable snapshot of a user record that the security
// flows operate on. Mutations go back through AccountStore as single
// atomic updates; the snapshot itself is never written to.
type Account struct {
	ID                string
	Email             string
	Name              string
	PasswordHash      string
	Role              string
	Status            string
	FailedLoginCount  int
	LockedUntil       *time.Time
	PasswordChangedAt *time.Time
}

// AccountStore is the credential-store contract. Every mutation is a single
// store-level atomic update scoped to one user row; ApplyLoginFailure is
// additionally conditional on the previously observed failure count and
// returns core.ErrConflict when a concurrent attempt got there first.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	CreateAccount(
		ctx context.Context,
		email, passwordHash, name string,
	) (*Account, error)
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
	) (*Account, error)
}

// ResetMailer delivers the plaintext reset token out of band. This service
// only produces the token; it never sends email itself.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, recipient, token string) error
}

const (
	statusSuspended = "suspended"
	statusBanned    = "banned"

	resetTokenBytes = 32

	// Bounded retries for the conditional lockout update under contention.
	maxFailureRetries = 3
)

type Service struct {
	store    AccountStore
	hasher   *core.Hasher
	tokens   *TokenManager
	lockout  LockoutPolicy
	mailer   ResetMailer
	resetTTL time.Duration
	now      func() time.Time
}

func NewService(
	store AccountStore,
	hasher *core.Hasher,
	tokens *TokenManager,
	mailer ResetMailer,
	secCfg config.SecurityConfig,
) *Service {
	return &Service{
		store:    store,
		hasher:   hasher,
		tokens:   tokens,
		lockout:  NewLockoutPolicy(secCfg),
		mailer:   mailer,
		resetTTL: secCfg.ResetTokenTTL,
		now:      time.Now,
	}
}

type Session struct {
	AccessToken  string
	RefreshToken string
	Account      *Account
}

// Login verifies credentials under the lockout policy. A locked account is
// rejected before the hash verification runs, so failed floods neither pay
// the hashing cost nor extend the lock. The response never distinguishes
// unknown email from wrong password.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	acct, err := s.store.FindByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always burn a verify
			_, _ = s.hasher.VerifyTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	now := s.now()

	if s.lockout.IsLocked(lockState(acct), now) {
		return nil, core.ErrAccountLocked
	}

	if acct.Status == statusSuspended || acct.Status == statusBanned {
		return nil, core.ErrAccountDisabled
	}

	valid, err := s.hasher.Verify(req.Password, acct.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		s.recordLoginFailure(ctx, acct, now)
		return nil, ErrInvalidCredentials
	}

	if err := s.store.ApplyLoginSuccess(ctx, acct.ID); err != nil {
		return nil, fmt.Errorf("record login success: %w", err)
	}

	return s.issueSession(ctx, acct)
}

// recordLoginFailure applies the lockout transition through a conditional
// update keyed on the observed failure count, retrying a bounded number of
// times so that concurrent failures serialize instead of racing past the
// threshold.
func (s *Service) recordLoginFailure(
	ctx context.Context,
	acct *Account,
	now time.Time,
) {
	for attempt := 0; attempt < maxFailureRetries; attempt++ {
		next := s.lockout.OnFailure(lockState(acct), now)

		err := s.store.ApplyLoginFailure(
			ctx,
			acct.ID,
			next.FailedCount,
			next.LockedUntil,
			acct.FailedLoginCount,
		)
		if err == nil {
			return
		}

		if !errors.Is(err, core.ErrConflict) {
			slog.Error("record login failure", "error", err)
			return
		}

		fresh, findErr := s.store.FindByID(ctx, acct.ID)
		if findErr != nil {
			slog.Error("reload account after conflict", "error", findErr)
			return
		}
		acct = fresh
	}

	slog.Warn("login failure update contended out", "user_id", acct.ID)
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (*Session, error) {
	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acct, err := s.store.CreateAccount(
		ctx,
		strings.ToLower(req.Email),
		passwordHash,
		req.Name,
	)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	return s.issueSession(ctx, acct)
}

// Logout drops the stored refresh-token hash. The handler clears the
// cookie; the access token simply ages out.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.store.StoreRefreshTokenHash(ctx, userID, nil); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// ChangePassword verifies the current password, replaces it (stamping
// password_changed_at, which invalidates every previously issued token),
// and returns a fresh session so the caller stays signed in.
func (s *Service) ChangePassword(
	ctx context.Context,
	userID, currentPassword, newPassword string,
) (*Session, error) {
	acct, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}

	valid, err := s.hasher.Verify(currentPassword, acct.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.store.ReplacePassword(ctx, userID, newHash); err != nil {
		return nil, fmt.Errorf("replace password: %w", err)
	}

	return s.issueSession(ctx, acct)
}

// ForgotPassword issues a single-use reset token: 32 random bytes to the
// mailer, only the sha256 persisted. An unknown email reports success so
// the endpoint cannot be used for account enumeration.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	acct, err := s.store.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find account: %w", err)
	}

	token, err := core.GenerateOpaqueToken(resetTokenBytes)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	expires := s.now().Add(s.resetTTL)
	if err := s.store.StorePasswordReset(ctx, acct.ID, core.HashToken(token), expires); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, acct.Email, token); err != nil {
		//nolint:errcheck // best-effort rollback of an undeliverable token
		_ = s.store.ClearPasswordReset(ctx, acct.ID)
		return fmt.Errorf("send reset email: %w", err)
	}

	return nil
}

// ResetPassword consumes a reset token. Matching, expiry check, password
// replacement and clearing of the reset fields happen in one atomic update,
// so a second use of the same plaintext token always fails. Not-found and
// expired are deliberately indistinguishable to the caller.
func (s *Service) ResetPassword(
	ctx context.Context,
	plaintextToken, newPassword string,
) error {
	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = s.store.ConsumePasswordReset(
		ctx,
		core.HashToken(plaintextToken),
		newHash,
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	return nil
}

func (s *Service) issueSession(
	ctx context.Context,
	acct *Account,
) (*Session, error) {
	accessToken, err := s.tokens.IssueAccessToken(acct.ID, acct.Role)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, err := s.tokens.IssueRefreshToken(acct.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	refreshHash := core.HashToken(refreshToken)
	if err := s.store.StoreRefreshTokenHash(ctx, acct.ID, &refreshHash); err != nil {
		return nil, fmt.Errorf("store refresh token hash: %w", err)
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Account:      acct,
	}, nil
}

func lockState(acct *Account) LockState {
	return LockState{
		FailedCount: acct.FailedLoginCount,
		LockedUntil: acct.LockedUntil,
	}
}
