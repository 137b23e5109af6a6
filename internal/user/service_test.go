// AngelaMos | 2026
// service_test.go

package user

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/portfolio-api/internal/config"
	"github.com/carterperez-dev/portfolio-api/internal/core"
)

type fakeStore struct {
	users  map[string]*User
	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]*User)}
}

func (f *fakeStore) seed(u User) *User {
	f.users[u.ID] = &u
	return f.users[u.ID]
}

func (f *fakeStore) Create(
	_ context.Context,
	email, passwordHash, name, role, status string,
) (*User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return nil, core.ErrDuplicateKey
		}
	}
	f.nextID++
	u := &User{
		ID:           fmt.Sprintf("user-%d", f.nextID),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		Status:       status,
		CreatedAt:    time.Now(),
	}
	f.users[u.ID] = u
	copied := *u
	return &copied, nil
}

func (f *fakeStore) FindByID(_ context.Context, id string) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) FindByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeStore) List(_ context.Context, params ListParams) ([]User, int, error) {
	out := []User{}
	for _, u := range f.users {
		if params.Role == "" || u.Role == params.Role {
			out = append(out, *u)
		}
	}
	return out, len(out), nil
}

func (f *fakeStore) UpdateName(_ context.Context, id, name string) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	u.Name = name
	copied := *u
	return &copied, nil
}

func (f *fakeStore) UpdateRole(_ context.Context, id, role string) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	u.Role = role
	copied := *u
	return &copied, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id, status string) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	u.Status = status
	copied := *u
	return &copied, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeStore) CountByRole(_ context.Context, role string) (int, error) {
	count := 0
	for _, u := range f.users {
		if u.Role == role {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) ApplyLoginFailure(
	_ context.Context,
	id string,
	failedCount int,
	lockedUntil *time.Time,
	expectedCount int,
) error {
	u, ok := f.users[id]
	if !ok {
		return core.ErrNotFound
	}
	if u.FailedLoginCount != expectedCount {
		return core.ErrConflict
	}
	u.FailedLoginCount = failedCount
	u.LockedUntil = lockedUntil
	return nil
}

func (f *fakeStore) ApplyLoginSuccess(_ context.Context, id string) error {
	u, ok := f.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.FailedLoginCount = 0
	u.LockedUntil = nil
	return nil
}

func (f *fakeStore) ReplacePassword(_ context.Context, id, passwordHash string) error {
	u, ok := f.users[id]
	if !ok {
		return core.ErrNotFound
	}
	now := time.Now()
	u.PasswordHash = passwordHash
	u.PasswordChangedAt = &now
	return nil
}

func (f *fakeStore) StoreRefreshTokenHash(
	_ context.Context,
	id string,
	hash *string,
) error {
	u, ok := f.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.RefreshTokenHash = hash
	return nil
}

func (f *fakeStore) StorePasswordReset(
	_ context.Context,
	id, tokenHash string,
	expires time.Time,
) error {
	u, ok := f.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.PasswordResetTokenHash = &tokenHash
	u.PasswordResetExpires = &expires
	return nil
}

func (f *fakeStore) ClearPasswordReset(_ context.Context, id string) error {
	u, ok := f.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.PasswordResetTokenHash = nil
	u.PasswordResetExpires = nil
	return nil
}

func (f *fakeStore) ConsumePasswordReset(
	_ context.Context,
	tokenHash, newPasswordHash string,
) (*User, error) {
	now := time.Now()
	for _, u := range f.users {
		if u.PasswordResetTokenHash == nil || *u.PasswordResetTokenHash != tokenHash {
			continue
		}
		if u.PasswordResetExpires == nil || !u.PasswordResetExpires.After(now) {
			continue
		}
		u.PasswordHash = newPasswordHash
		u.PasswordChangedAt = &now
		u.PasswordResetTokenHash = nil
		u.PasswordResetExpires = nil
		u.RefreshTokenHash = nil
		copied := *u
		return &copied, nil
	}
	return nil, core.ErrNotFound
}

var _ Store = (*fakeStore)(nil)

func newTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()

	hasher, err := core.NewHasher(config.ArgonConfig{
		Memory:  1024,
		Time:    1,
		Threads: 1,
		KeyLen:  32,
	})
	require.NoError(t, err)

	store := newFakeStore()
	return NewService(store, hasher), store
}

func seedAdmins(store *fakeStore, n int) []*User {
	admins := make([]*User, 0, n)
	for i := 1; i <= n; i++ {
		admins = append(admins, store.seed(User{
			ID:     fmt.Sprintf("admin-%d", i),
			Email:  fmt.Sprintf("admin%d@example.com", i),
			Name:   fmt.Sprintf("Admin %d", i),
			Role:   RoleAdmin,
			Status: StatusActive,
		}))
	}
	return admins
}

func TestUpdateRoleSelfBlocked(t *testing.T) {
	svc, store := newTestService(t)
	seedAdmins(store, 2)

	_, err := svc.UpdateRole(context.Background(), "admin-1", "admin-1", RoleUser)
	assert.ErrorIs(t, err, ErrSelfAction)
	assert.Equal(t, RoleAdmin, store.users["admin-1"].Role)
}

func TestUpdateRoleLastAdminBlocked(t *testing.T) {
	svc, store := newTestService(t)
	seedAdmins(store, 1)
	store.seed(User{
		ID:     "user-1",
		Email:  "alice@example.com",
		Role:   RoleUser,
		Status: StatusActive,
	})

	// A non-admin actor never reaches this path in practice; the rule holds
	// regardless of who asks.
	_, err := svc.UpdateRole(context.Background(), "user-1", "admin-1", RoleUser)
	assert.ErrorIs(t, err, ErrLastAdmin)
	assert.Equal(t, RoleAdmin, store.users["admin-1"].Role)
}

func TestUpdateRoleDemoteWithAnotherAdmin(t *testing.T) {
	svc, store := newTestService(t)
	seedAdmins(store, 2)

	updated, err := svc.UpdateRole(context.Background(), "admin-1", "admin-2", RoleUser)
	require.NoError(t, err)
	assert.Equal(t, RoleUser, updated.Role)
	assert.Equal(t, RoleUser, store.users["admin-2"].Role)
}

func TestUpdateRolePromoteUser(t *testing.T) {
	svc, store := newTestService(t)
	seedAdmins(store, 1)
	store.seed(User{
		ID:     "user-1",
		Email:  "alice@example.com",
		Role:   RoleUser,
		Status: StatusActive,
	})

	updated, err := svc.UpdateRole(context.Background(), "admin-1", "user-1", RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, updated.Role)
}

func TestUpdateStatusSelfBlocked(t *testing.T) {
	svc, store := newTestService(t)
	seedAdmins(store, 2)

	_, err := svc.UpdateStatus(
		context.Background(),
		"admin-1",
		"admin-1",
		StatusSuspended,
	)
	assert.ErrorIs(t, err, ErrSelfAction)
}

func TestUpdateStatusLastAdminBlocked(t *testing.T) {
	svc, store := newTestService(t)
	seedAdmins(store, 1)
	store.seed(User{
		ID:     "user-1",
		Email:  "alice@example.com",
		Role:   RoleUser,
		Status: StatusActive,
	})

	_, err := svc.UpdateStatus(
		context.Background(),
		"user-1",
		"admin-1",
		StatusSuspended,
	)
	assert.ErrorIs(t, err, ErrLastAdmin)
	assert.Equal(t, StatusActive, store.users["admin-1"].Status)
}

func TestUpdateStatusSuspendUser(t *testing.T) {
	svc, store := newTestService(t)
	seedAdmins(store, 1)
	store.seed(User{
		ID:     "user-1",
		Email:  "alice@example.com",
		Role:   RoleUser,
		Status: StatusActive,
	})

	updated, err := svc.UpdateStatus(
		context.Background(),
		"admin-1",
		"user-1",
		StatusSuspended,
	)
	require.NoError(t, err)
	assert.Equal(t, StatusSuspended, updated.Status)
}

func TestDeleteSelfBlocked(t *testing.T) {
	svc, store := newTestService(t)
	seedAdmins(store, 2)

	err := svc.Delete(context.Background(), "admin-1", "admin-1")
	assert.ErrorIs(t, err, ErrSelfAction)
	assert.Contains(t, store.users, "admin-1")
}

func TestDeleteLastAdminBlocked(t *testing.T) {
	svc, store := newTestService(t)
	seedAdmins(store, 1)
	store.seed(User{
		ID:     "user-1",
		Email:  "alice@example.com",
		Role:   RoleUser,
		Status: StatusActive,
	})

	err := svc.Delete(context.Background(), "user-1", "admin-1")
	assert.ErrorIs(t, err, ErrLastAdmin)
	assert.Contains(t, store.users, "admin-1")
}

func TestDeleteAdminWithAnotherAdmin(t *testing.T) {
	svc, store := newTestService(t)
	seedAdmins(store, 2)

	err := svc.Delete(context.Background(), "admin-1", "admin-2")
	require.NoError(t, err)
	assert.NotContains(t, store.users, "admin-2")
}

func TestDeleteMissingUser(t *testing.T) {
	svc, store := newTestService(t)
	seedAdmins(store, 1)

	err := svc.Delete(context.Background(), "admin-1", "ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestEnsureAdminCreatesOnce(t *testing.T) {
	svc, store := newTestService(t)

	cfg := config.SecurityConfig{
		BootstrapAdminEmail:  "Root@Example.com",
		BootstrapAdminName:   "Root",
		BootstrapAdminSecret: "a-very-long-bootstrap-secret",
	}

	require.NoError(t, svc.EnsureAdmin(context.Background(), cfg))

	created, err := store.FindByEmail(context.Background(), "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, created.Role)
	assert.Equal(t, StatusActive, created.Status)
	assert.NotEqual(t, cfg.BootstrapAdminSecret, created.PasswordHash)

	// Idempotent on restart.
	require.NoError(t, svc.EnsureAdmin(context.Background(), cfg))

	count, err := store.CountByRole(context.Background(), RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestEnsureAdminSkippedWhenUnconfigured(t *testing.T) {
	svc, store := newTestService(t)

	require.NoError(t, svc.EnsureAdmin(context.Background(), config.SecurityConfig{}))
	assert.Empty(t, store.users)
}

func TestListParamsNormalize(t *testing.T) {
	p := ListParams{}
	p.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, defaultPerPage, p.PerPage)
	assert.Equal(t, 0, p.Offset())

	p = ListParams{Page: 3, PerPage: 500}
	p.Normalize()
	assert.Equal(t, maxPerPage, p.PerPage)
	assert.Equal(t, 200, p.Offset())
}
