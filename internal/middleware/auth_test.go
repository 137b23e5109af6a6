// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/portfolio-api/internal/core"
)

type fakeVerifier struct {
	claims *AccessTokenClaims
	err    error
}

func (f *fakeVerifier) VerifyAccessToken(string) (*AccessTokenClaims, error) {
	return f.claims, f.err
}

type fakeLoader struct {
	user *AuthUser
	err  error
}

func (f *fakeLoader) LoadAuthUser(context.Context, string) (*AuthUser, error) {
	return f.user, f.err
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func activeUser() *AuthUser {
	return &AuthUser{
		ID:     "user-1",
		Email:  "alice@example.com",
		Name:   "Alice",
		Role:   "user",
		Status: "active",
	}
}

func doAuth(
	t *testing.T,
	verifier TokenVerifier,
	loader UserLoader,
	authorize string,
) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorize != "" {
		req.Header.Set("Authorization", authorize)
	}

	rec := httptest.NewRecorder()
	Authenticator(verifier, loader)(okHandler()).ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) core.ErrorResponse {
	t.Helper()

	var body core.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthenticatorMissingToken(t *testing.T) {
	rec := doAuth(t, &fakeVerifier{}, &fakeLoader{}, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	body := decodeError(t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, "missing authentication token", body.Message)
}

func TestAuthenticatorTokenErrors(t *testing.T) {
	tests := []struct {
		name        string
		verifyErr   error
		wantMessage string
	}{
		{"expired", core.ErrTokenExpired, "token has expired"},
		{"bad signature", core.ErrTokenSignature, "token signature is invalid"},
		{"malformed", core.ErrTokenMalformed, "token is malformed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doAuth(
				t,
				&fakeVerifier{err: tt.verifyErr},
				&fakeLoader{},
				"Bearer some-token",
			)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.wantMessage, decodeError(t, rec).Message)
		})
	}
}

func TestAuthenticatorDeletedUser(t *testing.T) {
	verifier := &fakeVerifier{
		claims: &AccessTokenClaims{UserID: "ghost", IssuedAt: time.Now()},
	}
	loader := &fakeLoader{err: core.ErrNotFound}

	rec := doAuth(t, verifier, loader, "Bearer some-token")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(
		t,
		"the user belonging to this token no longer exists",
		decodeError(t, rec).Message,
	)
}

func TestAuthenticatorStaleToken(t *testing.T) {
	changedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	user := activeUser()
	user.PasswordChangedAt = &changedAt

	verifier := &fakeVerifier{
		claims: &AccessTokenClaims{
			UserID:   user.ID,
			Role:     user.Role,
			IssuedAt: changedAt.Add(-time.Second),
		},
	}

	rec := doAuth(t, verifier, &fakeLoader{user: user}, "Bearer some-token")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, decodeError(t, rec).Message, "password change")
}

// A token minted in the same second as the password change is still valid.
func TestAuthenticatorTokenIssuedAtChangeInstant(t *testing.T) {
	changedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	user := activeUser()
	user.PasswordChangedAt = &changedAt

	verifier := &fakeVerifier{
		claims: &AccessTokenClaims{
			UserID:   user.ID,
			Role:     user.Role,
			IssuedAt: changedAt,
		},
	}

	rec := doAuth(t, verifier, &fakeLoader{user: user}, "Bearer some-token")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticatorDisabledAccount(t *testing.T) {
	for _, status := range []string{"suspended", "banned"} {
		t.Run(status, func(t *testing.T) {
			user := activeUser()
			user.Status = status

			verifier := &fakeVerifier{
				claims: &AccessTokenClaims{
					UserID:   user.ID,
					IssuedAt: time.Now(),
				},
			}

			rec := doAuth(t, verifier, &fakeLoader{user: user}, "Bearer some-token")

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuthenticatorSetsContext(t *testing.T) {
	user := activeUser()
	issuedAt := time.Now().Truncate(time.Second)

	verifier := &fakeVerifier{
		claims: &AccessTokenClaims{
			UserID:   user.ID,
			Role:     user.Role,
			IssuedAt: issuedAt,
		},
	}

	var captured *AuthContext
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetAuthContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()

	Authenticator(verifier, &fakeLoader{user: user})(inner).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "user-1", captured.User.ID)
	assert.Equal(t, issuedAt, captured.TokenIssuedAt)
}

func TestAuthenticatorCookieFallback(t *testing.T) {
	user := activeUser()
	verifier := &fakeVerifier{
		claims: &AccessTokenClaims{UserID: user.ID, IssuedAt: time.Now()},
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: "cookie-token"})
	rec := httptest.NewRecorder()

	Authenticator(verifier, &fakeLoader{user: user})(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func withAuthContext(r *http.Request, authCtx *AuthContext) *http.Request {
	ctx := context.WithValue(r.Context(), AuthContextKey, authCtx)
	return r.WithContext(ctx)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		allowed  []string
		wantCode int
	}{
		{"admin allowed", "admin", []string{"admin"}, http.StatusOK},
		{"user forbidden", "user", []string{"admin"}, http.StatusForbidden},
		{"user allowed among several", "user", []string{"user", "admin"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/restricted", nil)
			req = withAuthContext(req, &AuthContext{
				User: &AuthUser{ID: "user-1", Role: tt.role},
			})
			rec := httptest.NewRecorder()

			RequireRole(tt.allowed...)(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestRequireRoleWithoutAuthContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/restricted", nil)
	rec := httptest.NewRecorder()

	RequireAdmin(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthorizeOwnership(t *testing.T) {
	owner := &AuthContext{User: &AuthUser{ID: "user-1", Role: "user"}}
	stranger := &AuthContext{User: &AuthUser{ID: "user-2", Role: "user"}}
	admin := &AuthContext{User: &AuthUser{ID: "user-3", Role: "admin"}}

	assert.NoError(t, AuthorizeOwnership(owner, "user-1"))
	assert.NoError(t, AuthorizeOwnership(admin, "user-1"))
	assert.ErrorIs(t, AuthorizeOwnership(stranger, "user-1"), core.ErrForbidden)
	assert.ErrorIs(t, AuthorizeOwnership(nil, "user-1"), core.ErrUnauthorized)
}

func TestExtractToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ExtractToken(req))

	req.Header.Set("Authorization", "Bearer header-token")
	assert.Equal(t, "header-token", ExtractToken(req))

	// The header wins over the cookie.
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: "cookie-token"})
	assert.Equal(t, "header-token", ExtractToken(req))

	req.Header.Del("Authorization")
	assert.Equal(t, "cookie-token", ExtractToken(req))

	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	assert.Equal(t, "cookie-token", ExtractToken(req))
}
