// AngelaMos | 2026
// handler_test.go

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/portfolio-api/internal/config"
	"github.com/carterperez-dev/portfolio-api/internal/core"
	"github.com/carterperez-dev/portfolio-api/internal/middleware"
)

// storeLoader adapts the fake store to the authenticator's loader interface.
type storeLoader struct {
	store *fakeStore
}

func (l *storeLoader) LoadAuthUser(
	ctx context.Context,
	id string,
) (*middleware.AuthUser, error) {
	acct, err := l.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &middleware.AuthUser{
		ID:                acct.ID,
		Email:             acct.Email,
		Name:              acct.Name,
		Role:              acct.Role,
		Status:            acct.Status,
		PasswordChangedAt: acct.PasswordChangedAt,
	}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeStore, *captureMailer) {
	t.Helper()

	secCfg := testSecurityConfig()

	hasher, err := core.NewHasher(secCfg.Argon)
	require.NoError(t, err)

	store := newFakeStore()
	mailer := &captureMailer{}
	tokens := NewTokenManager(testJWTConfig())

	svc := NewService(store, hasher, tokens, mailer, secCfg)

	handler := NewHandler(svc, &config.Config{
		JWT:      testJWTConfig(),
		Security: secCfg,
	})

	authenticate := middleware.Authenticator(tokens, &storeLoader{store: store})
	ts := httptest.NewServer(handler.Routes(authenticate))
	t.Cleanup(ts.Close)

	return ts, store, mailer
}

func postJSON(
	t *testing.T,
	url string,
	body any,
	header http.Header,
) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() }) //nolint:errcheck // test cleanup

	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func seedServerUser(t *testing.T, ts *httptest.Server) LoginResponse {
	t.Helper()

	resp := postJSON(t, ts.URL+"/register", RegisterRequest{
		Email:    "alice@example.com",
		Password: "hunter2hunter2",
		Name:     "Alice",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	return decodeBody[LoginResponse](t, resp)
}

func TestHandlerRegisterAndLogin(t *testing.T) {
	ts, _, _ := newTestServer(t)
	seedServerUser(t, ts)

	resp := postJSON(t, ts.URL+"/login", LoginRequest{
		Email:    "alice@example.com",
		Password: "hunter2hunter2",
	}, nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[LoginResponse](t, resp)
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, "alice@example.com", body.User.Email)
	assert.Equal(t, "user", body.User.Role)
	assert.NotEmpty(t, body.User.ID)

	var tokenCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == middleware.TokenCookieName {
			tokenCookie = c
		}
	}
	require.NotNil(t, tokenCookie, "login must set the token cookie")
	assert.Equal(t, body.Token, tokenCookie.Value)
	assert.True(t, tokenCookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, tokenCookie.SameSite)
	assert.Positive(t, tokenCookie.MaxAge)
}

func TestHandlerLoginInvalidCredentials(t *testing.T) {
	ts, _, _ := newTestServer(t)
	seedServerUser(t, ts)

	for _, req := range []LoginRequest{
		{Email: "alice@example.com", Password: "wrong-password"},
		{Email: "nobody@example.com", Password: "hunter2hunter2"},
	} {
		resp := postJSON(t, ts.URL+"/login", req, nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		// Unknown email and wrong password are indistinguishable.
		body := decodeBody[core.ErrorResponse](t, resp)
		assert.False(t, body.Success)
		assert.Equal(t, "invalid email or password", body.Message)
	}
}

func TestHandlerLoginValidation(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/login", map[string]string{
		"email":    "not-an-email",
		"password": "short",
	}, nil)

	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	body := decodeBody[core.ErrorResponse](t, resp)
	assert.False(t, body.Success)
	assert.Equal(t, "validation failed", body.Message)
	assert.Len(t, body.Errors, 2)
	for _, fe := range body.Errors {
		assert.NotEmpty(t, fe.Field)
		assert.NotEmpty(t, fe.Message)
	}
}

func TestHandlerLoginLockout(t *testing.T) {
	ts, _, _ := newTestServer(t)
	seedServerUser(t, ts)

	for i := 0; i < 5; i++ {
		resp := postJSON(t, ts.URL+"/login", LoginRequest{
			Email:    "alice@example.com",
			Password: "wrong-password",
		}, nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp := postJSON(t, ts.URL+"/login", LoginRequest{
		Email:    "alice@example.com",
		Password: "hunter2hunter2",
	}, nil)

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody[core.ErrorResponse](t, resp)
	assert.Contains(t, body.Message, "locked")
}

func TestHandlerMe(t *testing.T) {
	ts, _, _ := newTestServer(t)
	session := seedServerUser(t, ts)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+session.Token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck // test cleanup

	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[MeResponse](t, resp)
	assert.True(t, body.Success)
	assert.Equal(t, "alice@example.com", body.User.Email)
}

func TestHandlerMeWithoutToken(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/me")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck // test cleanup

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandlerForgotPasswordAlwaysGeneric(t *testing.T) {
	ts, _, mailer := newTestServer(t)
	seedServerUser(t, ts)

	known := postJSON(t, ts.URL+"/forgot-password", ForgotPasswordRequest{
		Email: "alice@example.com",
	}, nil)
	unknown := postJSON(t, ts.URL+"/forgot-password", ForgotPasswordRequest{
		Email: "nobody@example.com",
	}, nil)

	require.Equal(t, http.StatusOK, known.StatusCode)
	require.Equal(t, http.StatusOK, unknown.StatusCode)

	knownBody := decodeBody[MessageResponse](t, known)
	unknownBody := decodeBody[MessageResponse](t, unknown)
	assert.Equal(t, knownBody.Message, unknownBody.Message)

	// The token left the system only through the mailer.
	assert.Equal(t, 1, mailer.calls)
	assert.NotContains(t, knownBody.Message, mailer.token)
}

func TestHandlerResetPassword(t *testing.T) {
	ts, _, mailer := newTestServer(t)
	seedServerUser(t, ts)

	resp := postJSON(t, ts.URL+"/forgot-password", ForgotPasswordRequest{
		Email: "alice@example.com",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/reset-password", ResetPasswordRequest{
		Token:    mailer.token,
		Password: "brand-new-password",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Replay is rejected.
	resp = postJSON(t, ts.URL+"/reset-password", ResetPasswordRequest{
		Token:    mailer.token,
		Password: "sneaky-second-use",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/login", LoginRequest{
		Email:    "alice@example.com",
		Password: "brand-new-password",
	}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandlerChangePassword(t *testing.T) {
	ts, _, _ := newTestServer(t)
	session := seedServerUser(t, ts)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+session.Token)

	resp := postJSON(t, ts.URL+"/change-password", ChangePasswordRequest{
		CurrentPassword: "wrong-current",
		NewPassword:     "brand-new-password",
	}, header)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/change-password", ChangePasswordRequest{
		CurrentPassword: "hunter2hunter2",
		NewPassword:     "brand-new-password",
	}, header)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[LoginResponse](t, resp)
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.Token)

	// The re-issued token still authenticates.
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+body.Token)

	meResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer meResp.Body.Close() //nolint:errcheck // test cleanup
	assert.Equal(t, http.StatusOK, meResp.StatusCode)
}

func TestHandlerLogoutClearsCookie(t *testing.T) {
	ts, store, _ := newTestServer(t)
	session := seedServerUser(t, ts)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+session.Token)

	resp := postJSON(t, ts.URL+"/logout", struct{}{}, header)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tokenCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == middleware.TokenCookieName {
			tokenCookie = c
		}
	}
	require.NotNil(t, tokenCookie)
	assert.Empty(t, tokenCookie.Value)
	assert.Negative(t, tokenCookie.MaxAge)

	for _, rec := range store.records {
		assert.Nil(t, rec.refreshTokenHash)
	}
}

func TestHandlerRegisterDuplicate(t *testing.T) {
	ts, _, _ := newTestServer(t)
	seedServerUser(t, ts)

	resp := postJSON(t, ts.URL+"/register", RegisterRequest{
		Email:    "alice@example.com",
		Password: "another-password",
		Name:     "Alice Again",
	}, nil)

	require.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decodeBody[core.ErrorResponse](t, resp)
	assert.False(t, body.Success)
	assert.Equal(t, "email already in use", body.Message)
}
