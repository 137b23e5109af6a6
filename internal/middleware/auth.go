// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/carterperez-dev/portfolio-api/internal/core"
)

const AuthContextKey contextKey = "auth_context"

// TokenCookieName is the http-only cookie mirroring the access token
// returned in the login response body.
const TokenCookieName = "token"

const (
	roleAdmin       = "admin"
	statusSuspended = "suspended"
	statusBanned    = "banned"
)

type AccessTokenClaims struct {
	UserID   string
	Role     string
	IssuedAt time.Time
}

type TokenVerifier interface {
	VerifyAccessToken(token string) (*AccessTokenClaims, error)
}

// AuthUser is the snapshot of the account loaded during authentication,
// carried to downstream handlers through AuthContext.
type AuthUser struct {
	ID                string
	Email             string
	Name              string
	Role              string
	Status            string
	PasswordChangedAt *time.Time
}

type UserLoader interface {
	LoadAuthUser(ctx context.Context, id string) (*AuthUser, error)
}

// AuthContext is the immutable value produced by Authenticator and consumed
// by the role and ownership checks. Guards never mutate the inbound request;
// each stage reads this value from the request context.
type AuthContext struct {
	User          *AuthUser
	TokenIssuedAt time.Time
}

// Authenticator verifies the bearer token (Authorization header or token
// cookie), loads the subject, rejects tokens issued strictly before the last
// password change, and rejects suspended or banned accounts.
func Authenticator(
	verifier TokenVerifier,
	loader UserLoader,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("missing authentication token"),
				)
				return
			}

			claims, err := verifier.VerifyAccessToken(token)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			user, err := loader.LoadAuthUser(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, core.ErrNotFound) {
					core.JSONError(
						w,
						core.UnauthorizedError(
							"the user belonging to this token no longer exists",
						),
					)
					return
				}
				core.InternalServerError(w, err)
				return
			}

			// Tokens issued strictly before the password change are stale;
			// a token minted in the same second as the change stays valid.
			if user.PasswordChangedAt != nil &&
				claims.IssuedAt.Unix() < user.PasswordChangedAt.Unix() {
				core.JSONError(w, core.StaleTokenError())
				return
			}

			if user.Status == statusSuspended || user.Status == statusBanned {
				core.JSONError(w, core.AccountDisabledError())
				return
			}

			authCtx := &AuthContext{
				User:          user,
				TokenIssuedAt: claims.IssuedAt,
			}

			ctx := context.WithValue(r.Context(), AuthContextKey, authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := GetAuthContext(r.Context())

			if authCtx == nil {
				core.JSONError(
					w,
					core.UnauthorizedError("authentication required"),
				)
				return
			}

			if _, ok := roleSet[authCtx.User.Role]; !ok {
				core.JSONError(
					w,
					core.ForbiddenError("insufficient permissions"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(roleAdmin)(next)
}

// AuthorizeOwnership permits the resource owner or any admin.
func AuthorizeOwnership(authCtx *AuthContext, resourceOwnerID string) error {
	if authCtx == nil {
		return core.ErrUnauthorized
	}

	if authCtx.User.Role == roleAdmin {
		return nil
	}

	if authCtx.User.ID == resourceOwnerID {
		return nil
	}

	return core.ErrForbidden
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	if cookie, err := r.Cookie(TokenCookieName); err == nil {
		return cookie.Value
	}

	return ""
}

func handleAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	switch {
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenSignature):
		core.JSONError(w, core.TokenSignatureError())
	case errors.Is(err, core.ErrTokenMalformed):
		core.JSONError(w, core.TokenMalformedError())
	default:
		core.JSONError(w, core.TokenMalformedError())
	}
}

func GetAuthContext(ctx context.Context) *AuthContext {
	if authCtx, ok := ctx.Value(AuthContextKey).(*AuthContext); ok {
		return authCtx
	}
	return nil
}

func GetUserID(ctx context.Context) string {
	if authCtx := GetAuthContext(ctx); authCtx != nil {
		return authCtx.User.ID
	}
	return ""
}

func GetUserRole(ctx context.Context) string {
	if authCtx := GetAuthContext(ctx); authCtx != nil {
		return authCtx.User.Role
	}
	return ""
}

func IsAdmin(ctx context.Context) bool {
	return GetUserRole(ctx) == roleAdmin
}
