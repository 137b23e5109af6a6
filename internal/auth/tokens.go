// AngelaMos | 2026
// tokens.go

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/carterperez-dev/portfolio-api/internal/config"
	"github.com/carterperez-dev/portfolio-api/internal/core"
	"github.com/carterperez-dev/portfolio-api/internal/middleware"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type tokenClaims struct {
	jwt.RegisteredClaims
	Role      string `json:"role,omitempty"`
	TokenType string `json:"type"`
}

// TokenManager signs and verifies HS256 tokens. Access and refresh tokens
// use separate secrets; a token verifies only under the secret of its kind.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	config        config.JWTConfig
}

func NewTokenManager(cfg config.JWTConfig) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		config:        cfg,
	}
}

func (m *TokenManager) IssueAccessToken(userID, role string) (string, error) {
	return m.sign(
		userID,
		role,
		tokenTypeAccess,
		m.config.AccessTokenExpire,
		m.accessSecret,
	)
}

func (m *TokenManager) IssueRefreshToken(userID string) (string, error) {
	return m.sign(
		userID,
		"",
		tokenTypeRefresh,
		m.config.RefreshTokenExpire,
		m.refreshSecret,
	)
}

func (m *TokenManager) sign(
	userID, role, tokenType string,
	lifetime time.Duration,
	secret []byte,
) (string, error) {
	now := time.Now()

	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    m.config.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
		Role:      role,
		TokenType: tokenType,
	}

	signed, err := jwt.
		NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// VerifyAccessToken implements middleware.TokenVerifier. Failures map onto
// the three distinguishable kinds: malformed, invalid signature, expired.
func (m *TokenManager) VerifyAccessToken(
	tokenString string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := m.parse(tokenString, tokenTypeAccess, m.accessSecret)
	if err != nil {
		return nil, err
	}

	return &middleware.AccessTokenClaims{
		UserID:   claims.Subject,
		Role:     claims.Role,
		IssuedAt: claims.IssuedAt.Time,
	}, nil
}

// VerifyRefreshToken returns the subject of a valid refresh token.
func (m *TokenManager) VerifyRefreshToken(tokenString string) (string, error) {
	claims, err := m.parse(tokenString, tokenTypeRefresh, m.refreshSecret)
	if err != nil {
		return "", err
	}

	return claims.Subject, nil
}

func (m *TokenManager) parse(
	tokenString, wantType string,
	secret []byte,
) (*tokenClaims, error) {
	claims := &tokenClaims{}

	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) {
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, mapTokenError(err)
	}

	if claims.TokenType != wantType {
		return nil, fmt.Errorf(
			"verify token: wrong token type %q: %w",
			claims.TokenType,
			core.ErrTokenMalformed,
		)
	}

	if claims.Subject == "" || claims.IssuedAt == nil {
		return nil, fmt.Errorf(
			"verify token: missing required claims: %w",
			core.ErrTokenMalformed,
		)
	}

	return claims, nil
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("verify token: %w", core.ErrTokenExpired)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("verify token: %w", core.ErrTokenSignature)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("verify token: %w", core.ErrTokenMalformed)
	default:
		return fmt.Errorf("verify token: %v: %w", err, core.ErrTokenMalformed)
	}
}

var _ middleware.TokenVerifier = (*TokenManager)(nil)
