// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"net/http"
)

// Sentinel errors used across service and repository layers. Handlers map
// them onto the wire taxonomy (401/403/404/409/422) via JSONError.
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")

	// Token verification failures are distinguishable kinds, because the
	// guard layer reports a different message for each.
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenStale     = errors.New("token issued before password change")

	ErrAccountLocked   = errors.New("account locked")
	ErrAccountDisabled = errors.New("account disabled")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError pairs an internal error with the public status, code and message
// allowed to cross the response boundary.
type AppError struct {
	Err     error
	Message string
	Status  int
	Code    string
	Fields  []FieldError
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(err error, message string, status int, code string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Status:  status,
		Code:    code,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func UnauthorizedError(message string) *AppError {
	return NewAppError(ErrUnauthorized, message, http.StatusUnauthorized, "UNAUTHORIZED")
}

func ForbiddenError(message string) *AppError {
	return NewAppError(ErrForbidden, message, http.StatusForbidden, "FORBIDDEN")
}

func NotFoundError(resource string) *AppError {
	return NewAppError(ErrNotFound, resource+" not found", http.StatusNotFound, "NOT_FOUND")
}

func ConflictError(message string) *AppError {
	return NewAppError(ErrConflict, message, http.StatusConflict, "CONFLICT")
}

func DuplicateError(field string) *AppError {
	return NewAppError(
		ErrDuplicateKey,
		field+" already in use",
		http.StatusConflict,
		"DUPLICATE",
	)
}

func ValidationError(fields []FieldError) *AppError {
	e := NewAppError(
		ErrInvalidInput,
		"validation failed",
		http.StatusUnprocessableEntity,
		"VALIDATION_FAILED",
	)
	e.Fields = fields
	return e
}

func TokenExpiredError() *AppError {
	return NewAppError(ErrTokenExpired, "token has expired", http.StatusUnauthorized, "TOKEN_EXPIRED")
}

func TokenMalformedError() *AppError {
	return NewAppError(ErrTokenMalformed, "token is malformed", http.StatusUnauthorized, "TOKEN_MALFORMED")
}

func TokenSignatureError() *AppError {
	return NewAppError(ErrTokenSignature, "token signature is invalid", http.StatusUnauthorized, "TOKEN_INVALID_SIGNATURE")
}

func StaleTokenError() *AppError {
	return NewAppError(
		ErrTokenStale,
		"token was issued before the last password change",
		http.StatusUnauthorized,
		"TOKEN_STALE",
	)
}

func AccountLockedError() *AppError {
	return NewAppError(
		ErrAccountLocked,
		"account temporarily locked due to repeated failed logins",
		http.StatusUnauthorized,
		"ACCOUNT_LOCKED",
	)
}

func AccountDisabledError() *AppError {
	return NewAppError(
		ErrAccountDisabled,
		"account is disabled",
		http.StatusUnauthorized,
		"ACCOUNT_DISABLED",
	)
}
