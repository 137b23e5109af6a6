// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/portfolio-api/internal/config"
	"github.com/carterperez-dev/portfolio-api/internal/core"
	"github.com/carterperez-dev/portfolio-api/internal/middleware"
)

type Handler struct {
	service  *Service
	validate *validator.Validate
	cookies  cookieSettings
}

type cookieSettings struct {
	secure bool
	maxAge int
}

func NewHandler(service *Service, cfg *config.Config) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		cookies: cookieSettings{
			secure: cfg.Security.SecureCookies,
			maxAge: int(cfg.JWT.AccessTokenExpire.Seconds()),
		},
	}
}

// Routes mounts the public endpoints and, behind the supplied authenticator,
// the session-bound ones.
func (h *Handler) Routes(
	authenticate func(http.Handler) http.Handler,
) http.Handler {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Post("/reset-password", h.ResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/me", h.Me)
		r.Post("/change-password", h.ChangePassword)
		r.Post("/logout", h.Logout)
	})

	return r
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	session, err := h.service.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			core.JSONError(w, core.ConflictError("email already in use"))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	h.setTokenCookie(w, session.AccessToken)
	core.Created(w, sessionResponse(session))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	session, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.writeLoginError(w, err)
		return
	}

	h.setTokenCookie(w, session.AccessToken)
	core.OK(w, sessionResponse(session))
}

func (h *Handler) writeLoginError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		core.JSONError(w, core.UnauthorizedError("invalid email or password"))
	case errors.Is(err, core.ErrAccountLocked):
		core.JSONError(w, core.AccountLockedError())
	case errors.Is(err, core.ErrAccountDisabled):
		core.JSONError(w, core.AccountDisabledError())
	default:
		core.InternalServerError(w, err)
	}
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r.Context())
	if authCtx == nil {
		core.Unauthorized(w, "")
		return
	}

	core.OK(w, MeResponse{
		Success: true,
		User: UserSummary{
			ID:    authCtx.User.ID,
			Name:  authCtx.User.Name,
			Email: authCtx.User.Email,
			Role:  authCtx.User.Role,
		},
	})
}

// ChangePassword re-issues tokens on success so the caller's session
// survives the password_changed_at stamp that invalidates the old ones.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	userID := middleware.GetUserID(r.Context())

	session, err := h.service.ChangePassword(
		r.Context(),
		userID,
		req.CurrentPassword,
		req.NewPassword,
	)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			core.JSONError(
				w,
				core.UnauthorizedError("current password is incorrect"),
			)
			return
		}
		core.InternalServerError(w, err)
		return
	}

	h.setTokenCookie(w, session.AccessToken)
	core.OK(w, sessionResponse(session))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.service.Logout(r.Context(), userID); err != nil {
		core.InternalServerError(w, err)
		return
	}

	h.clearTokenCookie(w)
	core.OK(w, MessageResponse{Success: true, Message: "logged out"})
}

// ForgotPassword reports the same success body whether or not the email
// matches an account.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, MessageResponse{
		Success: true,
		Message: "if that email exists, a reset link has been sent",
	})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	err := h.service.ResetPassword(r.Context(), req.Token, req.Password)
	if err != nil {
		if errors.Is(err, ErrResetTokenInvalid) {
			core.JSONError(
				w,
				core.UnauthorizedError("reset token is invalid or has expired"),
			)
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, MessageResponse{
		Success: true,
		Message: "password has been reset",
	})
}

func (h *Handler) decodeAndValidate(
	w http.ResponseWriter,
	r *http.Request,
	dst any,
) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		core.UnprocessableEntity(w, core.FormatValidationErrors(err))
		return false
	}

	return true
}

func (h *Handler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   h.cookies.maxAge,
		HttpOnly: true,
		Secure:   h.cookies.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionResponse(session *Session) LoginResponse {
	return LoginResponse{
		Success:      true,
		Token:        session.AccessToken,
		RefreshToken: session.RefreshToken,
		User: UserSummary{
			ID:    session.Account.ID,
			Name:  session.Account.Name,
			Email: session.Account.Email,
			Role:  session.Account.Role,
		},
	}
}
