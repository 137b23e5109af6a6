// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/portfolio-api/internal/core"
	"github.com/carterperez-dev/portfolio-api/internal/middleware"
)

type Handler struct {
	service  *Service
	validate *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Routes is the authenticated self-service surface.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/me", h.GetMe)
	r.Put("/me", h.UpdateMe)
	return r
}

// AdminRoutes is the admin-only account management surface. Role checks are
// applied by the caller's middleware chain.
func (h *Handler) AdminRoutes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}/role", h.UpdateRole)
	r.Put("/{id}/status", h.UpdateStatus)
	r.Delete("/{id}", h.Delete)
	return r
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.GetByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, UserEnvelope{Success: true, User: toUserResponse(u)})
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateMeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	u, err := h.service.UpdateName(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req.Name,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, UserEnvelope{Success: true, User: toUserResponse(u)})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := ListParams{
		Page:    queryInt(r, "page"),
		PerPage: queryInt(r, "per_page"),
		Role:    r.URL.Query().Get("role"),
	}
	params.Normalize()

	users, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, toUserResponse(&users[i]))
	}

	core.OK(w, UserListEnvelope{
		Success: true,
		Users:   responses,
		Total:   total,
		Page:    params.Page,
		PerPage: params.PerPage,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.JSONError(w, err)
		return
	}

	core.OK(w, UserEnvelope{Success: true, User: toUserResponse(u)})
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	u, err := h.service.UpdateRole(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "id"),
		req.Role,
	)
	if err != nil {
		h.writeAdminError(w, err)
		return
	}

	core.OK(w, UserEnvelope{Success: true, User: toUserResponse(u)})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	u, err := h.service.UpdateStatus(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "id"),
		req.Status,
	)
	if err != nil {
		h.writeAdminError(w, err)
		return
	}

	core.OK(w, UserEnvelope{Success: true, User: toUserResponse(u)})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "id"),
	)
	if err != nil {
		h.writeAdminError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) writeAdminError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSelfAction):
		core.JSONError(w, core.ForbiddenError(err.Error()))
	case errors.Is(err, ErrLastAdmin):
		core.JSONError(w, core.ForbiddenError(err.Error()))
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "user")
	default:
		core.JSONError(w, err)
	}
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

func queryInt(r *http.Request, key string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(key))
	return v
}
