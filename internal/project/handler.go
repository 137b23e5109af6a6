// AngelaMos | 2026
// handler.go

package project

import (
	"encoding/json"
	"errors"
	"net/http"

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

// Routes mounts public reads and, behind the authenticator, the write
// endpoints. Update and delete are owner-or-admin; the check happens in the
// service against the stored owner.
func (h *Handler) Routes(
	authenticate func(http.Handler) http.Handler,
) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})

	return r
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.List(r.Context())
	if err != nil {
		core.JSONError(w, err)
		return
	}

	responses := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		responses = append(responses, toProjectResponse(&projects[i]))
	}

	core.OK(w, ProjectListEnvelope{Success: true, Projects: responses})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "project")
			return
		}
		core.JSONError(w, err)
		return
	}

	core.OK(w, ProjectEnvelope{Success: true, Project: toProjectResponse(p)})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	p, err := h.service.Create(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ProjectEnvelope{Success: true, Project: toProjectResponse(p)})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateProjectRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	p, err := h.service.Update(
		r.Context(),
		middleware.GetAuthContext(r.Context()),
		chi.URLParam(r, "id"),
		req,
	)
	if err != nil {
		h.writeProjectError(w, err)
		return
	}

	core.OK(w, ProjectEnvelope{Success: true, Project: toProjectResponse(p)})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetAuthContext(r.Context()),
		chi.URLParam(r, "id"),
	)
	if err != nil {
		h.writeProjectError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) writeProjectError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "project")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "you do not have access to this project")
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
