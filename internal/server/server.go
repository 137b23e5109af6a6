// AngelaMos | 2026
// server.go

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/portfolio-api/internal/admin"
	"github.com/carterperez-dev/portfolio-api/internal/auth"
	"github.com/carterperez-dev/portfolio-api/internal/config"
	"github.com/carterperez-dev/portfolio-api/internal/health"
	"github.com/carterperez-dev/portfolio-api/internal/middleware"
	"github.com/carterperez-dev/portfolio-api/internal/project"
	"github.com/carterperez-dev/portfolio-api/internal/user"
)

// Deps is everything the router needs, constructed in main and passed down.
type Deps struct {
	Config         *config.Config
	Logger         *slog.Logger
	AuthHandler    *auth.Handler
	UserHandler    *user.Handler
	ProjectHandler *project.Handler
	HealthHandler  *health.Handler
	AdminHandler   *admin.Handler
	Authenticate   func(http.Handler) http.Handler
	GlobalLimiter  func(http.Handler) http.Handler
	AuthLimiter    func(http.Handler) http.Handler
}

type Server struct {
	http   *http.Server
	health *health.Handler
	logger *slog.Logger
}

func New(deps Deps) *Server {
	cfg := deps.Config

	return &Server{
		http: &http.Server{
			Addr:         cfg.Server.Address(),
			Handler:      buildRouter(deps),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
		health: deps.HealthHandler,
		logger: deps.Logger,
	}
}

func buildRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.SecurityHeaders(deps.Config.IsProduction()))
	r.Use(middleware.CORS(deps.Config.CORS))
	r.Use(deps.GlobalLimiter)

	r.Mount("/health", deps.HealthHandler.Routes())

	r.Route("/v1", func(r chi.Router) {
		// Credential endpoints get the stricter limiter on top of the
		// global one.
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthLimiter)
			r.Mount("/auth", deps.AuthHandler.Routes(deps.Authenticate))
		})

		r.Mount("/projects", deps.ProjectHandler.Routes(deps.Authenticate))

		r.Group(func(r chi.Router) {
			r.Use(deps.Authenticate)
			r.Mount("/users", deps.UserHandler.Routes())
		})

		r.Group(func(r chi.Router) {
			r.Use(deps.Authenticate)
			r.Use(middleware.RequireAdmin)
			r.Mount("/admin/users", deps.UserHandler.AdminRoutes())
			r.Mount("/admin", deps.AdminHandler.Routes())
		})
	})

	return r
}

func (s *Server) Start() error {
	s.logger.Info("server listening", "addr", s.http.Addr)

	if err := s.http.ListenAndServe(); err != nil &&
		!errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

// Shutdown fails readiness first so the load balancer stops routing here,
// then drains in-flight requests until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.SetShutdown()

	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}
