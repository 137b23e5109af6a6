// AngelaMos | 2026
// handler.go

package health

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/portfolio-api/internal/config"
	"github.com/carterperez-dev/portfolio-api/internal/core"
)

type Handler struct {
	db           *core.Database
	redis        *core.Redis
	startedAt    time.Time
	shuttingDown atomic.Bool
}

func NewHandler(db *core.Database, redis *core.Redis) *Handler {
	return &Handler{
		db:        db,
		redis:     redis,
		startedAt: time.Now(),
	}
}

// SetShutdown flips readiness to failing so the load balancer drains this
// instance before the listener closes.
func (h *Handler) SetShutdown() {
	h.shuttingDown.Store(true)
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/live", h.Live)
	r.Get("/ready", h.Ready)
	return r
}

type statusResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Uptime  string            `json:"uptime"`
	Checks  map[string]string `json:"checks,omitempty"`
}

func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	core.OK(w, statusResponse{
		Status:  "ok",
		Version: config.Get().App.Version,
		Uptime:  time.Since(h.startedAt).Truncate(time.Second).String(),
	})
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.shuttingDown.Load() {
		core.JSON(w, http.StatusServiceUnavailable, statusResponse{
			Status: "shutting down",
		})
		return
	}

	checks := map[string]string{
		"database": "ok",
		"redis":    "ok",
	}
	healthy := true

	if err := h.db.Ping(r.Context()); err != nil {
		checks["database"] = err.Error()
		healthy = false
	}

	if err := h.redis.Ping(r.Context()); err != nil {
		checks["redis"] = err.Error()
		healthy = false
	}

	status := http.StatusOK
	body := statusResponse{
		Status:  "ok",
		Version: config.Get().App.Version,
		Uptime:  time.Since(h.startedAt).Truncate(time.Second).String(),
		Checks:  checks,
	}

	if !healthy {
		status = http.StatusServiceUnavailable
		body.Status = "degraded"
	}

	core.JSON(w, status, body)
}
