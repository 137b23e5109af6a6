// AngelaMos | 2026
// handler.go

package admin

import (
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/portfolio-api/internal/config"
	"github.com/carterperez-dev/portfolio-api/internal/core"
)

// Handler serves operational introspection for admins: process stats and
// connection-pool state. Account management lives in the user package.
type Handler struct {
	db        *core.Database
	redis     *core.Redis
	startedAt time.Time
}

func NewHandler(db *core.Database, redis *core.Redis) *Handler {
	return &Handler{
		db:        db,
		redis:     redis,
		startedAt: time.Now(),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/stats", h.Stats)
	return r
}

type statsResponse struct {
	Success bool         `json:"success"`
	App     appStats     `json:"app"`
	Runtime runtimeStats `json:"runtime"`
	DB      dbStats      `json:"db"`
	Redis   redisStats   `json:"redis"`
}

type appStats struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Uptime      string `json:"uptime"`
}

type runtimeStats struct {
	GoVersion   string `json:"goVersion"`
	Goroutines  int    `json:"goroutines"`
	HeapAllocMB uint64 `json:"heapAllocMb"`
	NumGC       uint32 `json:"numGc"`
	NumCPU      int    `json:"numCpu"`
}

type dbStats struct {
	OpenConnections int `json:"openConnections"`
	InUse           int `json:"inUse"`
	Idle            int `json:"idle"`
}

type redisStats struct {
	TotalConns uint32 `json:"totalConns"`
	IdleConns  uint32 `json:"idleConns"`
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	cfg := config.Get()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	sqlStats := h.db.Stats()
	poolStats := h.redis.PoolStats()

	core.OK(w, statsResponse{
		Success: true,
		App: appStats{
			Name:        cfg.App.Name,
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
			Uptime:      time.Since(h.startedAt).Truncate(time.Second).String(),
		},
		Runtime: runtimeStats{
			GoVersion:   runtime.Version(),
			Goroutines:  runtime.NumGoroutine(),
			HeapAllocMB: mem.HeapAlloc / 1024 / 1024,
			NumGC:       mem.NumGC,
			NumCPU:      runtime.NumCPU(),
		},
		DB: dbStats{
			OpenConnections: sqlStats.OpenConnections,
			InUse:           sqlStats.InUse,
			Idle:            sqlStats.Idle,
		},
		Redis: redisStats{
			TotalConns: poolStats.TotalConns,
			IdleConns:  poolStats.IdleConns,
			Hits:       poolStats.Hits,
			Misses:     poolStats.Misses,
		},
	})
}
