package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	db    Pinger
	cache func(ctx context.Context) error
}

// NewHealthHandler builds the probes.  rdb may be nil when Redis is
// disabled; readiness then reports it as such without failing.
func NewHealthHandler(db Pinger, rdb *redis.Client) *HealthHandler {
	h := &HealthHandler{db: db}
	if rdb != nil {
		h.cache = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return h
}

// Healthz reports that the process is up.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Readyz pings the database and Redis.
func (h *HealthHandler) Readyz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"database": "ok", "redis": "disabled"}
	ready := true
	if err := h.db.PingContext(ctx); err != nil {
		checks["database"] = err.Error()
		ready = false
	}
	if h.cache != nil {
		checks["redis"] = "ok"
		if err := h.cache(ctx); err != nil {
			checks["redis"] = err.Error()
			ready = false
		}
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	return c.JSON(code, echo.Map{"status": status, "checks": checks})
}
