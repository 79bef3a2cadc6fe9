package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/khlin/ticket-registration/internal/metrics"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	DB *sql.DB
}

// Health handles GET /api/health, the client-facing liveness probe.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// Healthz handles GET /healthz for load balancers: it pings the database
// with a short timeout and reports 503 when the store is unreachable.
func (h *HealthHandler) Healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 800*time.Millisecond)
	defer cancel()
	t0 := time.Now()
	if err := h.DB.PingContext(ctx); err != nil {
		return c.String(http.StatusServiceUnavailable, "db not ok: "+err.Error())
	}
	metrics.ObserveDBPing(time.Since(t0))
	return c.String(http.StatusOK, "ok")
}
