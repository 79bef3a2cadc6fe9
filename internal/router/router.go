package router

import (
	"github.com/labstack/echo/v4"

	"github.com/khlin/ticket-registration/internal/handler"
	"github.com/khlin/ticket-registration/internal/metrics"
)

// Handlers bundles everything Register needs. PasswordLimit wraps the two
// password endpoints; Auth (optional, may be nil) protects registrar
// mutations when REQUIRE_AUTH is on.
type Handlers struct {
	Auth     *handler.AuthHandler
	Students *handler.StudentHandler
	Import   *handler.ImportHandler
	Verify   *handler.VerifyHandler
	Events   *handler.EventsHandler
	Health   *handler.HealthHandler

	PasswordLimit echo.MiddlewareFunc
	AuthRequired  echo.MiddlewareFunc
}

// Register wires the full REST surface plus the operational endpoints.
func Register(e *echo.Echo, h Handlers) {
	e.GET("/healthz", h.Health.Healthz)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	api := e.Group("/api")
	api.GET("/health", h.Health.Health)
	api.POST("/login", h.Auth.Login, h.PasswordLimit)

	// Read side of the registrar console.
	api.GET("/stats", h.Students.Stats)
	api.GET("/students", h.Students.List)
	api.GET("/check_serial", h.Students.CheckSerial)

	// Mutating registrar operations, optionally behind the session token.
	mut := api.Group("")
	if h.AuthRequired != nil {
		mut.Use(h.AuthRequired)
	}
	mut.POST("/students", h.Students.Create)
	mut.PUT("/students/:id", h.Students.Update)
	mut.DELETE("/students/:id", h.Students.Delete)
	mut.POST("/students/:id/pay", h.Students.Pay)
	mut.POST("/students/:id/cancel_pay", h.Students.CancelPay, h.PasswordLimit)
	mut.POST("/import", h.Import.Import)

	// Gate console: lookup by stub serial and check-in toggling.
	api.GET("/verify/:serial", h.Verify.Lookup)
	api.POST("/verify/:serial/checkin", h.Verify.Checkin)
	api.POST("/verify/:serial/uncheckin", h.Verify.Uncheckin)

	// Live broadcast channel; both consoles listen here.
	api.GET("/events", h.Events.Stream)
}
