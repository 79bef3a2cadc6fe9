package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/khlin/ticket-registration/internal/queue"
	"github.com/khlin/ticket-registration/internal/repository"
)

// VerifyHandler serves the gate console: look an attendee up by stub serial
// and toggle the checked-in flag. Payment state is never touched here.
type VerifyHandler struct {
	Store AttendeeStore
	Mut   *Mutations
	Log   *zap.Logger
}

// Lookup handles GET /api/verify/:serial. An unknown serial is a 404; a
// found-but-unverified attendee is a normal response with verified=false.
func (h *VerifyHandler) Lookup(c echo.Context) error {
	serial := c.Param("serial")
	a, err := h.Store.GetBySerial(c.Request().Context(), serial)
	if err != nil {
		if errors.Is(err, repository.ErrAttendeeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "serial not found"})
		}
		h.Log.Error("verify lookup failed", zap.Error(err), zap.String("serial", serial))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, a)
}

// Checkin handles POST /api/verify/:serial/checkin. Idempotent: re-checking
// an already verified attendee succeeds and changes nothing.
func (h *VerifyHandler) Checkin(c echo.Context) error {
	return h.setVerified(c, true, "checkin")
}

// Uncheckin handles POST /api/verify/:serial/uncheckin.
func (h *VerifyHandler) Uncheckin(c echo.Context) error {
	return h.setVerified(c, false, "uncheckin")
}

func (h *VerifyHandler) setVerified(c echo.Context, verified bool, action string) error {
	serial := c.Param("serial")
	rows, err := h.Store.SetVerified(c.Request().Context(), serial, verified)
	if err != nil {
		h.Log.Error("toggle verified failed", zap.Error(err), zap.String("serial", serial))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if rows == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "serial not found"})
	}
	h.Mut.Fire(c.Request().Context(), queue.AttendeeChangedEvent{Action: action, Serial: serial})
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}
