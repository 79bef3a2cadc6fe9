package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/khlin/ticket-registration/internal/notifier"
)

// EventsHandler holds the long-lived browser connections that receive the
// data-changed broadcast.
type EventsHandler struct {
	Notifier *notifier.Notifier
}

// heartbeatInterval keeps intermediaries from closing idle streams.
const heartbeatInterval = 25 * time.Second

// Stream handles GET /api/events as a Server-Sent Events stream. Each data
// change emits one "data_changed" event with no payload; clients re-query
// whatever they display. There is no replay: a client that connects after a
// change simply sees the fresh state on its first fetch.
func (h *EventsHandler) Stream(c echo.Context) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ch, cancel := h.Notifier.Subscribe()
	defer cancel()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ch:
			if _, err := fmt.Fprint(w, "event: data_changed\ndata: {}\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
