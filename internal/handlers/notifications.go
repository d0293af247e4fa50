package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/snapfolio/snapfolio-portal/internal/auth"
	"github.com/snapfolio/snapfolio-portal/internal/common"
	"github.com/snapfolio/snapfolio-portal/internal/events"
)

// heartbeatInterval keeps idle SSE connections alive through proxies.
const heartbeatInterval = 15 * time.Second

// NotificationsHandler streams push notifications over Server-Sent Events.
// Reconnection is the browser's EventSource default; the server only has to
// terminate cleanly.
type NotificationsHandler struct {
	logger    *common.Logger
	bus       *events.Bus
	jwtSecret []byte
}

// NewNotificationsHandler creates a new notifications stream handler.
func NewNotificationsHandler(logger *common.Logger, bus *events.Bus, jwtSecret []byte) *NotificationsHandler {
	return &NotificationsHandler{logger: logger, bus: bus, jwtSecret: jwtSecret}
}

// ServeHTTP handles GET /notifications/stream.
func (h *NotificationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	loggedIn, _ := auth.IsLoggedIn(r, h.jwtSecret)
	if !loggedIn {
		WriteFailure(w, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	id, ch := h.bus.Subscribe(100)
	defer h.bus.Unsubscribe(id)

	h.logger.Debug().Int("subscriber", id).Msg("notification stream connected")

	// Initial comment line confirms the stream to EventSource immediately.
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug().Int("subscriber", id).Msg("notification stream disconnected")
			return

		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()

		case evt, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data)
			flusher.Flush()
		}
	}
}
