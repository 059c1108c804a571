package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/logbook/internal/domain"
	"github.com/MrSnakeDoc/logbook/internal/httpserver/deps"
	"github.com/MrSnakeDoc/logbook/internal/logger"
)

const defaultStreamHeartbeat = 15 * time.Second

// Events streams every new entry as a Server-Sent Event named "new-log".
// Observers filter by project themselves. Comment lines are sent as
// heartbeats so idle proxies keep the connection open.
func Events(d deps.Deps) http.HandlerFunc {
	heartbeat := d.StreamHeartbeat
	if heartbeat <= 0 {
		heartbeat = defaultStreamHeartbeat
	}

	return func(w http.ResponseWriter, r *http.Request) {
		rc := http.NewResponseController(w)

		sub, err := d.Hub.Subscribe(r.Context())
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
			return
		}
		defer sub.Close()

		// The server's WriteTimeout would otherwise cut the stream.
		_ = rc.SetWriteDeadline(time.Time{})

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			d.Logger.Warn("stream flush unsupported", logger.Error(err))
			return
		}

		d.Logger.Debug("live observer connected",
			logger.Uint64("subscription", sub.ID()),
			logger.String("remote_ip", r.RemoteAddr))

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				d.Logger.Debug("live observer disconnected",
					logger.Uint64("subscription", sub.ID()),
					logger.Uint64("dropped", sub.Dropped()))
				return

			case event, ok := <-sub.Events():
				if !ok {
					// Hub closed during shutdown.
					return
				}
				if err := writeEvent(w, event); err != nil {
					return
				}
				if err := rc.Flush(); err != nil {
					return
				}

			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
					return
				}
				if err := rc.Flush(); err != nil {
					return
				}
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, event domain.LiveEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", event.Entry.ID, domain.EventNewLog, data)
	return err
}
