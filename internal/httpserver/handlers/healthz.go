package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/logbook/internal/httpserver/deps"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Backend       string  `json:"backend"`
	Subscribers   int     `json:"live_subscribers"`
	Version       string  `json:"version,omitempty"`
	Commit        string  `json:"commit,omitempty"`
	BuildDate     string  `json:"build_date,omitempty"`
	GoVersion     string  `json:"go_version,omitempty"`
}

type rootResponse struct {
	Message string `json:"message"`
}

// Root answers liveness probes that only know "/".
func Root(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, rootResponse{Message: "logbook healthy"})
	}
}

// Healthz reports process liveness with the store backend and the number
// of open live streams. It never touches the store.
func Healthz(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	return func(w http.ResponseWriter, r *http.Request) {
		subscribers := 0
		if d.Hub != nil {
			subscribers = d.Hub.Count()
		}
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
			UptimeSeconds: d.Now().Sub(start).Seconds(),
			Backend:       d.Store.Backend(),
			Subscribers:   subscribers,
		})
	}
}

