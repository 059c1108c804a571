package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/logbook/internal/httpserver/deps"
)

type componentStatus struct {
	OK          bool   `json:"ok"`
	Backend     string `json:"backend,omitempty"`
	Subscribers *int   `json:"subscribers,omitempty"`
	LastReload  string `json:"last_reload,omitempty"`
	Mode        string `json:"mode,omitempty"`
	Impact      string `json:"impact,omitempty"`
	Error       string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Calendar   string                     `json:"calendar"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subscribers := d.Hub.Count()

		components := map[string]componentStatus{
			"store": checkStore(r.Context(), d),
			"live": {
				OK:          true,
				Mode:        "sse",
				Subscribers: &subscribers,
			},
			"projects_seed": seedStatus(d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Status:     determineStatus(components),
			Calendar:   d.Calendar.Location().String(),
			Components: components,
		})
	}
}

func determineStatus(components map[string]componentStatus) string {
	// Store down = critical (no ingest, no history)
	if store, exists := components["store"]; exists && !store.OK {
		return "critical"
	}
	if seed, exists := components["projects_seed"]; exists && !seed.OK {
		return "degraded"
	}
	return "operational"
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	if d.Store == nil {
		return componentStatus{OK: false, Error: "store not initialized"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.Store.Ping(ctx); err != nil {
		return componentStatus{
			OK:      false,
			Backend: d.Store.Backend(),
			Impact:  "ingest-and-history-unavailable",
			Error:   err.Error(),
		}
	}
	return componentStatus{OK: true, Backend: d.Store.Backend()}
}

func seedStatus(d deps.Deps) componentStatus {
	if d.LastReload == nil {
		return componentStatus{OK: true, Mode: "disabled"}
	}

	last := d.LastReload()
	if last.IsZero() {
		return componentStatus{OK: false, Mode: "file", LastReload: "never"}
	}
	return componentStatus{OK: true, Mode: "file", LastReload: last.Format("2006-01-02 15:04:05")}
}
