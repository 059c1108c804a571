package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/logbook/internal/httpserver/deps"
	"github.com/MrSnakeDoc/logbook/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/logbook/internal/httpserver/mw"
)

func init() { Register(registerLogs) }

func registerLogs(r chi.Router, d deps.Deps) {
	ingest := r
	if d.IngestBurst > 0 {
		ingest = r.With(mw.RateLimit(mw.RateLimitConfig{
			Burst:        d.IngestBurst,
			RefillPerMin: d.IngestRefill,
			MaxEntries:   10000,
			TrustProxy:   d.TrustProxy,
			Logger:       d.Logger,
		}))
	}
	ingest.Post("/projects/{projectID}/logs", handlers.CreateLog(d))

	r.Get("/projects/{projectID}/logs", handlers.ListLogs(d))
	r.Delete("/projects/{projectID}/logs", handlers.DeleteLogs(d))
	r.Get("/logs/{logID}", handlers.GetLog(d))
	r.Delete("/logs/{logID}", handlers.DeleteLog(d))
}
