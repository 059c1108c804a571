package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/logbook/internal/httpserver/deps"
	"github.com/MrSnakeDoc/logbook/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/logbook/internal/httpserver/mw"
)

func init() { Register(registerOps) }

// registerOps mounts the operator endpoints. Probes only check the client
// address; /infra and /reload also require an allowed Host.
func registerOps(r chi.Router, d deps.Deps) {
	r.Get("/", handlers.Root(d))

	r.Group(func(ops chi.Router) {
		ops.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
		ops.Get("/healthz", handlers.Healthz(d))
		ops.Get("/readyz", handlers.Readyz(d))

		ops.Group(func(admin chi.Router) {
			admin.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
			admin.Get("/infra", handlers.Infra(d))
			admin.Post("/reload", handlers.Reload(d))
		})
	})
}
