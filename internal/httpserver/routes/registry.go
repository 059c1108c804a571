package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/logbook/internal/httpserver/deps"
)

const defaultRequestTimeout = 5 * time.Second

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type entry struct {
	reg       Registrar
	mws       []Middleware
	streaming bool
}

var registry []entry

// Register a registrar with optional per-route middlewares.
func Register(reg Registrar, mws ...Middleware) {
	registry = append(registry, entry{reg: reg, mws: mws})
}

// RegisterStreaming registers long-lived routes that must not get the
// per-request timeout.
func RegisterStreaming(reg Registrar, mws ...Middleware) {
	registry = append(registry, entry{reg: reg, mws: mws, streaming: true})
}

// Called once from server.New()
func RegisterAll(r chi.Router, d deps.Deps) {
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	for _, e := range registry {
		mws := e.mws
		if !e.streaming {
			mws = append([]Middleware{middleware.Timeout(timeout)}, mws...)
		}
		sub := r.With(mws...) // apply per-route middlewares
		e.reg(sub, d)
	}
}
