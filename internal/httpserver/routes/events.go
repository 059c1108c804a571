package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/logbook/internal/httpserver/deps"
	"github.com/MrSnakeDoc/logbook/internal/httpserver/handlers"
)

func init() { RegisterStreaming(registerEvents) }

func registerEvents(r chi.Router, d deps.Deps) {
	r.Get("/events", handlers.Events(d))
}
