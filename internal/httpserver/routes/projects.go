package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/logbook/internal/httpserver/deps"
	"github.com/MrSnakeDoc/logbook/internal/httpserver/handlers"
)

func init() { Register(registerProjects) }

func registerProjects(r chi.Router, d deps.Deps) {
	r.Post("/projects", handlers.CreateProject(d))
	r.Get("/projects", handlers.ListProjects(d))
	r.Get("/projects/{projectID}", handlers.GetProject(d))
	r.Put("/projects/{projectID}", handlers.UpdateProject(d))
	r.Delete("/projects/{projectID}", handlers.DeleteProject(d))
}
