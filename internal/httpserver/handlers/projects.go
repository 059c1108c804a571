package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/logbook/internal/domain"
	"github.com/MrSnakeDoc/logbook/internal/httpserver/deps"
	"github.com/MrSnakeDoc/logbook/internal/logger"
)

type projectRequest struct {
	Name *string `json:"name"`
}

// projectID reads and validates the {projectID} URL parameter.
func projectID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "projectID")
	if err := domain.ValidateID(id); err != nil {
		return "", err
	}
	return id, nil
}

func CreateProject(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req projectRequest
		if err := decodeJSON(w, r, d, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		if req.Name == nil {
			writeError(w, r, d, fmt.Errorf("%w: name is required", domain.ErrInvalidInput))
			return
		}

		p, err := d.Store.CreateProject(r.Context(), *req.Name)
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		d.Logger.Info("project created",
			logger.String("project_id", p.ID),
			logger.String("name", p.Name))
		writeJSON(w, http.StatusCreated, p)
	}
}

func ListProjects(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := d.Store.ListProjects(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, projects)
	}
}

func GetProject(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := projectID(r)
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		p, err := d.Store.GetProject(r.Context(), id)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// UpdateProject renames a project. A body without a name leaves it
// unchanged.
func UpdateProject(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := projectID(r)
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		var req projectRequest
		if err := decodeJSON(w, r, d, &req); err != nil {
			writeError(w, r, d, err)
			return
		}

		var p *domain.Project
		if req.Name == nil {
			p, err = d.Store.GetProject(r.Context(), id)
		} else {
			p, err = d.Store.RenameProject(r.Context(), id, *req.Name)
		}
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// DeleteProject removes a project and its entries. Deleting a project
// that does not exist answers 204.
func DeleteProject(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := projectID(r)
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		p, err := d.Store.DeleteProject(r.Context(), id)
		if errors.Is(err, domain.ErrNotFound) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		d.Logger.Info("project deleted", logger.String("project_id", p.ID))
		writeJSON(w, http.StatusOK, p)
	}
}
