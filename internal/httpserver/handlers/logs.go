package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/logbook/internal/aggregate"
	"github.com/MrSnakeDoc/logbook/internal/domain"
	"github.com/MrSnakeDoc/logbook/internal/httpserver/deps"
	"github.com/MrSnakeDoc/logbook/internal/logger"
)

type createLogRequest struct {
	Content []json.RawMessage `json:"content"`
}

type deleteLogsResponse struct {
	Count int64 `json:"count"`
}

func logID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "logID")
	if err := domain.ValidateID(id); err != nil {
		return "", err
	}
	return id, nil
}

// CreateLog ingests one entry and broadcasts it to live observers.
func CreateLog(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := projectID(r)
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		var req createLogRequest
		if err := decodeJSON(w, r, d, &req); err != nil {
			writeError(w, r, d, err)
			return
		}

		entry, err := d.Ingest.Ingest(r.Context(), id, req.Content)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	}
}

// ListLogs returns the project's entries bucketed by day, newest first.
func ListLogs(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := projectID(r)
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		entries, err := d.Store.ListEntries(r.Context(), id)
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		buckets := aggregate.GroupByDay(entries, d.Calendar)
		if pred := aggregate.ContainsText(r.URL.Query().Get("search")); pred != nil {
			buckets = aggregate.Filter(buckets, pred)
		}
		writeJSON(w, http.StatusOK, buckets)
	}
}

// DeleteLogs deletes every entry of the project, or only the day named by
// the date query parameter.
func DeleteLogs(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := projectID(r)
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		var bounds *domain.TimeRange
		if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
			day, err := d.Calendar.ParseDay(raw)
			if err != nil {
				writeError(w, r, d, err)
				return
			}
			b := d.Calendar.Bounds(day)
			bounds = &b
		}

		n, err := d.Store.DeleteRange(r.Context(), id, bounds)
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		fields := []logger.Field{logger.String("project_id", id), logger.Int64("deleted", n)}
		if bounds != nil {
			fields = append(fields, logger.String("day", d.Calendar.Label(bounds.Start)))
		}
		d.Logger.Info("entries deleted", fields...)
		writeJSON(w, http.StatusOK, deleteLogsResponse{Count: n})
	}
}

func GetLog(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := logID(r)
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		entry, err := d.Store.GetEntry(r.Context(), id)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}

// DeleteLog removes one entry. Deleting an entry that does not exist
// answers 204.
func DeleteLog(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := logID(r)
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		entry, err := d.Store.DeleteEntry(r.Context(), id)
		if errors.Is(err, domain.ErrNotFound) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}
