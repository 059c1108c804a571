package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/MrSnakeDoc/logbook/internal/domain"
	"github.com/MrSnakeDoc/logbook/internal/httpserver/deps"
	"github.com/MrSnakeDoc/logbook/internal/logger"
)

const defaultMaxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes.
func writeError(w http.ResponseWriter, r *http.Request, d deps.Deps, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrTransientStore):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		d.Logger.Error("request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err))
	} else {
		d.Logger.Debug("request rejected",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Error(err))
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads one JSON object from the body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, d deps.Deps, dst any) error {
	limit := d.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	body := http.MaxBytesReader(w, r.Body, limit)

	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return fmt.Errorf("%w: body exceeds %d bytes", domain.ErrInvalidInput, tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", domain.ErrInvalidInput)
		}
		return fmt.Errorf("%w: malformed json: %v", domain.ErrInvalidInput, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after json body", domain.ErrInvalidInput)
	}
	return nil
}
