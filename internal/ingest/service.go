// Package ingest accepts new entries, persists them and announces them to
// live observers.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MrSnakeDoc/logbook/internal/domain"
	"github.com/MrSnakeDoc/logbook/internal/logger"
)

// Creator is the slice of the entry store the service writes through.
type Creator interface {
	CreateEntry(ctx context.Context, projectID string, contents []string) (*domain.Entry, error)
}

// Publisher fans an event out to live observers.
type Publisher interface {
	Publish(event domain.LiveEvent) (delivered, dropped int)
}

// Service validates, persists and broadcasts entries.
type Service struct {
	store    Creator
	hub      Publisher
	calendar domain.Calendar
	logger   logger.Logger
}

// NewService creates an ingestion service. The calendar must be the one
// used to bucket history so live and fetched labels agree.
func NewService(store Creator, hub Publisher, cal domain.Calendar, log logger.Logger) *Service {
	return &Service{store: store, hub: hub, calendar: cal, logger: log}
}

// Ingest stores one entry made of raw JSON content values and publishes
// it. The entry is returned once persisted; broadcast problems are logged
// and never fail the call.
func (s *Service) Ingest(ctx context.Context, projectID string, raw []json.RawMessage) (*domain.Entry, error) {
	if err := domain.ValidateID(projectID); err != nil {
		return nil, err
	}
	contents, err := domain.CanonicalContents(raw)
	if err != nil {
		return nil, err
	}
	return s.IngestText(ctx, projectID, contents)
}

// IngestText is Ingest for contents that are already text.
func (s *Service) IngestText(ctx context.Context, projectID string, contents []string) (*domain.Entry, error) {
	if err := domain.ValidateID(projectID); err != nil {
		return nil, err
	}
	if len(contents) == 0 {
		return nil, fmt.Errorf("%w: content must not be empty", domain.ErrInvalidInput)
	}

	entry, err := s.store.CreateEntry(ctx, projectID, contents)
	if err != nil {
		return nil, err
	}

	s.broadcast(entry)
	return entry, nil
}

func (s *Service) broadcast(entry *domain.Entry) {
	event := domain.LiveEvent{Entry: entry, DayLabel: s.calendar.Label(entry.CreatedAt)}
	delivered, dropped := s.hub.Publish(event)
	if dropped > 0 {
		s.logger.Warn("live broadcast dropped for slow observers",
			logger.String("entry_id", entry.ID),
			logger.Int("delivered", delivered),
			logger.Int("dropped", dropped),
			logger.Error(domain.ErrBroadcastDelivery))
		return
	}
	s.logger.Debug("entry broadcast",
		logger.String("entry_id", entry.ID),
		logger.String("day", event.DayLabel),
		logger.Int("delivered", delivered))
}
