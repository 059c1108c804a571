package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/MrSnakeDoc/logbook/internal/domain"
	"github.com/MrSnakeDoc/logbook/internal/store"
	"github.com/redis/go-redis/v9"
)

// maxTxRetries bounds optimistic transaction retries on WATCH conflicts.
const maxTxRetries = 5

// Store handles Redis operations for projects and entries
type Store struct {
	client *redis.Client
	clock  store.Clock
}

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(c store.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Backend() string { return "redis" }

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return classify("ping", s.client.Ping(ctx).Err())
}

// classify passes domain errors through and marks everything else as a
// transient backend failure.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrTransientStore):
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrTransientStore, op, err)
}

// watch runs fn as an optimistic transaction over keys, retrying when a
// watched key changes underneath it.
func (s *Store) watch(ctx context.Context, op string, fn func(*redis.Tx) error, keys ...string) error {
	for range maxTxRetries {
		err := s.client.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return classify(op, err)
	}
	return fmt.Errorf("%w: %s: too many concurrent writers", domain.ErrTransientStore, op)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func loadProject(ctx context.Context, c getter, id string) (*domain.Project, error) {
	data, err := c.Get(ctx, ProjectKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: project %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	var p domain.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project: %w", err)
	}
	return &p, nil
}

func loadEntry(ctx context.Context, c getter, id string) (*domain.Entry, error) {
	data, err := c.Get(ctx, EntryKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: entry %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	var e domain.Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return &e, nil
}

func sortNewestFirst(entries []*domain.Entry) {
	slices.SortStableFunc(entries, func(a, b *domain.Entry) int {
		switch {
		case a.NewerThan(b):
			return -1
		case b.NewerThan(a):
			return 1
		}
		return 0
	})
}
