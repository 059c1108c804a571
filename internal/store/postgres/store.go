// Package postgres implements the entry store on PostgreSQL through the
// pgx database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/logbook/internal/domain"
	"github.com/MrSnakeDoc/logbook/internal/store"
)

// Store is the PostgreSQL-backed entry store. Content items cascade
// with their entry and entries cascade with their project through
// foreign keys.
type Store struct {
	db    *sql.DB
	clock store.Clock
}

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(c store.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// NewStore wraps an open database whose schema is migrated.
func NewStore(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Backend() string { return "postgres" }

func (s *Store) Ping(ctx context.Context) error {
	return classify("ping", s.db.PingContext(ctx))
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

// knownID rejects ids the uuid column could never hold, so lookups for
// them read as missing instead of failing in the driver.
func knownID(kind, id string) error {
	if domain.ValidateID(id) != nil {
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, kind, id)
	}
	return nil
}

func notFound(err error, kind, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, kind, id)
	}
	return err
}

func domainInvalid(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, msg)
}
