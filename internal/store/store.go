// Package store defines the persistence boundary shared by the redis,
// postgres and memory backends.
//
// Every method is one atomic unit against the backend. Implementations
// return domain.ErrNotFound for missing projects and entries and wrap
// backend outages in domain.ErrTransientStore.
package store

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/logbook/internal/domain"
)

// Projects is the project half of the store.
type Projects interface {
	CreateProject(ctx context.Context, name string) (*domain.Project, error)
	ListProjects(ctx context.Context) ([]*domain.Project, error)
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	RenameProject(ctx context.Context, id, name string) (*domain.Project, error)
	// DeleteProject removes the project and every entry it owns.
	DeleteProject(ctx context.Context, id string) (*domain.Project, error)
}

// Entries is the entry half of the store.
type Entries interface {
	// CreateEntry persists an entry and its content items together. The
	// store assigns the id, CreatedAt and Seq.
	CreateEntry(ctx context.Context, projectID string, contents []string) (*domain.Entry, error)
	GetEntry(ctx context.Context, id string) (*domain.Entry, error)
	DeleteEntry(ctx context.Context, id string) (*domain.Entry, error)
	// DeleteRange removes the project's entries inside r (inclusive), or
	// all of them when r is nil. Matching nothing is not an error.
	DeleteRange(ctx context.Context, projectID string, r *domain.TimeRange) (int64, error)
	// ListEntries returns the project's entries newest first.
	ListEntries(ctx context.Context, projectID string) ([]*domain.Entry, error)
}

// Store is a complete backend.
type Store interface {
	Projects
	Entries
	Ping(ctx context.Context) error
	Backend() string
}

// Clock returns the current time. Stores truncate it to milliseconds.
type Clock func() time.Time

// Now applies the shared timestamp policy of every backend.
func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now().Truncate(time.Millisecond)
	}
	return c().Truncate(time.Millisecond)
}
