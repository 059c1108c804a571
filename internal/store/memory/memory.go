// Package memory is an in-process store used for development and tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/MrSnakeDoc/logbook/internal/domain"
	"github.com/MrSnakeDoc/logbook/internal/store"
)

// Store keeps projects and entries in maps behind one RWMutex, so every
// call is atomic with respect to every other.
type Store struct {
	mu        sync.RWMutex
	projects  map[string]*domain.Project // ID -> Project
	entries   map[string]*domain.Entry   // ID -> Entry
	byProject map[string][]string        // project ID -> entry IDs, insertion order
	seq       int64
	clock     store.Clock
}

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(c store.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		projects:  make(map[string]*domain.Project),
		entries:   make(map[string]*domain.Entry),
		byProject: make(map[string][]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Backend() string { return "memory" }

func (s *Store) Ping(context.Context) error { return nil }

// ─────────────────────────────────────────────────────────────────
// Projects
// ─────────────────────────────────────────────────────────────────

func (s *Store) CreateProject(_ context.Context, name string) (*domain.Project, error) {
	name, err := domain.NormalizeProjectName(name)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	p := &domain.Project{ID: domain.NewID(), Name: name, CreatedAt: now, UpdatedAt: now}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = p
	copied := *p
	return &copied, nil
}

func (s *Store) ListProjects(context.Context) ([]*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Project, 0, len(s.projects))
	for _, p := range s.projects {
		copied := *p
		out = append(out, &copied)
	}
	slices.SortFunc(out, func(a, b *domain.Project) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (s *Store) GetProject(_ context.Context, id string) (*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("%w: project %s", domain.ErrNotFound, id)
	}
	copied := *p
	return &copied, nil
}

func (s *Store) RenameProject(_ context.Context, id, name string) (*domain.Project, error) {
	name, err := domain.NormalizeProjectName(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("%w: project %s", domain.ErrNotFound, id)
	}
	p.Name = name
	p.UpdatedAt = s.clock.Now()
	copied := *p
	return &copied, nil
}

func (s *Store) DeleteProject(_ context.Context, id string) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("%w: project %s", domain.ErrNotFound, id)
	}
	for _, entryID := range s.byProject[id] {
		delete(s.entries, entryID)
	}
	delete(s.byProject, id)
	delete(s.projects, id)
	return p, nil
}

// ─────────────────────────────────────────────────────────────────
// Entries
// ─────────────────────────────────────────────────────────────────

func (s *Store) CreateEntry(_ context.Context, projectID string, contents []string) (*domain.Entry, error) {
	if len(contents) == 0 {
		return nil, fmt.Errorf("%w: entry needs at least one content item", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return nil, fmt.Errorf("%w: project %s", domain.ErrNotFound, projectID)
	}

	s.seq++
	now := s.clock.Now()
	id := domain.NewID()
	e := &domain.Entry{
		ID:        id,
		ProjectID: projectID,
		CreatedAt: now,
		Seq:       s.seq,
		Content:   domain.NewContentItems(id, now, contents),
	}
	s.entries[id] = e
	s.byProject[projectID] = append(s.byProject[projectID], id)

	return withProject(e, p), nil
}

func (s *Store) GetEntry(_ context.Context, id string) (*domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: entry %s", domain.ErrNotFound, id)
	}
	return withProject(e, s.projects[e.ProjectID]), nil
}

func (s *Store) DeleteEntry(_ context.Context, id string) (*domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: entry %s", domain.ErrNotFound, id)
	}
	delete(s.entries, id)
	s.byProject[e.ProjectID] = slices.DeleteFunc(s.byProject[e.ProjectID], func(v string) bool { return v == id })
	return withProject(e, s.projects[e.ProjectID]), nil
}

func (s *Store) DeleteRange(_ context.Context, projectID string, r *domain.TimeRange) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	kept := s.byProject[projectID][:0]
	for _, id := range s.byProject[projectID] {
		e := s.entries[id]
		if r == nil || r.Contains(e.CreatedAt) {
			delete(s.entries, id)
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	if _, ok := s.byProject[projectID]; ok {
		s.byProject[projectID] = kept
	}
	return deleted, nil
}

func (s *Store) ListEntries(_ context.Context, projectID string) ([]*domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[projectID]
	if !ok {
		return nil, fmt.Errorf("%w: project %s", domain.ErrNotFound, projectID)
	}

	ids := s.byProject[projectID]
	out := make([]*domain.Entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, withProject(s.entries[id], p))
	}
	slices.SortStableFunc(out, func(a, b *domain.Entry) int {
		switch {
		case a.NewerThan(b):
			return -1
		case b.NewerThan(a):
			return 1
		}
		return 0
	})
	return out, nil
}

// withProject returns a copy of e carrying p's summary, so callers never
// share the stored pointer.
func withProject(e *domain.Entry, p *domain.Project) *domain.Entry {
	copied := *e
	copied.Content = slices.Clone(e.Content)
	copied.Project = p.Summary()
	return &copied
}
