package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/logbook/internal/domain"
	"github.com/MrSnakeDoc/logbook/internal/logger"
	"github.com/MrSnakeDoc/logbook/internal/sources/projects"
)

// DefaultSeedInterval is how often the seed file is re-applied.
const DefaultSeedInterval = 5 * time.Minute

// SeedStore is what the seeder needs from the entry store.
type SeedStore interface {
	ListProjects(ctx context.Context) ([]*domain.Project, error)
	CreateProject(ctx context.Context, name string) (*domain.Project, error)
}

// ProjectSeeder makes sure every project named in the seed file exists.
// It never renames or deletes projects.
type ProjectSeeder struct {
	loader        *projects.Loader
	store         SeedStore
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}

	mu         sync.RWMutex
	lastReload time.Time
}

// NewProjectSeeder creates a seeder for seedFile. manualTrigger receives
// POST /reload requests.
func NewProjectSeeder(
	seedFile string,
	store SeedStore,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *ProjectSeeder {
	if interval <= 0 {
		interval = DefaultSeedInterval
	}

	return &ProjectSeeder{
		loader:        projects.NewLoader(seedFile),
		store:         store,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start seeds immediately, then on every tick and manual trigger.
func (s *ProjectSeeder) Start(ctx context.Context) error {
	if _, err := s.Reload(ctx); err != nil {
		return fmt.Errorf("initial seed failed: %w", err)
	}

	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := s.Reload(ctx); err != nil {
					s.logger.Error("failed to reload projects",
						logger.Error(err))
				}
			case <-s.manualTrigger:
				s.logger.Info("manual reload triggered")
				if _, err := s.Reload(ctx); err != nil {
					s.logger.Error("failed to reload projects",
						logger.Error(err))
				}
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the seeder
func (s *ProjectSeeder) Stop() {
	close(s.stopCh)
}

// LastReload returns when the seed file was last applied successfully.
func (s *ProjectSeeder) LastReload() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastReload
}

// Reload loads the seed file and creates the projects that are missing,
// matching by name. It returns the newly created projects.
func (s *ProjectSeeder) Reload(ctx context.Context) ([]*domain.Project, error) {
	s.logger.Info("reloading projects seed file",
		logger.String("path", s.loader.Path()))

	seed, err := s.loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}
	names := seed.Names()

	existing, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	known := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		known[p.Name] = struct{}{}
	}

	var created []*domain.Project
	for _, name := range names {
		if _, ok := known[name]; ok {
			continue
		}
		p, err := s.store.CreateProject(ctx, name)
		if err != nil {
			return created, fmt.Errorf("failed to create project %q: %w", name, err)
		}
		s.logger.Info("seeded project",
			logger.String("project_id", p.ID),
			logger.String("project", p.Name))
		created = append(created, p)
	}

	s.logger.Info("projects seed applied",
		logger.Int("declared", len(names)),
		logger.Int("created", len(created)))

	s.mu.Lock()
	s.lastReload = time.Now()
	s.mu.Unlock()

	return created, nil
}
