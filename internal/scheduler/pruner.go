package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/logbook/internal/domain"
	"github.com/MrSnakeDoc/logbook/internal/logger"
)

const (
	// DefaultPruneInterval is how often the retention pruner runs.
	DefaultPruneInterval = time.Hour
)

// PruneStore is what the pruner needs from the entry store.
type PruneStore interface {
	ListProjects(ctx context.Context) ([]*domain.Project, error)
	DeleteRange(ctx context.Context, projectID string, r *domain.TimeRange) (int64, error)
}

// Pruner deletes entries older than the retention age from every project.
type Pruner struct {
	store    PruneStore
	logger   logger.Logger
	interval time.Duration
	maxAge   time.Duration
	now      func() time.Time
	stopCh   chan struct{}
}

// NewPruner creates a retention pruner. maxAge must be positive.
func NewPruner(
	store PruneStore,
	log logger.Logger,
	interval time.Duration,
	maxAge time.Duration,
) *Pruner {
	if interval <= 0 {
		interval = DefaultPruneInterval
	}

	return &Pruner{
		store:    store,
		logger:   log,
		interval: interval,
		maxAge:   maxAge,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start runs a first prune, then prunes on every tick until Stop or ctx
// is done.
func (p *Pruner) Start(ctx context.Context) error {
	if _, err := p.Prune(ctx); err != nil {
		p.logger.Warn("initial retention prune failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(p.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := p.Prune(ctx); err != nil {
					p.logger.Error("retention prune failed",
						logger.Error(err))
				}
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the pruner
func (p *Pruner) Stop() {
	close(p.stopCh)
}

// Prune deletes every entry created before now - maxAge and returns how
// many were removed. A failure on one project does not stop the others.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.maxAge <= 0 {
		return 0, nil
	}

	projects, err := p.store.ListProjects(ctx)
	if err != nil {
		return 0, fmt.Errorf("list projects: %w", err)
	}

	cutoff := p.now().Add(-p.maxAge)
	window := &domain.TimeRange{Start: time.UnixMilli(0), End: cutoff}

	var (
		total int64
		errs  []error
	)
	for _, project := range projects {
		n, err := p.store.DeleteRange(ctx, project.ID, window)
		if err != nil {
			p.logger.Warn("failed to prune project",
				logger.String("project_id", project.ID),
				logger.Error(err))
			errs = append(errs, err)
			continue
		}
		if n > 0 {
			p.logger.Info("pruned expired entries",
				logger.String("project_id", project.ID),
				logger.String("project", project.Name),
				logger.Int64("deleted", n))
		}
		total += n
	}

	if total == 0 {
		p.logger.Debug("no entries to prune")
	}
	return total, errors.Join(errs...)
}
