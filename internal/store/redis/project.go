package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/MrSnakeDoc/logbook/internal/domain"
	"github.com/redis/go-redis/v9"
)

// CreateProject stores a new project in Redis
func (s *Store) CreateProject(ctx context.Context, name string) (*domain.Project, error) {
	name, err := domain.NormalizeProjectName(name)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	p := &domain.Project{ID: domain.NewID(), Name: name, CreatedAt: now, UpdatedAt: now}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal project: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, ProjectKey(p.ID), data, 0)
		pipe.SAdd(ctx, AllProjectsKey(), p.ID)
		return nil
	})
	if err != nil {
		return nil, classify("create project", err)
	}
	return p, nil
}

// ListProjects retrieves all projects, oldest first
func (s *Store) ListProjects(ctx context.Context) ([]*domain.Project, error) {
	ids, err := s.client.SMembers(ctx, AllProjectsKey()).Result()
	if err != nil {
		return nil, classify("list projects", err)
	}

	if len(ids) == 0 {
		return []*domain.Project{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = ProjectKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, classify("list projects", err)
	}

	projects := make([]*domain.Project, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Removed between SMEMBERS and MGET
			continue
		}
		var p domain.Project
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal project: %w", err)
		}
		projects = append(projects, &p)
	}

	slices.SortFunc(projects, func(a, b *domain.Project) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return projects, nil
}

// GetProject retrieves a project by ID
func (s *Store) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	p, err := loadProject(ctx, s.client, id)
	if err != nil {
		return nil, classify("get project", err)
	}
	return p, nil
}

// RenameProject changes a project's display name
func (s *Store) RenameProject(ctx context.Context, id, name string) (*domain.Project, error) {
	name, err := domain.NormalizeProjectName(name)
	if err != nil {
		return nil, err
	}

	var renamed *domain.Project
	err = s.watch(ctx, "rename project", func(tx *redis.Tx) error {
		p, err := loadProject(ctx, tx, id)
		if err != nil {
			return err
		}
		p.Name = name
		p.UpdatedAt = s.clock.Now()

		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal project: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, ProjectKey(id), data, 0)
			return nil
		})
		renamed = p
		return err
	}, ProjectKey(id))
	if err != nil {
		return nil, err
	}
	return renamed, nil
}

// DeleteProject removes a project together with all of its entries
func (s *Store) DeleteProject(ctx context.Context, id string) (*domain.Project, error) {
	var deleted *domain.Project
	err := s.watch(ctx, "delete project", func(tx *redis.Tx) error {
		p, err := loadProject(ctx, tx, id)
		if err != nil {
			return err
		}
		ids, err := tx.ZRange(ctx, ProjectEntriesKey(id), 0, -1).Result()
		if err != nil {
			return fmt.Errorf("failed to list project entries: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(ids) > 0 {
				pipe.Del(ctx, entryKeys(ids)...)
			}
			pipe.Del(ctx, ProjectEntriesKey(id), ProjectKey(id))
			pipe.SRem(ctx, AllProjectsKey(), id)
			return nil
		})
		deleted = p
		return err
	}, ProjectKey(id), ProjectEntriesKey(id))
	if err != nil {
		return nil, err
	}
	return deleted, nil
}
