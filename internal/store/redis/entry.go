package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/MrSnakeDoc/logbook/internal/domain"
	"github.com/redis/go-redis/v9"
)

// CreateEntry stores an entry and its content items under one key. The
// write only commits if the project still exists.
func (s *Store) CreateEntry(ctx context.Context, projectID string, contents []string) (*domain.Entry, error) {
	if len(contents) == 0 {
		return nil, fmt.Errorf("%w: entry needs at least one content item", domain.ErrInvalidInput)
	}

	seq, err := s.client.Incr(ctx, KeyEntrySeq).Result()
	if err != nil {
		return nil, classify("create entry", err)
	}

	now := s.clock.Now()
	id := domain.NewID()
	e := &domain.Entry{
		ID:        id,
		ProjectID: projectID,
		CreatedAt: now,
		Seq:       seq,
		Content:   domain.NewContentItems(id, now, contents),
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entry: %w", err)
	}

	err = s.watch(ctx, "create entry", func(tx *redis.Tx) error {
		p, err := loadProject(ctx, tx, projectID)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, EntryKey(id), data, 0)
			pipe.ZAdd(ctx, ProjectEntriesKey(projectID), redis.Z{
				Score:  float64(now.UnixMilli()),
				Member: id,
			})
			return nil
		})
		e.Project = p.Summary()
		return err
	}, ProjectKey(projectID))
	if err != nil {
		return nil, err
	}
	return e, nil
}

// GetEntry retrieves an entry by ID
func (s *Store) GetEntry(ctx context.Context, id string) (*domain.Entry, error) {
	e, err := loadEntry(ctx, s.client, id)
	if err != nil {
		return nil, classify("get entry", err)
	}
	if p, err := loadProject(ctx, s.client, e.ProjectID); err == nil {
		e.Project = p.Summary()
	}
	return e, nil
}

// DeleteEntry removes an entry and its content items
func (s *Store) DeleteEntry(ctx context.Context, id string) (*domain.Entry, error) {
	var deleted *domain.Entry
	err := s.watch(ctx, "delete entry", func(tx *redis.Tx) error {
		e, err := loadEntry(ctx, tx, id)
		if err != nil {
			return err
		}
		if p, err := loadProject(ctx, tx, e.ProjectID); err == nil {
			e.Project = p.Summary()
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, EntryKey(id))
			pipe.ZRem(ctx, ProjectEntriesKey(e.ProjectID), id)
			return nil
		})
		deleted = e
		return err
	}, EntryKey(id))
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// DeleteRange removes a project's entries created inside r, or all of
// them when r is nil
func (s *Store) DeleteRange(ctx context.Context, projectID string, r *domain.TimeRange) (int64, error) {
	key := ProjectEntriesKey(projectID)
	rangeBy := &redis.ZRangeBy{Min: "-inf", Max: "+inf"}
	if r != nil {
		rangeBy.Min = strconv.FormatInt(r.Start.UnixMilli(), 10)
		rangeBy.Max = strconv.FormatInt(r.End.UnixMilli(), 10)
	}

	var deleted int64
	err := s.watch(ctx, "delete range", func(tx *redis.Tx) error {
		ids, err := tx.ZRangeByScore(ctx, key, rangeBy).Result()
		if err != nil {
			return fmt.Errorf("failed to range entries: %w", err)
		}
		if len(ids) == 0 {
			deleted = 0
			return nil
		}

		members := make([]any, len(ids))
		for i, id := range ids {
			members[i] = id
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, entryKeys(ids)...)
			pipe.ZRem(ctx, key, members...)
			return nil
		})
		deleted = int64(len(ids))
		return err
	}, key)
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// ListEntries returns a project's entries newest first
func (s *Store) ListEntries(ctx context.Context, projectID string) ([]*domain.Entry, error) {
	p, err := loadProject(ctx, s.client, projectID)
	if err != nil {
		return nil, classify("list entries", err)
	}

	ids, err := s.client.ZRevRange(ctx, ProjectEntriesKey(projectID), 0, -1).Result()
	if err != nil {
		return nil, classify("list entries", err)
	}
	if len(ids) == 0 {
		return []*domain.Entry{}, nil
	}

	values, err := s.client.MGet(ctx, entryKeys(ids)...).Result()
	if err != nil {
		return nil, classify("list entries", err)
	}

	summary := p.Summary()
	entries := make([]*domain.Entry, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Deleted between ZREVRANGE and MGET
			continue
		}
		var e domain.Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
		}
		e.Project = summary
		entries = append(entries, &e)
	}

	sortNewestFirst(entries)
	return entries, nil
}
