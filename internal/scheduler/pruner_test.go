package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/logbook/internal/domain"
	"github.com/MrSnakeDoc/logbook/internal/logger"
	"github.com/MrSnakeDoc/logbook/internal/store/memory"
)

func TestPruner_Prune(t *testing.T) {
	log := logger.New("error", false)
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

	stamps := []time.Time{
		now.Add(-40 * 24 * time.Hour), // project a
		now.Add(-40 * 24 * time.Hour), // project b
		now.Add(-35 * 24 * time.Hour), // a: expired
		now.Add(-10 * 24 * time.Hour), // a: kept
		now.Add(-31 * 24 * time.Hour), // b: expired
		now,                           // b: kept
	}
	st := memory.NewStore(memory.WithClock(func() time.Time {
		ts := stamps[0]
		stamps = stamps[1:]
		return ts
	}))

	ctx := context.Background()
	a, _ := st.CreateProject(ctx, "a")
	b, _ := st.CreateProject(ctx, "b")
	st.CreateEntry(ctx, a.ID, []string{"old"})
	keptA, _ := st.CreateEntry(ctx, a.ID, []string{"recent"})
	st.CreateEntry(ctx, b.ID, []string{"old"})
	keptB, _ := st.CreateEntry(ctx, b.ID, []string{"now"})

	p := NewPruner(st, log, time.Hour, 30*24*time.Hour)
	p.now = func() time.Time { return now }

	deleted, err := p.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("Prune() deleted = %d, want 2", deleted)
	}

	for _, tc := range []struct {
		project string
		keep    string
	}{{a.ID, keptA.ID}, {b.ID, keptB.ID}} {
		entries, _ := st.ListEntries(ctx, tc.project)
		if len(entries) != 1 || entries[0].ID != tc.keep {
			t.Errorf("project %s entries = %d, want only %s", tc.project, len(entries), tc.keep)
		}
	}
}

func TestPruner_DisabledWithoutMaxAge(t *testing.T) {
	p := NewPruner(failingStore{}, logger.New("error", false), 0, 0)

	deleted, err := p.Prune(context.Background())
	if err != nil || deleted != 0 {
		t.Errorf("Prune() = (%d, %v), want (0, nil)", deleted, err)
	}
	if p.interval != DefaultPruneInterval {
		t.Errorf("interval = %v, want default %v", p.interval, DefaultPruneInterval)
	}
}

type failingStore struct{}

func (failingStore) ListProjects(context.Context) ([]*domain.Project, error) {
	return []*domain.Project{{ID: "p1"}, {ID: "p2"}}, nil
}

func (failingStore) DeleteRange(_ context.Context, id string, _ *domain.TimeRange) (int64, error) {
	if id == "p1" {
		return 0, domain.ErrTransientStore
	}
	return 3, nil
}

func TestPruner_ContinuesPastFailures(t *testing.T) {
	p := NewPruner(failingStore{}, logger.New("error", false), time.Hour, time.Hour)

	deleted, err := p.Prune(context.Background())
	if !errors.Is(err, domain.ErrTransientStore) {
		t.Errorf("Prune() error = %v, want ErrTransientStore", err)
	}
	if deleted != 3 {
		t.Errorf("Prune() deleted = %d, want 3 from the healthy project", deleted)
	}
}
