package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/logbook/internal/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// fixedClock returns a clock that advances by step on every call.
func fixedClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := now
		now = now.Add(step)
		return t
	}
}

func newTestStore(t *testing.T, opts ...Option) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, opts...), mr
}

func TestProjectLifecycle(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreateProject(ctx, "  api  ")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if p.Name != "api" {
		t.Errorf("CreateProject() name = %q, want trimmed", p.Name)
	}

	got, err := s.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if got.Name != "api" || !got.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("GetProject() = %+v, want %+v", got, p)
	}

	renamed, err := s.RenameProject(ctx, p.ID, "gateway")
	if err != nil {
		t.Fatalf("RenameProject() error = %v", err)
	}
	if renamed.Name != "gateway" {
		t.Errorf("RenameProject() name = %q, want gateway", renamed.Name)
	}

	list, err := s.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(list) != 1 || list[0].Name != "gateway" {
		t.Errorf("ListProjects() = %+v, want [gateway]", list)
	}
}

func TestProjectErrors(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	missing := domain.NewID()

	if _, err := s.CreateProject(ctx, "   "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("CreateProject(blank) error = %v, want ErrInvalidInput", err)
	}
	if _, err := s.GetProject(ctx, missing); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetProject(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := s.RenameProject(ctx, missing, "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("RenameProject(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := s.DeleteProject(ctx, missing); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("DeleteProject(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := s.ListEntries(ctx, missing); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("ListEntries(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := s.CreateEntry(ctx, missing, []string{"x"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("CreateEntry(missing project) error = %v, want ErrNotFound", err)
	}
}

func TestCreateEntryAssignsOrderAndContent(t *testing.T) {
	start := time.Date(2025, 6, 3, 10, 0, 0, 123456789, time.UTC)
	s, _ := newTestStore(t, WithClock(fixedClock(start, 0)))
	ctx := context.Background()

	p, _ := s.CreateProject(ctx, "api")
	first, err := s.CreateEntry(ctx, p.ID, []string{"GET /users", `{"status":200}`})
	if err != nil {
		t.Fatalf("CreateEntry() error = %v", err)
	}
	second, _ := s.CreateEntry(ctx, p.ID, []string{"second"})

	if !first.CreatedAt.Equal(start.Truncate(time.Millisecond)) {
		t.Errorf("CreatedAt = %v, want millisecond precision", first.CreatedAt)
	}
	if second.Seq <= first.Seq {
		t.Errorf("Seq not increasing: %d then %d", first.Seq, second.Seq)
	}
	if len(first.Content) != 2 || first.Content[1].EntryID != first.ID {
		t.Errorf("Content = %+v, want two items linked to the entry", first.Content)
	}
	if first.Project == nil || first.Project.Name != "api" {
		t.Errorf("Project summary = %+v, want api", first.Project)
	}

	list, err := s.ListEntries(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListEntries() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID {
		t.Errorf("ListEntries() not newest first for same-millisecond entries")
	}
	if list[1].Content[0].Content != "GET /users" {
		t.Errorf("content round trip = %q", list[1].Content[0].Content)
	}
}

func TestDeleteEntry(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	p, _ := s.CreateProject(ctx, "api")
	e, _ := s.CreateEntry(ctx, p.ID, []string{"x"})

	deleted, err := s.DeleteEntry(ctx, e.ID)
	if err != nil {
		t.Fatalf("DeleteEntry() error = %v", err)
	}
	if deleted.ID != e.ID {
		t.Errorf("DeleteEntry() returned %s, want %s", deleted.ID, e.ID)
	}
	if mr.Exists(EntryKey(e.ID)) {
		t.Error("entry key still present")
	}
	if _, err := s.GetEntry(ctx, e.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetEntry(deleted) error = %v, want ErrNotFound", err)
	}
	if _, err := s.DeleteEntry(ctx, e.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("DeleteEntry(twice) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteRangeInclusiveBounds(t *testing.T) {
	day := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	times := []time.Time{
		day.Add(-48 * time.Hour),                 // project creation
		day.Add(-time.Millisecond),               // previous day
		day,                                      // start of day
		day.Add(12 * time.Hour),                  // midday
		day.Add(24*time.Hour - time.Millisecond), // end of day
		day.Add(24 * time.Hour),                  // next day
	}
	i := 0
	clock := func() time.Time { t := times[i]; i++; return t }

	s, _ := newTestStore(t, WithClock(clock))
	ctx := context.Background()
	p, err := s.CreateProject(ctx, "api")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	for range times[1:] {
		if _, err := s.CreateEntry(ctx, p.ID, []string{"x"}); err != nil {
			t.Fatalf("CreateEntry() error = %v", err)
		}
	}

	cal := domain.NewCalendar(time.UTC, "")
	bounds := cal.Bounds(day.Add(5 * time.Hour))

	n, err := s.DeleteRange(ctx, p.ID, &bounds)
	if err != nil {
		t.Fatalf("DeleteRange() error = %v", err)
	}
	if n != 3 {
		t.Errorf("DeleteRange() = %d, want 3", n)
	}

	left, _ := s.ListEntries(ctx, p.ID)
	if len(left) != 2 {
		t.Fatalf("remaining entries = %d, want 2", len(left))
	}
	for _, e := range left {
		if bounds.Contains(e.CreatedAt) {
			t.Errorf("entry at %v should have been deleted", e.CreatedAt)
		}
	}

	n, err = s.DeleteRange(ctx, p.ID, &bounds)
	if err != nil || n != 0 {
		t.Errorf("DeleteRange(again) = (%d, %v), want (0, nil)", n, err)
	}

	n, err = s.DeleteRange(ctx, p.ID, nil)
	if err != nil || n != 2 {
		t.Errorf("DeleteRange(nil) = (%d, %v), want (2, nil)", n, err)
	}
}

func TestDeleteRangeMissingProject(t *testing.T) {
	s, _ := newTestStore(t)
	n, err := s.DeleteRange(context.Background(), domain.NewID(), nil)
	if err != nil || n != 0 {
		t.Errorf("DeleteRange(missing) = (%d, %v), want (0, nil)", n, err)
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	p, _ := s.CreateProject(ctx, "api")
	other, _ := s.CreateProject(ctx, "worker")
	var ids []string
	for range 3 {
		e, _ := s.CreateEntry(ctx, p.ID, []string{"x"})
		ids = append(ids, e.ID)
	}
	kept, _ := s.CreateEntry(ctx, other.ID, []string{"y"})

	if _, err := s.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}

	for _, id := range ids {
		if mr.Exists(EntryKey(id)) {
			t.Errorf("entry %s survived project deletion", id)
		}
	}
	if mr.Exists(ProjectEntriesKey(p.ID)) {
		t.Error("entry index survived project deletion")
	}
	if _, err := s.GetEntry(ctx, kept.ID); err != nil {
		t.Errorf("other project's entry removed: %v", err)
	}
	list, _ := s.ListProjects(ctx)
	if len(list) != 1 || list[0].ID != other.ID {
		t.Errorf("ListProjects() = %+v, want only worker", list)
	}
}

func TestConcurrentCreateEntryAllPersisted(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	p, _ := s.CreateProject(ctx, "api")

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.CreateEntry(ctx, p.ID, []string{"x"}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("CreateEntry() error = %v", err)
	}

	list, _ := s.ListEntries(ctx, p.ID)
	if len(list) != 20 {
		t.Errorf("ListEntries() = %d entries, want 20", len(list))
	}
}

func TestBackendFailureIsTransient(t *testing.T) {
	s, mr := newTestStore(t)
	mr.SetError("ERR injected failure")

	_, err := s.ListProjects(context.Background())
	if !errors.Is(err, domain.ErrTransientStore) {
		t.Errorf("ListProjects() error = %v, want ErrTransientStore", err)
	}
	if err := s.Ping(context.Background()); !errors.Is(err, domain.ErrTransientStore) {
		t.Errorf("Ping() error = %v, want ErrTransientStore", err)
	}
}
