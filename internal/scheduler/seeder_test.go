package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrSnakeDoc/logbook/internal/logger"
	"github.com/MrSnakeDoc/logbook/internal/store/memory"
)

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "projects.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed file: %v", err)
	}
	return path
}

func TestProjectSeeder_Reload(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	if _, err := st.CreateProject(ctx, "checkout"); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	path := writeSeedFile(t, `projects:
  - name: checkout
  - name: billing
  - name: billing
`)
	s := NewProjectSeeder(path, st, logger.New("error", false), time.Hour, nil)

	created, err := s.Reload(ctx)
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if len(created) != 1 || created[0].Name != "billing" {
		t.Errorf("Reload() created = %v, want [billing]", created)
	}
	if s.LastReload().IsZero() {
		t.Error("LastReload() should be set after a successful reload")
	}

	created, err = s.Reload(ctx)
	if err != nil || len(created) != 0 {
		t.Errorf("second Reload() = (%d, %v), want (0, nil)", len(created), err)
	}

	all, _ := st.ListProjects(ctx)
	if len(all) != 2 {
		t.Errorf("projects = %d, want 2", len(all))
	}
}

func TestProjectSeeder_MissingFile(t *testing.T) {
	s := NewProjectSeeder("/nonexistent/projects.yaml", memory.NewStore(), logger.New("error", false), time.Hour, nil)

	if err := s.Start(context.Background()); err == nil {
		s.Stop()
		t.Fatal("Start() with missing seed file should fail")
	}
	if !s.LastReload().IsZero() {
		t.Error("LastReload() should stay zero after a failed reload")
	}
}

func TestProjectSeeder_ManualTrigger(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	path := writeSeedFile(t, "projects:\n  - name: api\n")
	trigger := make(chan struct{}, 1)

	s := NewProjectSeeder(path, st, logger.New("error", false), time.Hour, trigger)
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	if err := os.WriteFile(path, []byte("projects:\n  - name: api\n  - name: web\n"), 0o644); err != nil {
		t.Fatalf("rewrite seed file: %v", err)
	}
	trigger <- struct{}{}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		all, _ := st.ListProjects(ctx)
		if len(all) == 2 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("manual trigger did not seed the new project")
}
