package projects

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "projects.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}
	return path
}

func TestLoaderLoad(t *testing.T) {
	path := writeSeed(t, `---
projects:
  - name: checkout
  - name: billing
`)

	seed, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := seed.Names(); !slices.Equal(got, []string{"checkout", "billing"}) {
		t.Errorf("Names() = %v, want [checkout billing]", got)
	}
}

func TestLoaderLoadExpandsEnv(t *testing.T) {
	t.Setenv("LOGBOOK_TEST_PROJECT", "staging")
	path := writeSeed(t, `projects:
  - name: ${LOGBOOK_TEST_PROJECT}
  - name: ${LOGBOOK_TEST_UNSET}
`)

	seed, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := seed.Names(); !slices.Equal(got, []string{"staging"}) {
		t.Errorf("Names() = %v, want [staging]", got)
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	if _, err := NewLoader("/nonexistent/path/projects.yaml").Load(); err == nil {
		t.Error("Load() with non-existent file should return error")
	}
}

func TestLoaderLoadInvalidYAML(t *testing.T) {
	path := writeSeed(t, "projects: [name: {")
	if _, err := NewLoader(path).Load(); err == nil {
		t.Error("Load() with invalid yaml should return error")
	}
}

func TestNames(t *testing.T) {
	tests := []struct {
		name string
		seed SeedFile
		want []string
	}{
		{
			name: "trims and dedups",
			seed: SeedFile{Projects: []ProjectSeed{{"  api "}, {"api"}, {"web"}}},
			want: []string{"api", "web"},
		},
		{
			name: "skips blank",
			seed: SeedFile{Projects: []ProjectSeed{{""}, {"   "}, {"jobs"}}},
			want: []string{"jobs"},
		},
		{
			name: "empty file",
			seed: SeedFile{},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.seed.Names(); !slices.Equal(got, tt.want) {
				t.Errorf("Names() = %v, want %v", got, tt.want)
			}
		})
	}
}
