package projects

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/logbook/internal/domain"
)

// Loader reads the projects seed file.
type Loader struct {
	filePath string
}

// NewLoader creates a loader for filePath.
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Path returns the seed file location.
func (l *Loader) Path() string { return l.filePath }

// Load reads and parses the seed file.
func (l *Loader) Load() (SeedFile, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return SeedFile{}, fmt.Errorf("failed to read projects file: %w", err)
	}

	data = expandEnv(data)

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return SeedFile{}, fmt.Errorf("failed to parse projects yaml: %w", err)
	}

	return seed, nil
}

var envVar = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} with the environment value. Unset variables
// expand to an empty string.
func expandEnv(data []byte) []byte {
	return envVar.ReplaceAllFunc(data, func(m []byte) []byte {
		name := envVar.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// Names returns the normalized, de-duplicated project names in file
// order. Blank names are skipped.
func (s SeedFile) Names() []string {
	seen := make(map[string]struct{}, len(s.Projects))
	out := make([]string, 0, len(s.Projects))

	for _, p := range s.Projects {
		name, err := domain.NormalizeProjectName(p.Name)
		if err != nil {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
