package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Project is a named stream of log entries.
//
// Deleting a project cascades to every entry it owns: no store
// implementation may leave orphaned entries behind.
type Project struct {
	// ID is an opaque UUID assigned at creation.
	ID string `json:"id"`

	// Name is the display name. It may be renamed but never emptied.
	Name string `json:"name"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProjectSummary is the slice of a project embedded in every entry
// returned to clients.
type ProjectSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Summary returns the embeddable view of p.
func (p *Project) Summary() *ProjectSummary {
	if p == nil {
		return nil
	}
	return &ProjectSummary{ID: p.ID, Name: p.Name}
}

// NewID returns a fresh identifier for projects, entries and content items.
func NewID() string {
	return uuid.NewString()
}

// ValidateID reports ErrInvalidInput when id is not a UUID in its
// canonical lowercase 8-4-4-4-12 form. Other spellings uuid.Parse
// accepts are rejected so one entry cannot be addressed by several ids.
func ValidateID(id string) error {
	if u, err := uuid.Parse(id); err != nil || u.String() != id {
		return fmt.Errorf("%w: malformed id %q", ErrInvalidInput, id)
	}
	return nil
}

// NormalizeProjectName trims name and rejects empty values.
func NormalizeProjectName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: project name must not be empty", ErrInvalidInput)
	}
	return name, nil
}
