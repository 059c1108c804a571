package postgres

import (
	"context"

	"github.com/MrSnakeDoc/logbook/internal/domain"
)

const projectColumns = `id, name, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	if err := row.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProject(ctx context.Context, name string) (*domain.Project, error) {
	name, err := domain.NormalizeProjectName(name)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	p := &domain.Project{ID: domain.NewID(), Name: name, CreatedAt: now, UpdatedAt: now}

	query := `INSERT INTO projects (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`
	if _, err := s.db.ExecContext(ctx, query, p.ID, p.Name, p.CreatedAt, p.UpdatedAt); err != nil {
		return nil, classify("create project", err)
	}
	return p, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at, id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify("list projects", err)
	}
	defer rows.Close()

	projects := []*domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, classify("list projects", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list projects", err)
	}
	return projects, nil
}

func (s *Store) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	if err := knownID("project", id); err != nil {
		return nil, err
	}
	return getProject(ctx, s.db, id, "")
}

// getProject reads one project. lock is appended to the query, e.g.
// "FOR SHARE" inside a transaction.
func getProject(ctx context.Context, db DBTX, id, lock string) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1 ` + lock
	p, err := scanProject(db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, classify("get project", notFound(err, "project", id))
	}
	return p, nil
}

func (s *Store) RenameProject(ctx context.Context, id, name string) (*domain.Project, error) {
	name, err := domain.NormalizeProjectName(name)
	if err != nil {
		return nil, err
	}
	if err := knownID("project", id); err != nil {
		return nil, err
	}

	query := `UPDATE projects SET name = $2, updated_at = $3 WHERE id = $1 RETURNING ` + projectColumns
	p, err := scanProject(s.db.QueryRowContext(ctx, query, id, name, s.clock.Now()))
	if err != nil {
		return nil, classify("rename project", notFound(err, "project", id))
	}
	return p, nil
}

// DeleteProject removes the project; its entries and their content go
// with it through ON DELETE CASCADE.
func (s *Store) DeleteProject(ctx context.Context, id string) (*domain.Project, error) {
	if err := knownID("project", id); err != nil {
		return nil, err
	}

	query := `DELETE FROM projects WHERE id = $1 RETURNING ` + projectColumns
	p, err := scanProject(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, classify("delete project", notFound(err, "project", id))
	}
	return p, nil
}
