package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/MrSnakeDoc/logbook/internal/domain"
)

func (s *Store) CreateEntry(ctx context.Context, projectID string, contents []string) (*domain.Entry, error) {
	if len(contents) == 0 {
		return nil, domainInvalid("entry needs at least one content item")
	}
	if err := knownID("project", projectID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	id := domain.NewID()
	e := &domain.Entry{
		ID:        id,
		ProjectID: projectID,
		CreatedAt: now,
		Content:   domain.NewContentItems(id, now, contents),
	}

	err := withTx(ctx, s.db, nil, func(ctx context.Context, tx DBTX) error {
		// FOR SHARE keeps a concurrent project delete from slipping in
		// between the check and the insert.
		p, err := getProject(ctx, tx, projectID, "FOR SHARE")
		if err != nil {
			return err
		}
		e.Project = p.Summary()

		query := `INSERT INTO logs (id, project_id, created_at) VALUES ($1, $2, $3) RETURNING seq`
		if err := tx.QueryRowContext(ctx, query, e.ID, e.ProjectID, e.CreatedAt).Scan(&e.Seq); err != nil {
			return err
		}

		query = `INSERT INTO log_contents (id, log_id, position, content, created_at) VALUES ($1, $2, $3, $4, $5)`
		for i, item := range e.Content {
			if _, err := tx.ExecContext(ctx, query, item.ID, e.ID, i, item.Content, item.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, classify("create entry", err)
	}
	return e, nil
}

func (s *Store) GetEntry(ctx context.Context, id string) (*domain.Entry, error) {
	if err := knownID("entry", id); err != nil {
		return nil, err
	}
	e, err := getEntry(ctx, s.db, id)
	if err != nil {
		return nil, classify("get entry", err)
	}
	return e, nil
}

func getEntry(ctx context.Context, db DBTX, id string) (*domain.Entry, error) {
	query := `SELECT l.id, l.seq, l.project_id, l.created_at, p.name
		FROM logs l JOIN projects p ON p.id = l.project_id
		WHERE l.id = $1`

	var (
		e    domain.Entry
		name string
	)
	err := db.QueryRowContext(ctx, query, id).Scan(&e.ID, &e.Seq, &e.ProjectID, &e.CreatedAt, &name)
	if err != nil {
		return nil, notFound(err, "entry", id)
	}
	e.Project = &domain.ProjectSummary{ID: e.ProjectID, Name: name}

	query = `SELECT id, content, created_at FROM log_contents WHERE log_id = $1 ORDER BY position`
	rows, err := db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		item := domain.ContentItem{EntryID: e.ID}
		if err := rows.Scan(&item.ID, &item.Content, &item.CreatedAt); err != nil {
			return nil, err
		}
		e.Content = append(e.Content, item)
	}
	return &e, rows.Err()
}

func (s *Store) DeleteEntry(ctx context.Context, id string) (*domain.Entry, error) {
	if err := knownID("entry", id); err != nil {
		return nil, err
	}

	var deleted *domain.Entry
	err := withTx(ctx, s.db, nil, func(ctx context.Context, tx DBTX) error {
		e, err := getEntry(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM logs WHERE id = $1`, id); err != nil {
			return err
		}
		deleted = e
		return nil
	})
	if err != nil {
		return nil, classify("delete entry", err)
	}
	return deleted, nil
}

func (s *Store) DeleteRange(ctx context.Context, projectID string, r *domain.TimeRange) (int64, error) {
	if domain.ValidateID(projectID) != nil {
		return 0, nil
	}

	var (
		res sql.Result
		err error
	)
	if r == nil {
		res, err = s.db.ExecContext(ctx, `DELETE FROM logs WHERE project_id = $1`, projectID)
	} else {
		query := `DELETE FROM logs WHERE project_id = $1 AND created_at >= $2 AND created_at <= $3`
		res, err = s.db.ExecContext(ctx, query, projectID, r.Start, r.End)
	}
	if err != nil {
		return 0, classify("delete range", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify("delete range", err)
	}
	return n, nil
}

// ListEntries reads the project and its entries in one read-only
// transaction so the listing is a consistent snapshot.
func (s *Store) ListEntries(ctx context.Context, projectID string) ([]*domain.Entry, error) {
	if err := knownID("project", projectID); err != nil {
		return nil, err
	}

	entries := []*domain.Entry{}
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := withTx(ctx, s.db, opts, func(ctx context.Context, tx DBTX) error {
		p, err := getProject(ctx, tx, projectID, "")
		if err != nil {
			return err
		}
		summary := p.Summary()

		query := `SELECT l.id, l.seq, l.created_at, c.id, c.content, c.created_at
			FROM logs l JOIN log_contents c ON c.log_id = l.id
			WHERE l.project_id = $1
			ORDER BY l.created_at DESC, l.seq DESC, c.position`
		rows, err := tx.QueryContext(ctx, query, projectID)
		if err != nil {
			return err
		}
		defer rows.Close()

		var current *domain.Entry
		for rows.Next() {
			var (
				entryID   string
				seq       int64
				createdAt time.Time
				item      domain.ContentItem
			)
			if err := rows.Scan(&entryID, &seq, &createdAt, &item.ID, &item.Content, &item.CreatedAt); err != nil {
				return err
			}
			if current == nil || current.ID != entryID {
				current = &domain.Entry{
					ID:        entryID,
					ProjectID: projectID,
					CreatedAt: createdAt,
					Seq:       seq,
					Project:   summary,
				}
				entries = append(entries, current)
			}
			item.EntryID = entryID
			current.Content = append(current.Content, item)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, classify("list entries", err)
	}
	return entries, nil
}
