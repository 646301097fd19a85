package portfolio

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

// PostgresStore implements Store on the folio.projects, folio.tags and
// folio.project_tags tables.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed portfolio store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const projectColumns = `id, title, summary, description, COALESCE(image, ''), COALESCE(link, '')`

// ListProjects returns all projects with their tag names attached.
func (s *PostgresStore) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+projectColumns+` FROM folio.projects ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	index := make(map[string]int)
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Summary, &p.Description, &p.Image, &p.Link); err != nil {
			return nil, err
		}
		p.Tags = []string{}
		index[p.ID] = len(projects)
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return []Project{}, nil
	}

	tagRows, err := s.pool.Query(ctx, `
		SELECT pt.project_id, t.name
		FROM folio.project_tags pt
		JOIN folio.tags t ON t.id = pt.tag_id
		ORDER BY t.name
	`)
	if err != nil {
		return nil, err
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var projectID, name string
		if err := tagRows.Scan(&projectID, &name); err != nil {
			return nil, err
		}
		if i, ok := index[projectID]; ok {
			projects[i].Tags = append(projects[i].Tags, name)
		}
	}
	return projects, tagRows.Err()
}

// GetProject loads one project with its tag names.
func (s *PostgresStore) GetProject(ctx context.Context, id string) (Project, error) {
	var p Project
	err := s.pool.QueryRow(ctx, `
		SELECT `+projectColumns+` FROM folio.projects WHERE id = $1
	`, id).Scan(&p.ID, &p.Title, &p.Summary, &p.Description, &p.Image, &p.Link)
	if errors.Is(err, pgx.ErrNoRows) {
		return Project{}, ErrNotFound
	}
	if err != nil {
		return Project{}, err
	}

	p.Tags, err = s.projectTagNames(ctx, id)
	return p, err
}

func (s *PostgresStore) projectTagNames(ctx context.Context, projectID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT t.name
		FROM folio.project_tags pt
		JOIN folio.tags t ON t.id = pt.tag_id
		WHERE pt.project_id = $1
		ORDER BY t.name
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// CreateProject inserts a project and links its tags, creating any tag
// that does not exist yet.
func (s *PostgresStore) CreateProject(ctx context.Context, in ProjectInput) (Project, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Project{}, err
	}
	defer tx.Rollback(ctx)

	id := ulid.Make().String()
	_, err = tx.Exec(ctx, `
		INSERT INTO folio.projects (id, title, summary, description, link)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
	`, id, in.Title, in.Summary, in.Description, in.Link)
	if err != nil {
		return Project{}, err
	}

	names, err := linkTags(ctx, tx, id, in.Tags)
	if err != nil {
		return Project{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Project{}, err
	}

	return Project{
		ID:          id,
		Title:       in.Title,
		Summary:     in.Summary,
		Description: in.Description,
		Link:        in.Link,
		Tags:        names,
	}, nil
}

// UpdateProject replaces a project's fields and relinks its tags.
// The image path is left untouched; it changes only via SetProjectImage.
func (s *PostgresStore) UpdateProject(ctx context.Context, id string, in ProjectInput) (Project, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Project{}, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE folio.projects
		SET title = $2, summary = $3, description = $4, link = NULLIF($5, '')
		WHERE id = $1
	`, id, in.Title, in.Summary, in.Description, in.Link)
	if err != nil {
		return Project{}, err
	}
	if tag.RowsAffected() == 0 {
		return Project{}, ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM folio.project_tags WHERE project_id = $1`, id); err != nil {
		return Project{}, err
	}
	if _, err := linkTags(ctx, tx, id, in.Tags); err != nil {
		return Project{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Project{}, err
	}

	return s.GetProject(ctx, id)
}

// SetProjectImage stores the uploaded image path on a project.
func (s *PostgresStore) SetProjectImage(ctx context.Context, id, image string) (Project, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE folio.projects SET image = NULLIF($2, '') WHERE id = $1
	`, id, image)
	if err != nil {
		return Project{}, err
	}
	if tag.RowsAffected() == 0 {
		return Project{}, ErrNotFound
	}
	return s.GetProject(ctx, id)
}

// DeleteProject removes a project; its tag links go with it via FK cascade.
func (s *PostgresStore) DeleteProject(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM folio.projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// linkTags attaches the named tags to a project inside tx, creating
// missing tags. Names are deduplicated case-insensitively; blank names
// are skipped. Returns the linked tag names in input order.
func linkTags(ctx context.Context, tx pgx.Tx, projectID string, tags []string) ([]string, error) {
	names := []string{}
	seen := make(map[string]bool)

	for _, raw := range tags {
		name := strings.TrimSpace(raw)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true

		tagID, stored, err := findOrCreateTag(ctx, tx, name)
		if err != nil {
			return nil, err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO folio.project_tags (project_id, tag_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, projectID, tagID)
		if err != nil {
			return nil, err
		}
		names = append(names, stored)
	}
	return names, nil
}

func findOrCreateTag(ctx context.Context, tx pgx.Tx, name string) (id, stored string, err error) {
	err = tx.QueryRow(ctx, `
		SELECT id, name FROM folio.tags WHERE lower(name) = lower($1)
	`, name).Scan(&id, &stored)
	if err == nil {
		return id, stored, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", "", err
	}

	id = ulid.Make().String()
	_, err = tx.Exec(ctx, `INSERT INTO folio.tags (id, name) VALUES ($1, $2)`, id, name)
	if err != nil {
		// Lost a race with another writer for the same name; take theirs.
		if isUniqueViolation(err) {
			var existingID, existingName string
			if selErr := tx.QueryRow(ctx, `
				SELECT id, name FROM folio.tags WHERE lower(name) = lower($1)
			`, name).Scan(&existingID, &existingName); selErr == nil {
				return existingID, existingName, nil
			}
		}
		return "", "", err
	}
	return id, name, nil
}

// ListTags returns all tags ordered by id.
func (s *PostgresStore) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM folio.tags ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []Tag{}
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// GetTag loads one tag by id.
func (s *PostgresStore) GetTag(ctx context.Context, id string) (Tag, error) {
	var t Tag
	err := s.pool.QueryRow(ctx, `SELECT id, name FROM folio.tags WHERE id = $1`, id).Scan(&t.ID, &t.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Tag{}, ErrNotFound
	}
	if err != nil {
		return Tag{}, err
	}
	return t, nil
}

// CreateTag inserts a tag; a case-insensitive name collision is ErrConflict.
func (s *PostgresStore) CreateTag(ctx context.Context, name string) (Tag, error) {
	id := ulid.Make().String()
	_, err := s.pool.Exec(ctx, `INSERT INTO folio.tags (id, name) VALUES ($1, $2)`, id, name)
	if err != nil {
		if isUniqueViolation(err) {
			return Tag{}, ErrConflict
		}
		return Tag{}, err
	}
	return Tag{ID: id, Name: name}, nil
}

// UpdateTag renames a tag under the same uniqueness rule.
func (s *PostgresStore) UpdateTag(ctx context.Context, id, name string) (Tag, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE folio.tags SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		if isUniqueViolation(err) {
			return Tag{}, ErrConflict
		}
		return Tag{}, err
	}
	if tag.RowsAffected() == 0 {
		return Tag{}, ErrNotFound
	}
	return Tag{ID: id, Name: name}, nil
}

// DeleteTag removes a tag; the project_tags FK cascade detaches it from
// every project referencing it.
func (s *PostgresStore) DeleteTag(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM folio.tags WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
