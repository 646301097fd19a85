// Package portfolio holds the project and tag resources: Postgres-backed
// CRUD plus the HTTP handlers serving them under /api.
package portfolio

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a project or tag does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a tag name collides case-insensitively.
	ErrConflict = errors.New("conflict")
)

// Project is a portfolio entry. Tags holds tag names, not ids; that is
// the shape both the API and the join queries work with.
type Project struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Link        string   `json:"link"`
	Tags        []string `json:"tags"`
}

// Tag is a label shared across projects, unique by case-insensitive name.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProjectInput carries the writable project fields. Tag names are
// find-or-created case-insensitively on write.
type ProjectInput struct {
	Title       string
	Summary     string
	Description string
	Link        string
	Tags        []string
}

// Store is the persistence surface for projects and tags.
type Store interface {
	ListProjects(ctx context.Context) ([]Project, error)
	GetProject(ctx context.Context, id string) (Project, error)
	CreateProject(ctx context.Context, in ProjectInput) (Project, error)
	UpdateProject(ctx context.Context, id string, in ProjectInput) (Project, error)
	SetProjectImage(ctx context.Context, id, image string) (Project, error)
	DeleteProject(ctx context.Context, id string) error

	ListTags(ctx context.Context) ([]Tag, error)
	GetTag(ctx context.Context, id string) (Tag, error)
	CreateTag(ctx context.Context, name string) (Tag, error)
	UpdateTag(ctx context.Context, id, name string) (Tag, error)
	DeleteTag(ctx context.Context, id string) error
}
