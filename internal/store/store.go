// Package store provides access to the shared project store. The research
// pipeline reads existing project state through it and commits analysis
// results as a single field-set write per project; it never deletes rows.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/hackscout/hackscout/internal/types"
)

// ErrNotFound is returned when a referenced project does not exist.
var ErrNotFound = errors.New("project not found")

// ProjectStore is the persistence contract consumed by the pipeline.
// Implementations need only single-row semantics; no cross-project
// transactions are required.
type ProjectStore interface {
	// FindByID returns the project with the given id, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*types.Project, error)

	// FindByDevpostURL returns the project whose devpost URL matches, or
	// ErrNotFound.
	FindByDevpostURL(ctx context.Context, url string) (*types.Project, error)

	// FindByNameAndHackathon performs a case-insensitive lookup by project
	// name, narrowed by hackathon name when one is given. Returns
	// ErrNotFound when nothing matches.
	FindByNameAndHackathon(ctx context.Context, name, hackathon string) (*types.Project, error)

	// ListUnresearched returns up to limit projects that have never had a
	// successful analysis pass.
	ListUnresearched(ctx context.Context, limit int) ([]types.Project, error)

	// ListSuccessStories returns up to limit funded or startup-forming
	// projects, best overall score first.
	ListSuccessStories(ctx context.Context, limit int) ([]types.Project, error)

	// Insert stores a new project. An empty id is assigned by the store.
	Insert(ctx context.Context, p *types.Project) error

	// Update replaces the stored row for p.ID.
	Update(ctx context.Context, p *types.Project) error

	// ApplyAnalysis merges one successful analysis pass onto the project:
	// all outcome, score and research-provenance fields are written
	// together. A run that produced no analysis never calls this.
	ApplyAnalysis(ctx context.Context, id string, a *types.Analysis, summary string, sources []string, researchedAt time.Time) error

	// Close releases any resources held by the store.
	Close() error
}
