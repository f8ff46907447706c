package repositories

import (
	"context"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
)

// BackendRepository abstracts one hosting provider (Netlify, Render, GitHub Pages).
// Implementations run their whole provider protocol inside Deploy: create the
// hosting resource, upload or link the content, trigger the build and resolve
// the public URL. Callers only rely on this contract, never on the concrete type.
type BackendRepository interface {
	// Name returns the platform identifier recorded in the ledger (e.g. "netlify").
	Name() string

	// Deploy publishes the static output in artifactDir and returns the public URL.
	Deploy(ctx context.Context, ref entities.RepositoryReference, artifactDir string) (string, error)
}
