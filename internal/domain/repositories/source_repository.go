package repositories

import (
	"context"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
)

// SourceRepository fetches a repository's files into a local directory.
type SourceRepository interface {
	// Fetch places a checkout of ref under workDir and returns the checkout path
	// together with the reference resolved with its default branch. Credentials
	// come from settings.
	Fetch(
		ctx context.Context,
		settings *entities.Settings,
		ref entities.RepositoryReference,
		workDir string,
	) (string, entities.RepositoryReference, error)
}

// SiteRepository finds the directory holding a checkout's static output.
type SiteRepository interface {
	Locate(ctx context.Context, ref entities.RepositoryReference, sourceDir string) (entities.SiteLocation, error)
}
