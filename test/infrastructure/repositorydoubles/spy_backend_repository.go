//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
	"github.com/rios0rios0/hostpipe/internal/domain/repositories"
)

// SpyBackendRepository implements repositories.BackendRepository as a configurable spy.
type SpyBackendRepository struct {
	// --- identity ---
	BackendName string

	// --- Deploy ---
	DeployURL string
	DeployErr error
	// per-repository failures, keyed by canonical URL; take precedence over DeployErr
	FailFor     map[string]error
	DeployCalls []DeployCall
}

// DeployCall records a single invocation of Deploy.
type DeployCall struct {
	Ref         entities.RepositoryReference
	ArtifactDir string
}

var _ repositories.BackendRepository = (*SpyBackendRepository)(nil)

func (b *SpyBackendRepository) Name() string { return b.BackendName }

func (b *SpyBackendRepository) Deploy(
	_ context.Context,
	ref entities.RepositoryReference,
	artifactDir string,
) (string, error) {
	b.DeployCalls = append(b.DeployCalls, DeployCall{Ref: ref, ArtifactDir: artifactDir})
	if err, ok := b.FailFor[ref.URL]; ok {
		return "", err
	}
	if b.DeployErr != nil {
		return "", b.DeployErr
	}
	return b.DeployURL, nil
}

// DeployedURLs lists the repository URLs Deploy was called with, in order.
func (b *SpyBackendRepository) DeployedURLs() []string {
	urls := make([]string, 0, len(b.DeployCalls))
	for _, call := range b.DeployCalls {
		urls = append(urls, call.Ref.URL)
	}
	return urls
}
