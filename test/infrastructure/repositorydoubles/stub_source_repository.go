//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
	"github.com/rios0rios0/hostpipe/internal/domain/repositories"
)

// StubSourceRepository implements repositories.SourceRepository without touching the network.
// Fetch answers with workDir itself as the checkout.
type StubSourceRepository struct {
	DefaultBranch string
	// failures keyed by canonical URL
	FailFor    map[string]error
	FetchCalls []string
	// GitHub token seen on each Fetch
	FetchTokens []string
}

var _ repositories.SourceRepository = (*StubSourceRepository)(nil)

func (s *StubSourceRepository) Fetch(
	_ context.Context,
	settings *entities.Settings,
	ref entities.RepositoryReference,
	workDir string,
) (string, entities.RepositoryReference, error) {
	s.FetchCalls = append(s.FetchCalls, ref.URL)
	s.FetchTokens = append(s.FetchTokens, settings.GitHub.Token)
	if err, ok := s.FailFor[ref.URL]; ok {
		return "", ref, err
	}
	branch := s.DefaultBranch
	if branch == "" {
		branch = "main"
	}
	return workDir, ref.WithDefaultBranch(branch), nil
}

// StubSiteRepository implements repositories.SiteRepository, returning the checkout root.
type StubSiteRepository struct {
	LocateErr      error
	GeneratedIndex bool
	LocateCalls    []string
}

var _ repositories.SiteRepository = (*StubSiteRepository)(nil)

func (s *StubSiteRepository) Locate(
	_ context.Context,
	ref entities.RepositoryReference,
	sourceDir string,
) (entities.SiteLocation, error) {
	s.LocateCalls = append(s.LocateCalls, ref.URL)
	if s.LocateErr != nil {
		return entities.SiteLocation{}, s.LocateErr
	}
	return entities.SiteLocation{Dir: sourceDir, GeneratedIndex: s.GeneratedIndex}, nil
}
