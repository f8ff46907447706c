package repositories

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
	domainRepos "github.com/rios0rios0/hostpipe/internal/domain/repositories"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/repositories/csvledger"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/repositories/githubpages"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/repositories/gitsource"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/repositories/netlify"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/repositories/render"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/repositories/sitedir"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Backend registry with all platform factories
	if err := container.Provide(func() *BackendRegistry {
		reg := NewBackendRegistry()
		reg.Register(entities.PlatformNetlify, netlify.NewBackendRepository)
		reg.Register(entities.PlatformRender, render.NewBackendRepository)
		reg.Register(entities.PlatformGitHub, githubpages.NewBackendRepository)
		return reg
	}); err != nil {
		return err
	}

	if err := container.Provide(func() domainRepos.LedgerOpener {
		return func(path string) domainRepos.LedgerRepository {
			return csvledger.Load(path)
		}
	}); err != nil {
		return err
	}

	if err := container.Provide(func() domainRepos.SourceRepository {
		return gitsource.NewSourceRepository()
	}); err != nil {
		return err
	}
	if err := container.Provide(func() domainRepos.SiteRepository {
		return sitedir.NewSiteRepository()
	}); err != nil {
		return err
	}

	return nil
}
