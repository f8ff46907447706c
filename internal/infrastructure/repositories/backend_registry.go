package repositories

import (
	"context"
	"fmt"
	"sort"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
	domainRepos "github.com/rios0rios0/hostpipe/internal/domain/repositories"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/ratelimit"
)

// BackendFactory builds a backend from the run settings, validating its credentials.
type BackendFactory func(
	ctx context.Context,
	settings *entities.Settings,
	policy ratelimit.Policy,
) (domainRepos.BackendRepository, error)

// BackendRegistry maps platform names (e.g. "netlify") to backend factories.
type BackendRegistry struct {
	factories map[string]BackendFactory
}

// NewBackendRegistry creates an empty backend registry.
func NewBackendRegistry() *BackendRegistry {
	return &BackendRegistry{
		factories: make(map[string]BackendFactory),
	}
}

// Register adds a backend factory under the given platform name.
func (r *BackendRegistry) Register(name string, factory BackendFactory) {
	r.factories[name] = factory
}

// Get returns a configured backend for the given platform name.
func (r *BackendRegistry) Get(
	ctx context.Context,
	name string,
	settings *entities.Settings,
	policy ratelimit.Policy,
) (domainRepos.BackendRepository, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown platform %q", entities.ErrConfiguration, name)
	}
	return factory(ctx, settings, policy)
}

// Names returns the registered platform names, sorted.
func (r *BackendRegistry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build returns the backends for names in the same order. A platform that
// fails to initialize is logged and left out; the call only fails when none
// of them can be used.
func (r *BackendRegistry) Build(
	ctx context.Context,
	names []string,
	settings *entities.Settings,
	policy ratelimit.Policy,
) ([]domainRepos.BackendRepository, error) {
	backends := make([]domainRepos.BackendRepository, 0, len(names))
	var lastErr error
	for _, name := range names {
		backend, err := r.Get(ctx, name, settings, policy)
		if err != nil {
			logger.Warnf("Platform %q disabled: %v", name, err)
			lastErr = err
			continue
		}
		backends = append(backends, backend)
	}

	if len(backends) == 0 {
		if lastErr == nil {
			return nil, fmt.Errorf("%w: no platforms requested", entities.ErrConfiguration)
		}
		return nil, fmt.Errorf("%w: no deployment platforms available: %w", entities.ErrConfiguration, lastErr)
	}
	return backends, nil
}
