//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"fmt"

	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
)

// RepositoryReferenceBuilder helps create test repository references with a fluent interface.
type RepositoryReferenceBuilder struct {
	*testkit.BaseBuilder
	host          string
	owner         string
	name          string
	defaultBranch string
	sitePath      string
}

// NewRepositoryReferenceBuilder creates a builder for https://github.com/octo/site.
func NewRepositoryReferenceBuilder() *RepositoryReferenceBuilder {
	return &RepositoryReferenceBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		host:        "github.com",
		owner:       "octo",
		name:        "site",
	}
}

// WithHost sets the Git host.
func (b *RepositoryReferenceBuilder) WithHost(host string) *RepositoryReferenceBuilder {
	b.host = host
	return b
}

// WithOwner sets the repository owner.
func (b *RepositoryReferenceBuilder) WithOwner(owner string) *RepositoryReferenceBuilder {
	b.owner = owner
	return b
}

// WithName sets the repository name.
func (b *RepositoryReferenceBuilder) WithName(name string) *RepositoryReferenceBuilder {
	b.name = name
	return b
}

// WithDefaultBranch sets the resolved default branch.
func (b *RepositoryReferenceBuilder) WithDefaultBranch(branch string) *RepositoryReferenceBuilder {
	b.defaultBranch = branch
	return b
}

// WithSitePath sets the static output location.
func (b *RepositoryReferenceBuilder) WithSitePath(path string) *RepositoryReferenceBuilder {
	b.sitePath = path
	return b
}

// Build creates the reference (satisfies testkit.Builder interface).
func (b *RepositoryReferenceBuilder) Build() interface{} {
	return b.BuildReference()
}

// BuildReference creates the reference with a concrete return type.
func (b *RepositoryReferenceBuilder) BuildReference() entities.RepositoryReference {
	return entities.RepositoryReference{
		Owner:         b.owner,
		Name:          b.name,
		URL:           fmt.Sprintf("https://%s/%s/%s", b.host, b.owner, b.name),
		DefaultBranch: b.defaultBranch,
		SitePath:      b.sitePath,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *RepositoryReferenceBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.host = "github.com"
	b.owner = "octo"
	b.name = "site"
	b.defaultBranch = ""
	b.sitePath = ""
	return b
}

// Clone creates a deep copy of the RepositoryReferenceBuilder.
func (b *RepositoryReferenceBuilder) Clone() testkit.Builder {
	return &RepositoryReferenceBuilder{
		BaseBuilder:   b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		host:          b.host,
		owner:         b.owner,
		name:          b.name,
		defaultBranch: b.defaultBranch,
		sitePath:      b.sitePath,
	}
}
