//go:build unit

package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
)

func TestCanonicalURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "plain", raw: "https://github.com/octo/site", expected: "https://github.com/octo/site"},
		{name: "trailing slash", raw: "https://github.com/octo/site/", expected: "https://github.com/octo/site"},
		{name: "git suffix", raw: "https://github.com/octo/site.git", expected: "https://github.com/octo/site"},
		{name: "whitespace", raw: "  https://github.com/octo/site \t", expected: "https://github.com/octo/site"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, entities.CanonicalURL(tt.raw))
		})
	}
}

func TestParseRepositoryReference(t *testing.T) {
	t.Parallel()

	t.Run("should extract owner and name", func(t *testing.T) {
		t.Parallel()

		// when
		ref, err := entities.ParseRepositoryReference("https://github.com/Octo/My_Site.git")

		// then
		require.NoError(t, err)
		assert.Equal(t, "Octo", ref.Owner)
		assert.Equal(t, "My_Site", ref.Name)
		assert.Equal(t, "https://github.com/Octo/My_Site", ref.URL)
		assert.Empty(t, ref.DefaultBranch)
		assert.Equal(t, "my-site", ref.Slug())
	})

	t.Run("should reject references that are not owner/name URLs", func(t *testing.T) {
		t.Parallel()

		for _, raw := range []string{
			"github.com/octo/site",
			"ftp://github.com/octo/site",
			"https://github.com/octo",
			"https://github.com/octo/site/tree/main",
			"",
		} {
			_, err := entities.ParseRepositoryReference(raw)
			require.ErrorIs(t, err, entities.ErrInvalidReference, raw)
		}
	})

	t.Run("should copy on update", func(t *testing.T) {
		t.Parallel()

		// given
		ref, err := entities.ParseRepositoryReference("https://github.com/octo/site")
		require.NoError(t, err)

		// when
		withBranch := ref.WithDefaultBranch("main").WithSitePath("/docs")

		// then
		assert.Empty(t, ref.DefaultBranch)
		assert.Empty(t, ref.SitePath)
		assert.Equal(t, "main", withBranch.DefaultBranch)
		assert.Equal(t, "/docs", withBranch.SitePath)
		assert.Equal(t, "https://github.com/octo/site", withBranch.String())
	})
}
