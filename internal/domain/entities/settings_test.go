//go:build unit

package entities_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hostpipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewSettings(t *testing.T) {
	t.Run("should fill defaults and tokens from the environment", func(t *testing.T) {
		// given
		t.Setenv("NETLIFY_TOKEN", "env-netlify")
		t.Setenv("RENDER_OWNER_ID", "owner-1")

		// when
		settings, err := entities.NewSettings("")

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"netlify"}, settings.Platforms)
		assert.Equal(t, 3, settings.MaxRetries)
		assert.Equal(t, 10*time.Second, settings.Delay())
		assert.Equal(t, int64(90*1024*1024), settings.MaxPackageBytes())
		assert.Equal(t, []time.Duration{
			5 * time.Second, 10 * time.Second, 20 * time.Second, 40 * time.Second, 60 * time.Second,
		}, settings.RetrySchedule())
		assert.Equal(t, "env-netlify", settings.Netlify.Token)
		assert.Equal(t, "owner-1", settings.Render.OwnerID)
	})

	t.Run("should read the YAML file and expand placeholders", func(t *testing.T) {
		// given
		t.Setenv("MY_RENDER_KEY", "rnd-123")
		path := writeSettings(t, `
platforms: [Render, github]
max_retries: 5
delay_seconds: 2
render:
  token: ${MY_RENDER_KEY}
github:
  token: inline-gh
`)

		// when
		settings, err := entities.NewSettings(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"render", "github"}, settings.Platforms)
		assert.Equal(t, 5, settings.MaxRetries)
		assert.Equal(t, 2, settings.DelaySeconds)
		assert.Equal(t, "rnd-123", settings.Render.Token)
		assert.Equal(t, "inline-gh", settings.GitHub.Token)
	})

	t.Run("should keep explicit zero values from the file", func(t *testing.T) {
		// given
		path := writeSettings(t, "delay_seconds: 0\nmax_retries: 0\n")

		// when
		settings, err := entities.NewSettings(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, 0, settings.DelaySeconds)
		assert.Equal(t, 0, settings.MaxRetries)
		assert.Equal(t, 90, settings.MaxPackageMB)
	})

	t.Run("should reject an explicit zero package size from the file", func(t *testing.T) {
		// given
		path := writeSettings(t, "max_package_mb: 0\n")

		// when
		_, err := entities.NewSettings(path)

		// then
		require.ErrorIs(t, err, entities.ErrConfiguration)
	})

	t.Run("should reject unknown platforms", func(t *testing.T) {
		// given
		path := writeSettings(t, "platforms: [heroku]\n")

		// when
		_, err := entities.NewSettings(path)

		// then
		require.ErrorIs(t, err, entities.ErrConfiguration)
	})

	t.Run("should fail on malformed YAML", func(t *testing.T) {
		// given
		path := writeSettings(t, "platforms: [netlify\n")

		// when
		_, err := entities.NewSettings(path)

		// then
		require.Error(t, err)
	})

	t.Run("should fail on a missing file", func(t *testing.T) {
		// when
		_, err := entities.NewSettings(filepath.Join(t.TempDir(), "absent.yaml"))

		// then
		require.Error(t, err)
	})
}

func TestSettingsWithOverrides(t *testing.T) {
	t.Parallel()

	t.Run("should apply only the given values and leave the original untouched", func(t *testing.T) {
		t.Parallel()

		// given
		base := entities.DefaultSettings()
		retries := 0
		size := 5

		// when
		updated, err := base.WithOverrides(entities.Overrides{
			Platforms:    []string{"github,render", "github"},
			MaxRetries:   &retries,
			MaxPackageMB: &size,
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"github", "render"}, updated.Platforms)
		assert.Equal(t, 0, updated.MaxRetries)
		assert.Equal(t, 5, updated.MaxPackageMB)
		assert.Equal(t, base.DelaySeconds, updated.DelaySeconds)
		assert.Equal(t, []string{"netlify"}, base.Platforms)
		assert.Equal(t, 3, base.MaxRetries)
	})

	t.Run("should reject invalid values", func(t *testing.T) {
		t.Parallel()

		// given
		base := entities.DefaultSettings()
		delay := -1

		// when
		_, err := base.WithOverrides(entities.Overrides{DelaySeconds: &delay})

		// then
		require.ErrorIs(t, err, entities.ErrConfiguration)
	})
}

func TestResolveToken(t *testing.T) {
	t.Run("should read the token from a file path", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "token")
		require.NoError(t, os.WriteFile(path, []byte("  from-file\n"), 0o600))

		// when
		token := entities.ResolveToken(path)

		// then
		assert.Equal(t, "from-file", token)
	})

	t.Run("should expand a placeholder pointing to a file", func(t *testing.T) {
		// given
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "token"), []byte("nested"), 0o600))
		t.Setenv("TOKEN_DIR", dir)

		// when
		token := entities.ResolveToken("${TOKEN_DIR}/token")

		// then
		assert.Equal(t, "nested", token)
	})

	t.Run("should blank out unset variables", func(t *testing.T) {
		// when
		token := entities.ResolveToken("${HOSTPIPE_SURELY_UNSET_VAR}")

		// then
		assert.Empty(t, token)
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("should reject a non-positive package size", func(t *testing.T) {
		t.Parallel()

		// given
		settings := entities.DefaultSettings()
		settings.MaxPackageMB = 0

		// when
		err := entities.Validate(settings)

		// then
		require.ErrorIs(t, err, entities.ErrConfiguration)
	})

	t.Run("should reject negative retry delays", func(t *testing.T) {
		t.Parallel()

		// given
		settings := entities.DefaultSettings()
		settings.RetryDelays = []int{5, -1}

		// when
		err := entities.Validate(settings)

		// then
		require.ErrorIs(t, err, entities.ErrConfiguration)
		assert.Contains(t, err.Error(), "retry_delays[1]")
	})

	t.Run("should normalize platform lists", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, []string{"netlify", "render"},
			entities.NormalizePlatforms([]string{" Netlify , render", "NETLIFY", ""}))
	})
}
