//go:build unit

package packager_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/packager"
)

const mb = int64(1024 * 1024)

func writeFile(t *testing.T, root, rel string, size int) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(strings.Repeat("a", size)), 0o600))
}

func zipNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestPriority(t *testing.T) {
	t.Parallel()

	cases := map[string]entities.PriorityClass{
		"index.html":        entities.PriorityEntryPoint,
		"docs/index.html":   entities.PriorityEntryPoint,
		"about.HTML":        entities.PriorityMarkup,
		"page.htm":          entities.PriorityMarkup,
		"css/site.css":      entities.PriorityCode,
		"app.js":            entities.PriorityCode,
		"img/logo.png":      entities.PriorityImage,
		"favicon.ico":       entities.PriorityImage,
		"fonts/a.woff2":     entities.PriorityFont,
		"data/feed.xml":     entities.PriorityData,
		"manifest.json":     entities.PriorityData,
		"README.md":         entities.PriorityDefault,
		"index.html.backup": entities.PriorityDefault,
	}

	for rel, want := range cases {
		t.Run("should classify "+rel, func(t *testing.T) {
			t.Parallel()

			// when
			got := packager.Priority(rel)

			// then
			assert.Equal(t, want, got)
		})
	}
}

func TestPlan(t *testing.T) {
	t.Parallel()

	t.Run("should skip a file above a quarter of the budget and pack the rest", func(t *testing.T) {
		t.Parallel()

		// given
		files := []entities.ArtifactFile{
			{RelativePath: "b.bin", SizeBytes: 80 * mb, Priority: packager.Priority("b.bin")},
			{RelativePath: "a.png", SizeBytes: 5 * mb, Priority: packager.Priority("a.png")},
			{RelativePath: "index.html", SizeBytes: 10 * mb, Priority: packager.Priority("index.html")},
		}

		// when
		sel := packager.Plan(files, 90*mb)

		// then
		require.Len(t, sel.Packed, 2)
		assert.Equal(t, "index.html", sel.Packed[0].RelativePath)
		assert.Equal(t, "a.png", sel.Packed[1].RelativePath)
		assert.Equal(t, 15*mb, sel.TotalBytes)
		require.Len(t, sel.SkippedOversized, 1)
		assert.Equal(t, "b.bin", sel.SkippedOversized[0].RelativePath)
		assert.Empty(t, sel.SkippedOverBudget)
	})

	t.Run("should skip files that would overflow the budget but keep later smaller ones", func(t *testing.T) {
		t.Parallel()

		// given
		files := []entities.ArtifactFile{
			{RelativePath: "index.html", SizeBytes: 25, Priority: entities.PriorityEntryPoint},
			{RelativePath: "style.css", SizeBytes: 25, Priority: entities.PriorityCode},
			{RelativePath: "app.js", SizeBytes: 25, Priority: entities.PriorityCode},
			{RelativePath: "logo.png", SizeBytes: 20, Priority: entities.PriorityImage},
			{RelativePath: "data.json", SizeBytes: 10, Priority: entities.PriorityData},
			{RelativePath: "feed.xml", SizeBytes: 5, Priority: entities.PriorityData},
		}

		// when
		sel := packager.Plan(files, 100)

		// then
		assert.Equal(t, []string{"index.html", "app.js", "style.css", "logo.png", "feed.xml"}, paths(sel.Packed))
		assert.Equal(t, []string{"data.json"}, paths(sel.SkippedOverBudget))
		assert.Empty(t, sel.SkippedOversized)
		assert.Equal(t, int64(100), sel.TotalBytes)
	})

	t.Run("should order equal priorities by path", func(t *testing.T) {
		t.Parallel()

		// given
		files := []entities.ArtifactFile{
			{RelativePath: "z.css", SizeBytes: 1, Priority: entities.PriorityCode},
			{RelativePath: "a.js", SizeBytes: 1, Priority: entities.PriorityCode},
		}

		// when
		sel := packager.Plan(files, 100)

		// then
		assert.Equal(t, []string{"a.js", "z.css"}, paths(sel.Packed))
	})
}

func TestPackagerBuild(t *testing.T) {
	t.Parallel()

	t.Run("should zip the selected files with relative paths", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		writeFile(t, root, "index.html", 100)
		writeFile(t, root, "css/site.css", 100)
		writeFile(t, root, "assets/big.bin", 500)
		pkg := packager.New()

		// when
		artifact, err := pkg.Build(context.Background(), root, 1000)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"index.html", "css/site.css"}, artifact.Paths())
		assert.Equal(t, []string{"index.html", "css/site.css"}, zipNames(t, artifact.Data))
		assert.Equal(t, int64(200), artifact.TotalBytes)
		assert.Equal(t, []string{"assets/big.bin"}, paths(artifact.SkippedOversized))
	})

	t.Run("should preserve file contents", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>hi</h1>"), 0o600))

		// when
		artifact, err := packager.New().Build(context.Background(), root, 1024)

		// then
		require.NoError(t, err)
		zr, err := zip.NewReader(bytes.NewReader(artifact.Data), int64(len(artifact.Data)))
		require.NoError(t, err)
		rc, err := zr.File[0].Open()
		require.NoError(t, err)
		defer rc.Close()
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "<h1>hi</h1>", string(content))
	})

	t.Run("should fail with an io error for a missing directory", func(t *testing.T) {
		t.Parallel()

		// given
		missing := filepath.Join(t.TempDir(), "does-not-exist")

		// when
		artifact, err := packager.New().Build(context.Background(), missing, 1024)

		// then
		require.ErrorIs(t, err, entities.ErrIO)
		assert.Nil(t, artifact)
	})

	t.Run("should stop when the context is cancelled", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		writeFile(t, root, "index.html", 10)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// when
		_, err := packager.New().Build(ctx, root, 1024)

		// then
		require.ErrorIs(t, err, context.Canceled)
	})
}

func paths(files []entities.ArtifactFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.RelativePath)
	}
	return out
}
