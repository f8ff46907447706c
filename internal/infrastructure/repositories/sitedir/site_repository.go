package sitedir

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
	"github.com/rios0rios0/hostpipe/internal/domain/repositories"
)

const (
	indexFile       = "index.html"
	maxPreviewFiles = 100
)

//nolint:gochecknoglobals // lookup tables
var (
	// buildDirs are checked in this order for existing static output.
	buildDirs = []string{"build", "dist", "public", "_site", "out", "docs"}

	rootPages = []string{"index.html", "index.htm", "default.html", "default.htm"}

	fileKinds = map[string]string{
		".html": "page", ".htm": "page",
		".css": "code", ".js": "code", ".json": "code",
		".jpg": "image", ".jpeg": "image", ".png": "image", ".gif": "image", ".svg": "image",
	}
)

// DirectorySiteRepository finds the static output of a checkout. When the
// checkout has HTML files but no index page it writes one linking them; when
// it has no HTML at all it writes a preview page listing the repository files.
type DirectorySiteRepository struct{}

var _ repositories.SiteRepository = (*DirectorySiteRepository)(nil)

func NewSiteRepository() *DirectorySiteRepository {
	return &DirectorySiteRepository{}
}

// Locate returns the directory to publish, inside sourceDir.
func (it *DirectorySiteRepository) Locate(
	ctx context.Context,
	ref entities.RepositoryReference,
	sourceDir string,
) (entities.SiteLocation, error) {
	if err := ctx.Err(); err != nil {
		return entities.SiteLocation{}, err
	}

	for _, name := range buildDirs {
		dir := filepath.Join(sourceDir, name)
		if !isDir(dir) {
			continue
		}
		if fileExists(filepath.Join(dir, indexFile)) {
			logger.Infof("Found existing build directory with index.html: %s", name)
			return entities.SiteLocation{Dir: dir}, nil
		}
		if pages := htmlFiles(dir); len(pages) > 0 {
			logger.Infof("Found HTML files in %s, creating index.html", name)
			return generated(dir, writeDirectoryIndex(dir, pages))
		}
	}

	for _, page := range rootPages {
		if fileExists(filepath.Join(sourceDir, page)) {
			logger.Infof("Found static site file in repository root: %s", page)
			return entities.SiteLocation{Dir: sourceDir}, nil
		}
	}

	if pages := htmlFiles(sourceDir); len(pages) > 0 {
		logger.Info("Found HTML files in root, creating index.html")
		return generated(sourceDir, writeDirectoryIndex(sourceDir, pages))
	}

	srcDir := filepath.Join(sourceDir, "src")
	if pages := htmlFiles(srcDir); len(pages) > 0 {
		logger.Info("Found HTML files in src directory, creating index.html")
		return generated(srcDir, writeDirectoryIndex(srcDir, pages))
	}

	logger.Info("Creating a fallback index.html page")
	return generated(sourceDir, writePreview(ctx, ref, sourceDir))
}

func generated(dir string, err error) (entities.SiteLocation, error) {
	if err != nil {
		return entities.SiteLocation{}, err
	}
	return entities.SiteLocation{Dir: dir, GeneratedIndex: true}, nil
}

func writeDirectoryIndex(dir string, pages []string) error {
	files := make([]pageFile, 0, len(pages))
	for _, page := range pages {
		files = append(files, pageFile{Path: page, Kind: "page"})
	}
	return render(filepath.Join(dir, indexFile), directoryIndex, pageData{
		Title: filepath.Base(dir),
		Files: files,
	})
}

// writePreview lists up to maxPreviewFiles repository files, skipping hidden
// entries and zip archives.
func writePreview(ctx context.Context, ref entities.RepositoryReference, sourceDir string) error {
	var paths []string
	truncated := false
	walkErr := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == sourceDir {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || strings.EqualFold(filepath.Ext(d.Name()), ".zip") {
			return nil
		}
		if len(paths) == maxPreviewFiles {
			truncated = true
			return filepath.SkipAll
		}
		rel, relErr := filepath.Rel(sourceDir, path)
		if relErr != nil {
			return relErr
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return walkErr
		}
		return fmt.Errorf("%w: failed to list %s: %w", entities.ErrIO, sourceDir, walkErr)
	}

	sort.Strings(paths)
	files := make([]pageFile, 0, len(paths))
	for _, path := range paths {
		files = append(files, pageFile{Path: path, Kind: fileKinds[strings.ToLower(filepath.Ext(path))]})
	}

	title := ref.Name
	if title == "" {
		title = filepath.Base(sourceDir)
	}
	return render(filepath.Join(sourceDir, indexFile), repositoryPreview, pageData{
		Title:     title,
		SourceURL: ref.URL,
		Files:     files,
		Truncated: truncated,
	})
}

func render(path string, tmpl *template.Template, data pageData) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: failed to create %s: %w", entities.ErrIO, path, err)
	}
	if err = tmpl.Execute(file, data); err != nil {
		_ = file.Close()
		return fmt.Errorf("%w: failed to render %s: %w", entities.ErrIO, path, err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("%w: failed to write %s: %w", entities.ErrIO, path, err)
	}
	logger.Infof("Created index.html in %s", filepath.Dir(path))
	return nil
}

// htmlFiles lists the top-level .html and .htm files of dir, sorted.
func htmlFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var pages []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".html" || ext == ".htm" {
			pages = append(pages, entry.Name())
		}
	}
	sort.Strings(pages)
	return pages
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
