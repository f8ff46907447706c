package packager

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
)

// oversizedDivisor sets the single-file threshold: files above budget/4 are skipped.
const oversizedDivisor = 4

const maxListedOversized = 5

//nolint:gochecknoglobals // lookup table
var extensionPriority = map[string]entities.PriorityClass{
	".html":  entities.PriorityMarkup,
	".htm":   entities.PriorityMarkup,
	".css":   entities.PriorityCode,
	".js":    entities.PriorityCode,
	".jpg":   entities.PriorityImage,
	".jpeg":  entities.PriorityImage,
	".png":   entities.PriorityImage,
	".gif":   entities.PriorityImage,
	".svg":   entities.PriorityImage,
	".ico":   entities.PriorityImage,
	".woff":  entities.PriorityFont,
	".woff2": entities.PriorityFont,
	".ttf":   entities.PriorityFont,
	".eot":   entities.PriorityFont,
	".json":  entities.PriorityData,
	".xml":   entities.PriorityData,
}

// Packager zips build output under a size budget, packing files that make a
// page render before the rest.
type Packager struct{}

// New creates a Packager.
func New() *Packager {
	return &Packager{}
}

// Priority classifies a relative path. Only a file named exactly index.html is an entry point.
func Priority(relPath string) entities.PriorityClass {
	if path.Base(filepath.ToSlash(relPath)) == "index.html" {
		return entities.PriorityEntryPoint
	}
	if p, ok := extensionPriority[strings.ToLower(filepath.Ext(relPath))]; ok {
		return p
	}
	return entities.PriorityDefault
}

// Selection is the result of planning which files fit the budget.
type Selection struct {
	Packed            []entities.ArtifactFile
	SkippedOversized  []entities.ArtifactFile
	SkippedOverBudget []entities.ArtifactFile
	TotalBytes        int64
}

// Plan orders files by priority (then path) and greedily keeps those that fit.
// A file larger than a quarter of the budget is never packed.
func Plan(files []entities.ArtifactFile, budget int64) Selection {
	ordered := append([]entities.ArtifactFile(nil), files...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority < ordered[j].Priority
		}
		return ordered[i].RelativePath < ordered[j].RelativePath
	})

	var sel Selection
	threshold := budget / oversizedDivisor
	for _, f := range ordered {
		if f.SizeBytes > threshold {
			sel.SkippedOversized = append(sel.SkippedOversized, f)
			continue
		}
		if sel.TotalBytes+f.SizeBytes > budget {
			sel.SkippedOverBudget = append(sel.SkippedOverBudget, f)
			continue
		}
		sel.Packed = append(sel.Packed, f)
		sel.TotalBytes += f.SizeBytes
	}
	return sel
}

// Build walks sourceDir, plans the packing and writes the zip in memory. The
// archive is only returned once the zip writer closed cleanly.
func (it *Packager) Build(ctx context.Context, sourceDir string, maxSizeBytes int64) (*entities.Artifact, error) {
	files, err := collect(ctx, sourceDir)
	if err != nil {
		return nil, err
	}

	sel := Plan(files, maxSizeBytes)
	data, err := writeZip(ctx, sourceDir, sel.Packed)
	if err != nil {
		return nil, err
	}

	artifact := &entities.Artifact{
		Data:              data,
		Files:             sel.Packed,
		BudgetBytes:       maxSizeBytes,
		TotalBytes:        sel.TotalBytes,
		SkippedOversized:  sel.SkippedOversized,
		SkippedOverBudget: sel.SkippedOverBudget,
	}
	report(artifact)
	return artifact, nil
}

func collect(ctx context.Context, root string) ([]entities.ArtifactFile, error) {
	var files []entities.ArtifactFile
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return fmt.Errorf("relative path for %q: %w", p, err)
		}
		rel = filepath.ToSlash(rel)

		files = append(files, entities.ArtifactFile{
			RelativePath: rel,
			SizeBytes:    info.Size(),
			Priority:     Priority(rel),
		})
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: failed to read %q: %w", entities.ErrIO, root, err)
	}
	return files, nil
}

func writeZip(ctx context.Context, root string, files []entities.ArtifactFile) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			_ = zw.Close()
			return nil, err
		}
		if err := addFile(zw, root, f.RelativePath); err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("%w: %w", entities.ErrIO, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: failed to finalize archive: %w", entities.ErrIO, err)
	}
	return buf.Bytes(), nil
}

func addFile(zw *zip.Writer, root, rel string) error {
	src, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return fmt.Errorf("open %q: %w", rel, err)
	}
	defer src.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: rel, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("add %q: %w", rel, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("compress %q: %w", rel, err)
	}
	return nil
}

func report(a *entities.Artifact) {
	const mb = 1024 * 1024
	if n := len(a.SkippedOversized); n > 0 {
		logger.Warnf("Skipped %d large files exceeding size threshold:", n)
		for i, f := range a.SkippedOversized {
			if i == maxListedOversized {
				logger.Warnf("  - ... and %d more", n-maxListedOversized)
				break
			}
			logger.Warnf("  - %s: %.2f MB", f.RelativePath, float64(f.SizeBytes)/mb)
		}
	}
	if n := len(a.SkippedOverBudget); n > 0 {
		logger.Warnf("Skipped %d files to stay within size limit", n)
	}
	logger.Infof("Created zip file: %.2f MB / %.0f MB", float64(a.TotalBytes)/mb, float64(a.BudgetBytes)/mb)
}
