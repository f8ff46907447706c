package csvledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
	"github.com/rios0rios0/hostpipe/internal/domain/repositories"
)

const (
	columnRepoURL   = "repo_url"
	columnHostedURL = "hosted_url"
	columnPlatform  = "platform"
	columnStatus    = "status"
	columnNotes     = "notes"
)

//nolint:gochecknoglobals // fixed on-disk layout
var header = []string{columnRepoURL, columnHostedURL, columnPlatform, columnStatus, columnNotes}

// CSVLedgerRepository keeps the outcomes of a batch in memory and rewrites the
// whole CSV file after every Append. Only one writer may touch the file.
type CSVLedgerRepository struct {
	mu      sync.Mutex
	path    string
	entries []entities.LedgerEntry
	index   map[string]int
}

var _ repositories.LedgerRepository = (*CSVLedgerRepository)(nil)

// Load reads the ledger at path. A missing, unreadable or malformed file
// starts an empty ledger.
func Load(path string) *CSVLedgerRepository {
	ledger := &CSVLedgerRepository{path: path, index: make(map[string]int)}

	file, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warnf("Could not read ledger %q, starting empty: %v", path, err)
		}
		return ledger
	}
	defer file.Close()

	entries, err := parse(file)
	if err != nil {
		logger.Warnf("Ledger %q is malformed, starting empty: %v", path, err)
		return ledger
	}
	for _, entry := range entries {
		ledger.put(entry)
	}
	logger.Infof("Loaded %d ledger entries from %q", len(ledger.entries), path)
	return ledger
}

// Path is the CSV file backing the ledger.
func (it *CSVLedgerRepository) Path() string { return it.path }

// Entries returns a snapshot of the recorded outcomes in insertion order.
func (it *CSVLedgerRepository) Entries() []entities.LedgerEntry {
	it.mu.Lock()
	defer it.mu.Unlock()
	return append([]entities.LedgerEntry(nil), it.entries...)
}

// Contains reports whether repoURL already has an outcome.
func (it *CSVLedgerRepository) Contains(repoURL string) bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	_, ok := it.index[repoURL]
	return ok
}

// Processed returns the set of recorded repository URLs.
func (it *CSVLedgerRepository) Processed() map[string]struct{} {
	it.mu.Lock()
	defer it.mu.Unlock()
	set := make(map[string]struct{}, len(it.index))
	for url := range it.index {
		set[url] = struct{}{}
	}
	return set
}

// Append records entry, replacing any previous outcome for the same
// repository, and durably rewrites the file before returning.
func (it *CSVLedgerRepository) Append(entry entities.LedgerEntry) error {
	it.mu.Lock()
	defer it.mu.Unlock()

	it.put(entry)
	return it.flush()
}

func (it *CSVLedgerRepository) put(entry entities.LedgerEntry) {
	if i, ok := it.index[entry.RepoURL]; ok {
		it.entries[i] = entry
		return
	}
	it.index[entry.RepoURL] = len(it.entries)
	it.entries = append(it.entries, entry)
}

// flush writes a temporary file next to the ledger, syncs it and renames it
// over the ledger so readers never see a half-written file.
func (it *CSVLedgerRepository) flush() error {
	dir := filepath.Dir(it.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(it.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: failed to create ledger temp file: %w", entities.ErrIO, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	writer := csv.NewWriter(tmp)
	if err = writer.Write(header); err != nil {
		return fmt.Errorf("%w: failed to write ledger header: %w", entities.ErrIO, err)
	}
	for _, entry := range it.entries {
		record := []string{entry.RepoURL, entry.HostedURL, entry.Platform, string(entry.Status), entry.Notes}
		if err = writer.Write(record); err != nil {
			return fmt.Errorf("%w: failed to write ledger row: %w", entities.ErrIO, err)
		}
	}
	writer.Flush()
	if err = writer.Error(); err != nil {
		return fmt.Errorf("%w: failed to flush ledger: %w", entities.ErrIO, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("%w: failed to sync ledger: %w", entities.ErrIO, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: failed to close ledger temp file: %w", entities.ErrIO, err)
	}
	if err = os.Rename(tmpName, it.path); err != nil {
		_ = os.Remove(tmpName)
		committed = true
		return fmt.Errorf("%w: failed to replace ledger %q: %w", entities.ErrIO, it.path, err)
	}
	committed = true
	return nil
}

// parse reads a ledger CSV. Columns are matched by header name; rows without
// a repository URL or with an unknown status are dropped.
func parse(r io.Reader) ([]entities.LedgerEntry, error) {
	reader := csv.NewReader(r)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		columns[name] = i
	}
	if _, ok := columns[columnRepoURL]; !ok {
		return nil, fmt.Errorf("missing %q column", columnRepoURL)
	}
	if _, ok := columns[columnStatus]; !ok {
		return nil, fmt.Errorf("missing %q column", columnStatus)
	}

	field := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	entries := make([]entities.LedgerEntry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		repoURL := entities.CanonicalURL(field(row, columnRepoURL))
		if repoURL == "" {
			continue
		}
		status, statusErr := entities.ParseLedgerStatus(field(row, columnStatus))
		if statusErr != nil {
			logger.Warnf("Skipping ledger row for %s: %v", repoURL, statusErr)
			continue
		}
		entries = append(entries, entities.LedgerEntry{
			RepoURL:   repoURL,
			HostedURL: field(row, columnHostedURL),
			Platform:  field(row, columnPlatform),
			Status:    status,
			Notes:     field(row, columnNotes),
		})
	}
	return entries, nil
}
