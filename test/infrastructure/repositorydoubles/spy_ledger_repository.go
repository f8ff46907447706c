//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/rios0rios0/hostpipe/internal/domain/entities"
	"github.com/rios0rios0/hostpipe/internal/domain/repositories"
)

// SpyLedgerRepository is an in-memory repositories.LedgerRepository that records appends.
type SpyLedgerRepository struct {
	// --- state ---
	Stored []entities.LedgerEntry

	// --- Append ---
	AppendErr   error
	AppendCalls []entities.LedgerEntry
}

var _ repositories.LedgerRepository = (*SpyLedgerRepository)(nil)

// NewSpyLedgerRepository starts a ledger already holding the given entries.
func NewSpyLedgerRepository(seed ...entities.LedgerEntry) *SpyLedgerRepository {
	return &SpyLedgerRepository{Stored: append([]entities.LedgerEntry(nil), seed...)}
}

// Opener returns a LedgerOpener that always hands out this spy.
func (l *SpyLedgerRepository) Opener() repositories.LedgerOpener {
	return func(string) repositories.LedgerRepository { return l }
}

func (l *SpyLedgerRepository) Entries() []entities.LedgerEntry {
	return append([]entities.LedgerEntry(nil), l.Stored...)
}

func (l *SpyLedgerRepository) Contains(repoURL string) bool {
	for _, entry := range l.Stored {
		if entry.RepoURL == repoURL {
			return true
		}
	}
	return false
}

func (l *SpyLedgerRepository) Append(entry entities.LedgerEntry) error {
	l.AppendCalls = append(l.AppendCalls, entry)
	if l.AppendErr != nil {
		return l.AppendErr
	}
	for i, stored := range l.Stored {
		if stored.RepoURL == entry.RepoURL {
			l.Stored[i] = entry
			return nil
		}
	}
	l.Stored = append(l.Stored, entry)
	return nil
}
