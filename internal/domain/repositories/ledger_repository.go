package repositories

import "github.com/rios0rios0/hostpipe/internal/domain/entities"

// LedgerRepository is the durable record of per-repository outcomes for a batch.
// Append must persist the whole accumulated set before returning.
type LedgerRepository interface {
	Entries() []entities.LedgerEntry
	Contains(repoURL string) bool
	Append(entry entities.LedgerEntry) error
}

// LedgerOpener loads (or starts) the ledger stored at path.
type LedgerOpener func(path string) LedgerRepository
