package entities

import "fmt"

// LedgerStatus is the final state of one repository in a batch run.
type LedgerStatus string

const (
	StatusSuccess        LedgerStatus = "Success"
	StatusDownloadFailed LedgerStatus = "Failed to download"
	StatusDeployFailed   LedgerStatus = "Failed to deploy"
)

// ParseLedgerStatus maps the on-disk status text back to a LedgerStatus.
func ParseLedgerStatus(raw string) (LedgerStatus, error) {
	switch LedgerStatus(raw) {
	case StatusSuccess, StatusDownloadFailed, StatusDeployFailed:
		return LedgerStatus(raw), nil
	default:
		return "", fmt.Errorf("unknown ledger status %q", raw)
	}
}

// LedgerEntry is the recorded outcome for one repository, keyed by RepoURL.
type LedgerEntry struct {
	RepoURL   string
	HostedURL string
	Platform  string
	Status    LedgerStatus
	Notes     string
}

// Succeeded reports whether the repository ended up hosted.
func (e LedgerEntry) Succeeded() bool {
	return e.Status == StatusSuccess
}
