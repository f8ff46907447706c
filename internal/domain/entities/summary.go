package entities

// FailureNote pairs a failed repository with the notes recorded for it.
type FailureNote struct {
	RepoURL string
	Status  LedgerStatus
	Notes   string
}

// Summary is the outcome of one batch run over the working list.
type Summary struct {
	RunID        string
	SuccessCount int
	TotalCount   int
	Skipped      int
	Failures     []FailureNote
}
