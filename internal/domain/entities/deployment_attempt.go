package entities

import "time"

// OutcomeKind tells how a single backend attempt ended.
type OutcomeKind string

const (
	OutcomeSuccess          OutcomeKind = "success"
	OutcomeTransientFailure OutcomeKind = "transient_failure"
	OutcomePermanentFailure OutcomeKind = "permanent_failure"
)

// DeploymentAttempt records one backend try for one repository.
type DeploymentAttempt struct {
	Backend   string
	StartedAt time.Time
	Kind      OutcomeKind
	URL       string // success only
	Code      int    // transient failures only, when an HTTP status is known
	Reason    string
	Err       error // failures only
}

// Succeeded reports whether the attempt produced a hosted URL.
func (a DeploymentAttempt) Succeeded() bool {
	return a.Kind == OutcomeSuccess
}
