package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
	"github.com/rios0rios0/hostpipe/internal/domain/repositories"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/ratelimit"
)

// maxNoteErrors is how many backend errors are spelled out in a failure note.
const maxNoteErrors = 3

// FallbackDeployer tries backends one after the other until one of them hosts the repository.
type FallbackDeployer struct {
	now func() time.Time
}

func NewFallbackDeployer() *FallbackDeployer {
	return &FallbackDeployer{now: time.Now}
}

// Deploy walks backends in order and stops at the first success. The returned
// entry carries the ledger status and notes; the attempts list every backend
// that was invoked.
func (it *FallbackDeployer) Deploy(
	ctx context.Context,
	ref entities.RepositoryReference,
	artifactDir string,
	backends []repositories.BackendRepository,
) (entities.LedgerEntry, []entities.DeploymentAttempt) {
	entry := entities.LedgerEntry{RepoURL: ref.URL}
	if len(backends) == 0 {
		entry.Status = entities.StatusDeployFailed
		entry.Notes = "Deployment failed to all platforms: no backends available"
		return entry, nil
	}

	attempts := make([]entities.DeploymentAttempt, 0, len(backends))
	var failures []string
	for _, backend := range backends {
		if ctx.Err() != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", backend.Name(), ctx.Err()))
			break
		}

		log := logger.WithFields(logger.Fields{"repo": ref.URL, "platform": backend.Name()})
		log.Infof("Attempting to deploy %s to %s", ref.URL, backend.Name())

		attempt := entities.DeploymentAttempt{Backend: backend.Name(), StartedAt: it.now()}
		url, err := backend.Deploy(ctx, ref, artifactDir)
		if err == nil && url == "" {
			err = fmt.Errorf("%w: no URL returned", entities.ErrPermanentBackend)
		}
		if err == nil {
			attempt.Kind = entities.OutcomeSuccess
			attempt.URL = url
			attempts = append(attempts, attempt)
			log.Infof("Successfully deployed %s to %s at %s", ref.URL, backend.Name(), url)

			entry.Status = entities.StatusSuccess
			entry.Platform = backend.Name()
			entry.HostedURL = url
			entry.Notes = "Deployed successfully to " + backend.Name()
			return entry, attempts
		}

		attempt.Err = err
		attempt.Reason = err.Error()
		attempt.Kind = entities.OutcomePermanentFailure
		if errors.Is(err, entities.ErrTransientBackend) || errors.Is(err, ratelimit.ErrRetriesExhausted) {
			attempt.Kind = entities.OutcomeTransientFailure
			attempt.Code = entities.StatusCode(err)
		}
		attempts = append(attempts, attempt)
		failures = append(failures, fmt.Sprintf("%s: %v", backend.Name(), err))
		log.Errorf("Error deploying to %s: %v", backend.Name(), err)
	}

	entry.Status = entities.StatusDeployFailed
	entry.Notes = failureNotes(failures)
	return entry, attempts
}

// failureNotes spells out the first maxNoteErrors errors and counts the rest.
func failureNotes(failures []string) string {
	notes := "Deployment failed to all platforms"
	if len(failures) == 0 {
		return notes
	}
	shown := failures
	if len(shown) > maxNoteErrors {
		shown = shown[:maxNoteErrors]
	}
	notes += ": " + strings.Join(shown, "; ")
	if extra := len(failures) - len(shown); extra > 0 {
		notes += fmt.Sprintf(" and %d more errors", extra)
	}
	return notes
}
