package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
	"github.com/rios0rios0/hostpipe/internal/domain/repositories"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/metrics"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/ratelimit"
	infraRepos "github.com/rios0rios0/hostpipe/internal/infrastructure/repositories"
)

// Run is the interface for the run command (batch mode).
type Run interface {
	Execute(ctx context.Context, settings *entities.Settings, opts RunOptions) (entities.Summary, error)
}

// RunOptions holds runtime options for a single run.
type RunOptions struct {
	InputPath    string   // file with one repository URL per line
	Repositories []string // used instead of InputPath when set
	OutputPath   string   // ledger CSV
	Platforms    []string // fallback order; settings.Platforms when empty
	ResumeFrom   string   // start the working list at this repository
	MetricsFile  string   // Prometheus textfile written at the end, optional
}

// RunCommand orchestrates the batch:
// read list -> fetch source -> locate site -> deploy with fallback -> record.
type RunCommand struct {
	registry   *infraRepos.BackendRegistry
	openLedger repositories.LedgerOpener
	source     repositories.SourceRepository
	site       repositories.SiteRepository
	deployer   *FallbackDeployer
	recorder   *metrics.Recorder
	sleep      ratelimit.SleepFunc
	now        func() time.Time
}

// NewRunCommand creates a new RunCommand with its collaborators.
func NewRunCommand(
	registry *infraRepos.BackendRegistry,
	openLedger repositories.LedgerOpener,
	source repositories.SourceRepository,
	site repositories.SiteRepository,
	deployer *FallbackDeployer,
	recorder *metrics.Recorder,
) *RunCommand {
	return &RunCommand{
		registry:   registry,
		openLedger: openLedger,
		source:     source,
		site:       site,
		deployer:   deployer,
		recorder:   recorder,
		sleep:      ratelimit.ContextSleep,
		now:        time.Now,
	}
}

// Execute processes every repository of the working list that the ledger
// does not know yet. Configuration problems, an empty list and ledger write
// failures abort the batch; everything else becomes a ledger row.
func (it *RunCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts RunOptions,
) (entities.Summary, error) {
	summary := entities.Summary{RunID: uuid.NewString()}

	urls, err := it.repositoryList(opts)
	if err != nil {
		return summary, err
	}
	logger.Infof("Found %d repositories to process (run %s)", len(urls), summary.RunID)

	platforms := opts.Platforms
	if len(platforms) == 0 {
		platforms = settings.Platforms
	}
	policy := ratelimit.Policy{
		MaxRetries: settings.MaxRetries,
		Delays:     settings.RetrySchedule(),
		Sleep:      it.sleep,
		OnRetry:    it.recorder.ObserveRetry,
	}
	backends, err := it.registry.Build(ctx, platforms, settings, policy)
	if err != nil {
		return summary, err
	}

	ledger := it.openLedger(opts.OutputPath)
	working := resumeSlice(urls, opts.ResumeFrom)
	summary.TotalCount = len(working)

	disabled := make(map[string]bool)
	attempted := 0
	for _, url := range working {
		if ctx.Err() != nil {
			return it.finish(summary, ledger, working, opts), ctx.Err()
		}
		if ledger.Contains(url) {
			logger.Infof("Skipping already processed repository: %s", url)
			summary.Skipped++
			continue
		}

		if attempted > 0 && settings.DelaySeconds > 0 {
			logger.Debugf("Waiting %s before next deployment...", settings.Delay())
			if sleepErr := it.sleep(ctx, settings.Delay()); sleepErr != nil {
				return it.finish(summary, ledger, working, opts), sleepErr
			}
		}
		attempted++

		logger.WithField("repo", url).Infof("Processing repository: %s", url)
		entry := it.processRepository(ctx, settings, url, activeBackends(backends, disabled), disabled)
		if ctx.Err() != nil {
			logger.Warnf("Interrupted while processing %s, not recorded", url)
			return it.finish(summary, ledger, working, opts), ctx.Err()
		}

		if appendErr := ledger.Append(entry); appendErr != nil {
			return it.finish(summary, ledger, working, opts),
				fmt.Errorf("failed to record outcome of %s: %w", url, appendErr)
		}
		it.recorder.ObserveRepository(entry.Status)
	}

	return it.finish(summary, ledger, working, opts), nil
}

func (it *RunCommand) repositoryList(opts RunOptions) ([]string, error) {
	var urls []string
	if len(opts.Repositories) > 0 {
		seen := make(map[string]bool)
		for _, raw := range opts.Repositories {
			url := entities.CanonicalURL(raw)
			if url == "" || seen[url] {
				continue
			}
			seen[url] = true
			urls = append(urls, url)
		}
	} else {
		file, err := os.Open(opts.InputPath)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to open repository list: %w", entities.ErrIO, err)
		}
		defer file.Close()
		if urls, err = entities.ReadRepositoryList(file); err != nil {
			return nil, err
		}
	}

	if len(urls) == 0 {
		return nil, entities.ErrEmptyInput
	}
	return urls, nil
}

// processRepository fetches, locates and deploys one repository and turns
// the result into a ledger entry. Backends failing with a configuration-class
// error are added to disabled.
func (it *RunCommand) processRepository(
	ctx context.Context,
	settings *entities.Settings,
	url string,
	backends []repositories.BackendRepository,
	disabled map[string]bool,
) entities.LedgerEntry {
	log := logger.WithField("repo", url)
	failed := func(err error) entities.LedgerEntry {
		log.Errorf("Failed to download %s: %v", url, err)
		return entities.LedgerEntry{
			RepoURL: url,
			Status:  entities.StatusDownloadFailed,
			Notes:   "Could not download repository: " + err.Error(),
		}
	}

	ref, err := entities.ParseRepositoryReference(url)
	if err != nil {
		return failed(err)
	}

	workDir, err := os.MkdirTemp("", "hostpipe-")
	if err != nil {
		return failed(fmt.Errorf("%w: failed to create work directory: %w", entities.ErrIO, err))
	}
	defer os.RemoveAll(workDir)

	sourceDir, ref, err := it.source.Fetch(ctx, settings, ref, workDir)
	if err != nil {
		return failed(err)
	}
	site, err := it.site.Locate(ctx, ref, sourceDir)
	if err != nil {
		return failed(err)
	}
	ref = ref.WithSitePath(sitePath(sourceDir, site.Dir)).WithGeneratedIndex(site.GeneratedIndex)

	entry, attempts := it.deployer.Deploy(ctx, ref, site.Dir, backends)
	for _, attempt := range attempts {
		it.recorder.ObserveAttempt(attempt)
		if attempt.Err != nil && entities.IsConfigurationClass(attempt.Err) && !disabled[attempt.Backend] {
			disabled[attempt.Backend] = true
			logger.Warnf("Platform %s disabled for the rest of the batch: %v", attempt.Backend, attempt.Err)
		}
	}
	entry.RepoURL = url
	return entry
}

// finish builds the summary from the ledger, logs it and writes metrics.
func (it *RunCommand) finish(
	summary entities.Summary,
	ledger repositories.LedgerRepository,
	working []string,
	opts RunOptions,
) entities.Summary {
	recorded := make(map[string]entities.LedgerEntry)
	for _, entry := range ledger.Entries() {
		recorded[entry.RepoURL] = entry
	}
	for _, url := range working {
		entry, ok := recorded[url]
		if !ok {
			continue
		}
		if entry.Succeeded() {
			summary.SuccessCount++
			continue
		}
		summary.Failures = append(summary.Failures, entities.FailureNote{
			RepoURL: url, Status: entry.Status, Notes: entry.Notes,
		})
	}

	logger.Infof("Summary: %d/%d repositories successfully deployed", summary.SuccessCount, summary.TotalCount)
	if len(summary.Failures) > 0 {
		logger.Info("Failed deployments:")
		for _, failure := range summary.Failures {
			logger.Infof("  - %s: %s", failure.RepoURL, failure.Notes)
		}
	}

	it.recorder.ObserveSummary(summary, it.now())
	if opts.MetricsFile != "" {
		if err := it.recorder.WriteTextfile(opts.MetricsFile); err != nil {
			logger.Warnf("Could not write metrics: %v", err)
		}
	}
	return summary
}

// resumeSlice starts the list at resumeFrom when it is present.
func resumeSlice(urls []string, resumeFrom string) []string {
	if resumeFrom == "" {
		return urls
	}
	target := entities.CanonicalURL(resumeFrom)
	for i, url := range urls {
		if url == target {
			logger.Infof("Resuming from %s. %d repositories remaining.", target, len(urls)-i)
			return urls[i:]
		}
	}
	logger.Warnf("Resume repository %s not found in the input list.", resumeFrom)
	return urls
}

func activeBackends(
	backends []repositories.BackendRepository,
	disabled map[string]bool,
) []repositories.BackendRepository {
	active := make([]repositories.BackendRepository, 0, len(backends))
	for _, backend := range backends {
		if !disabled[backend.Name()] {
			active = append(active, backend)
		}
	}
	return active
}

// sitePath is siteDir relative to sourceDir in URL form, "/" for the root.
func sitePath(sourceDir, siteDir string) string {
	rel, err := filepath.Rel(sourceDir, siteDir)
	if err != nil || rel == "." {
		return "/"
	}
	return "/" + filepath.ToSlash(rel)
}
