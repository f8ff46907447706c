package githubpages

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v66/github"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
	"github.com/rios0rios0/hostpipe/internal/domain/repositories"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/ratelimit"
)

const (
	backendName = entities.PlatformGitHub
	pagesBranch = "gh-pages"
)

// GitHubPagesBackendRepository enables GitHub Pages on the source repository itself.
type GitHubPagesBackendRepository struct {
	client *gh.Client
	policy ratelimit.Policy
}

// NewBackendRepository validates the GitHub token and returns a ready backend.
func NewBackendRepository(
	ctx context.Context,
	settings *entities.Settings,
	policy ratelimit.Policy,
) (repositories.BackendRepository, error) {
	if settings.GitHub.Token == "" {
		return nil, fmt.Errorf("%w: GitHub API token not provided (set GITHUB_TOKEN)", entities.ErrConfiguration)
	}

	client := gh.NewClient(nil).WithAuthToken(settings.GitHub.Token)
	if settings.GitHub.APIURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(settings.GitHub.APIURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("%w: invalid GitHub API URL: %w", entities.ErrConfiguration, err)
		}
		client.BaseURL = baseURL
	}

	backend := &GitHubPagesBackendRepository{client: client, policy: policy}

	logger.Info("Validating GitHub API token...")
	caller := ratelimit.NewCaller(backendName, policy)
	var user *gh.User
	_, err := call(ctx, caller, accountScope, func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var apiErr error
		user, resp, apiErr = client.Users.Get(ctx, "")
		return resp, apiErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: invalid GitHub API token: %w", entities.ErrConfiguration, err)
	}
	logger.Infof("GitHub API token is valid (user %s)", user.GetLogin())

	return backend, nil
}

func (it *GitHubPagesBackendRepository) Name() string { return backendName }

// Deploy returns the existing Pages URL when Pages is already on, otherwise
// enables Pages from gh-pages when that branch exists, else from the default
// branch (publishing /docs when the site lives there). Pages publishes the
// remote branch, so a locally generated index page cannot be enabled.
func (it *GitHubPagesBackendRepository) Deploy(
	ctx context.Context,
	ref entities.RepositoryReference,
	_ string,
) (string, error) {
	if ref.Owner == "" || ref.Name == "" {
		return "", fmt.Errorf("%w: %q has no owner or name", entities.ErrInvalidReference, ref.URL)
	}
	pagesURL := fmt.Sprintf("https://%s.github.io/%s", ref.Owner, ref.Name)
	caller := ratelimit.NewCaller(backendName, it.policy)

	var existing *gh.Pages
	status, err := call(ctx, caller, repositoryScope, func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var apiErr error
		existing, resp, apiErr = it.client.Repositories.GetPagesInfo(ctx, ref.Owner, ref.Name)
		return resp, apiErr
	})
	switch {
	case err == nil:
		logger.Infof("GitHub Pages already enabled for %s", ref.URL)
		return firstNonEmpty(existing.GetHTMLURL(), pagesURL), nil
	case status != http.StatusNotFound:
		return "", fmt.Errorf("failed to check GitHub Pages status: %w", err)
	}
	if ref.GeneratedIndex {
		return "", fmt.Errorf("%w: %w", entities.ErrPermanentBackend, entities.ErrGeneratedIndex)
	}

	branch := ref.DefaultBranch
	if branch == "" {
		var repo *gh.Repository
		if _, err := call(ctx, caller, repositoryScope, func(ctx context.Context) (*gh.Response, error) {
			var resp *gh.Response
			var apiErr error
			repo, resp, apiErr = it.client.Repositories.Get(ctx, ref.Owner, ref.Name)
			return resp, apiErr
		}); err != nil {
			return "", fmt.Errorf("failed to get repository info: %w", err)
		}
		branch = firstNonEmpty(repo.GetDefaultBranch(), "main")
	}

	caller.Reset()
	source, err := it.pagesSource(ctx, caller, ref, branch)
	if err != nil {
		return "", fmt.Errorf("failed to look up the %s branch: %w", pagesBranch, err)
	}

	caller.Reset()
	var enabled *gh.Pages
	if _, err := call(ctx, caller, repositoryScope, func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var apiErr error
		enabled, resp, apiErr = it.client.Repositories.EnablePages(ctx, ref.Owner, ref.Name, &gh.Pages{Source: source})
		return resp, apiErr
	}); err != nil {
		return "", fmt.Errorf("failed to enable GitHub Pages: %w", err)
	}

	logger.Infof("Successfully enabled GitHub Pages for %s from %s:%s",
		ref.URL, source.GetBranch(), source.GetPath())
	return firstNonEmpty(enabled.GetHTMLURL(), pagesURL), nil
}

// pagesSource prefers an existing gh-pages branch. Pages can only publish the
// branch root or /docs.
func (it *GitHubPagesBackendRepository) pagesSource(
	ctx context.Context,
	caller *ratelimit.Caller,
	ref entities.RepositoryReference,
	defaultBranch string,
) (*gh.PagesSource, error) {
	status, err := call(ctx, caller, repositoryScope, func(ctx context.Context) (*gh.Response, error) {
		_, resp, apiErr := it.client.Repositories.GetBranch(ctx, ref.Owner, ref.Name, pagesBranch, 1)
		return resp, apiErr
	})
	switch {
	case err == nil:
		return &gh.PagesSource{Branch: gh.String(pagesBranch), Path: gh.String("/")}, nil
	case status != http.StatusNotFound:
		return nil, err
	}
	logger.Debugf("No %s branch for %s", pagesBranch, ref.URL)

	path := "/"
	if ref.SitePath == "/docs" {
		path = "/docs"
	}
	return &gh.PagesSource{Branch: gh.String(defaultBranch), Path: gh.String(path)}, nil
}

// scope tells whether a request concerns the token's account or one repository.
type scope int

const (
	accountScope scope = iota
	repositoryScope
)

// call adapts a go-github call to the rate-limited caller. go-github turns
// every non-2xx status into an error, so the error is kept aside and the raw
// response is handed to the caller to decide on retries. It returns the final
// status and a classified error for non-2xx outcomes.
//
// On repository-scoped requests 403 and 404 only say the token cannot see or
// administer that repository, so they are permanent for the repository rather
// than rejected credentials.
func call(
	ctx context.Context,
	caller *ratelimit.Caller,
	sc scope,
	fn func(ctx context.Context) (*gh.Response, error),
) (int, error) {
	var lastErr error
	resp, callErr := caller.Call(ctx, func(ctx context.Context) (*http.Response, error) {
		ghResp, err := fn(ctx)
		lastErr = err
		if ghResp != nil && ghResp.Response != nil {
			return ghResp.Response, nil
		}
		return nil, err
	})
	if resp == nil {
		return 0, fmt.Errorf("request failed: %w", callErr)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 && callErr == nil {
		return resp.StatusCode, nil
	}

	detail := ""
	if lastErr != nil {
		detail = lastErr.Error()
	}
	statusErr := entities.ClassifyStatus(resp.StatusCode, detail)
	switch {
	case isRateLimited(lastErr):
		statusErr = &entities.StatusError{Kind: entities.ErrTransientBackend, Code: resp.StatusCode, Body: detail}
	case sc == repositoryScope &&
		(resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound):
		statusErr = &entities.StatusError{Kind: entities.ErrPermanentBackend, Code: resp.StatusCode, Body: detail}
	}
	if callErr != nil {
		return resp.StatusCode, fmt.Errorf("%w: %w", callErr, statusErr)
	}
	return resp.StatusCode, statusErr
}

// isRateLimited spots GitHub's 403 rate-limit responses so they are not
// mistaken for rejected credentials.
func isRateLimited(err error) bool {
	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	return errors.As(err, &rateErr) || errors.As(err, &abuseErr)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
