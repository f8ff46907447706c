package gitsource

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
	"github.com/rios0rios0/hostpipe/internal/domain/repositories"
)

const (
	shallowDepth  = 1
	tokenUsername = "x-access-token"
	tokenHost     = "github.com"
)

// GitSourceRepository clones repositories with go-git. Network clones are
// shallow and single-branch; GitHub clones authenticate with the configured
// GitHub token so private repositories can be fetched too.
type GitSourceRepository struct{}

var _ repositories.SourceRepository = (*GitSourceRepository)(nil)

func NewSourceRepository() *GitSourceRepository {
	return &GitSourceRepository{}
}

// Fetch clones ref into a fresh directory under workDir and resolves the
// branch HEAD points to.
func (it *GitSourceRepository) Fetch(
	ctx context.Context,
	settings *entities.Settings,
	ref entities.RepositoryReference,
	workDir string,
) (string, entities.RepositoryReference, error) {
	name := ref.Slug()
	if name == "" {
		name = "checkout"
	}
	dest := filepath.Join(workDir, name)

	options := &git.CloneOptions{URL: ref.URL}
	if isNetworkURL(ref.URL) {
		options.Depth = shallowDepth
		options.SingleBranch = true
	}
	if auth := authFor(settings.GitHub.Token, ref.URL); auth != nil {
		options.Auth = auth
	}

	logger.Debugf("Cloning %s into %s", ref.URL, dest)
	repo, err := git.PlainCloneContext(ctx, dest, false, options)
	if err != nil {
		if ctx.Err() != nil {
			return "", ref, ctx.Err()
		}
		return "", ref, fmt.Errorf("failed to clone %s: %w", ref.URL, err)
	}

	resolved := ref
	head, err := repo.Head()
	if err != nil {
		logger.Warnf("Could not resolve HEAD of %s: %v", ref.URL, err)
		return dest, resolved, nil
	}
	if head.Name().IsBranch() {
		resolved = ref.WithDefaultBranch(head.Name().Short())
	}
	return dest, resolved, nil
}

func authFor(token, rawURL string) transport.AuthMethod {
	if token == "" {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme != "https" || !strings.EqualFold(parsed.Hostname(), tokenHost) {
		return nil
	}
	return &http.BasicAuth{Username: tokenUsername, Password: token}
}

// isNetworkURL tells remote transports apart from local paths, which the
// in-process file transport cannot clone shallowly.
func isNetworkURL(rawURL string) bool {
	for _, prefix := range []string{"https://", "http://", "ssh://", "git://", "git@"} {
		if strings.HasPrefix(rawURL, prefix) {
			return true
		}
	}
	return false
}
