package entities

import (
	"fmt"
	"net/url"
	"strings"
)

// RepositoryReference identifies one source repository. The canonical URL is its identity.
type RepositoryReference struct {
	Owner         string
	Name          string
	URL           string
	DefaultBranch string
	SitePath      string // static output location inside the repository, "/" for the root
	// GeneratedIndex is set when the entry page exists only in the local checkout.
	GeneratedIndex bool
}

// CanonicalURL normalizes a raw repository URL so that equivalent spellings share one key.
func CanonicalURL(raw string) string {
	canonical := strings.TrimSpace(raw)
	canonical = strings.TrimSuffix(canonical, "/")
	canonical = strings.TrimSuffix(canonical, ".git")
	return canonical
}

// ParseRepositoryReference extracts owner and name from an https://<host>/<owner>/<name> URL.
// The default branch is left empty until the source is fetched.
func ParseRepositoryReference(raw string) (RepositoryReference, error) {
	canonical := CanonicalURL(raw)
	u, err := url.Parse(canonical)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return RepositoryReference{}, fmt.Errorf("%w: %q", ErrInvalidReference, raw)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepositoryReference{}, fmt.Errorf("%w: %q", ErrInvalidReference, raw)
	}

	return RepositoryReference{
		Owner: parts[0],
		Name:  parts[1],
		URL:   canonical,
	}, nil
}

// WithDefaultBranch returns a copy of the reference with the resolved branch set.
func (r RepositoryReference) WithDefaultBranch(branch string) RepositoryReference {
	r.DefaultBranch = branch
	return r
}

// WithSitePath returns a copy of the reference with the static output location set.
func (r RepositoryReference) WithSitePath(sitePath string) RepositoryReference {
	r.SitePath = sitePath
	return r
}

// WithGeneratedIndex returns a copy of the reference marking a locally generated entry page.
func (r RepositoryReference) WithGeneratedIndex(generated bool) RepositoryReference {
	r.GeneratedIndex = generated
	return r
}

// Slug is the reference name lowercased with characters hosting providers reject replaced.
func (r RepositoryReference) Slug() string {
	return strings.NewReplacer("_", "-", ".", "-").Replace(strings.ToLower(r.Name))
}

func (r RepositoryReference) String() string { return r.URL }
