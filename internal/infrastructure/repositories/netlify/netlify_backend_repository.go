package netlify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
	"github.com/rios0rios0/hostpipe/internal/domain/repositories"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/packager"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/ratelimit"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/repositories/httpapi"
)

const (
	backendName   = entities.PlatformNetlify
	defaultAPIURL = "https://api.netlify.com/api/v1"
)

// ArtifactBuilder packs a directory into a size-bounded archive.
type ArtifactBuilder interface {
	Build(ctx context.Context, sourceDir string, maxSizeBytes int64) (*entities.Artifact, error)
}

type site struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	SSLURL string `json:"ssl_url"`
}

type deploy struct {
	ID           string `json:"id"`
	DeployURL    string `json:"deploy_url"`
	DeploySSLURL string `json:"deploy_ssl_url"`
}

// NetlifyBackendRepository deploys a zip of the build output to a new Netlify site.
type NetlifyBackendRepository struct {
	client   *httpapi.Client
	policy   ratelimit.Policy
	builder  ArtifactBuilder
	maxBytes int64
	now      func() time.Time
}

// NewBackendRepository validates the Netlify token and returns a ready backend.
func NewBackendRepository(
	ctx context.Context,
	settings *entities.Settings,
	policy ratelimit.Policy,
) (repositories.BackendRepository, error) {
	backend, err := newBackend(ctx, settings, policy, packager.New(), time.Now)
	if err != nil {
		return nil, err
	}
	return backend, nil
}

func newBackend(
	ctx context.Context,
	settings *entities.Settings,
	policy ratelimit.Policy,
	builder ArtifactBuilder,
	now func() time.Time,
) (*NetlifyBackendRepository, error) {
	if settings.Netlify.Token == "" {
		return nil, fmt.Errorf("%w: Netlify API token not provided (set NETLIFY_TOKEN)", entities.ErrConfiguration)
	}

	apiURL := settings.Netlify.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	backend := &NetlifyBackendRepository{
		client:   httpapi.NewClient(apiURL, settings.Netlify.Token),
		policy:   policy,
		builder:  builder,
		maxBytes: settings.MaxPackageBytes(),
		now:      now,
	}

	logger.Info("Validating Netlify API token...")
	caller := ratelimit.NewCaller(backendName, policy)
	if _, _, err := backend.client.Send(ctx, caller, httpapi.Request{
		Method:   http.MethodGet,
		Endpoint: "/sites",
		Accept:   []int{http.StatusOK},
	}); err != nil {
		return nil, fmt.Errorf("%w: invalid Netlify API token: %w", entities.ErrConfiguration, err)
	}
	logger.Info("Netlify API token is valid")

	return backend, nil
}

func (it *NetlifyBackendRepository) Name() string { return backendName }

// Deploy creates a uniquely named site, uploads the packed artifact and
// returns the deploy URL, falling back to the site URL.
func (it *NetlifyBackendRepository) Deploy(
	ctx context.Context,
	ref entities.RepositoryReference,
	artifactDir string,
) (string, error) {
	caller := ratelimit.NewCaller(backendName, it.policy)
	siteName := fmt.Sprintf("%s-%d", ref.Slug(), it.now().Unix())

	logger.Infof("Creating Netlify site: %s", siteName)
	var created site
	if err := it.client.SendJSON(ctx, caller, httpapi.Request{
		Method:   http.MethodPost,
		Endpoint: "/sites",
		JSON:     map[string]string{"name": siteName},
		Accept:   []int{http.StatusCreated, http.StatusOK},
	}, &created); err != nil {
		return "", fmt.Errorf("failed to create Netlify site: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("%w: Netlify site response has no id", entities.ErrPermanentBackend)
	}
	siteURL := firstNonEmpty(created.SSLURL, created.URL)
	logger.Infof("Created Netlify site: %s", siteURL)

	logger.Infof("Creating zip file from %s", artifactDir)
	artifact, err := it.builder.Build(ctx, artifactDir, it.maxBytes)
	if err != nil {
		return "", fmt.Errorf("failed to create zip file for deployment: %w", err)
	}
	if len(artifact.Files) == 0 {
		return "", fmt.Errorf("%w: no files fit the package size limit", entities.ErrPermanentBackend)
	}

	logger.Infof("Deploying to Netlify site: %s", created.ID)
	caller.Reset()
	var deployed deploy
	if err := it.client.SendJSON(ctx, caller, httpapi.Request{
		Method:      http.MethodPost,
		Endpoint:    "/sites/" + created.ID + "/deploys",
		Raw:         artifact.Data,
		ContentType: "application/zip",
		Accept:      []int{http.StatusOK},
	}, &deployed); err != nil {
		return "", fmt.Errorf("failed to deploy to Netlify: %w", err)
	}

	hostedURL := firstNonEmpty(deployed.DeploySSLURL, deployed.DeployURL, siteURL)
	if hostedURL == "" {
		return "", fmt.Errorf("%w: Netlify returned no URL for site %s", entities.ErrPermanentBackend, created.ID)
	}
	return hostedURL, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
