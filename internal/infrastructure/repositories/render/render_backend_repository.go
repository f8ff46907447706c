package render

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
	"github.com/rios0rios0/hostpipe/internal/domain/repositories"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/ratelimit"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/repositories/httpapi"
)

const (
	backendName   = entities.PlatformRender
	defaultAPIURL = "https://api.render.com/v1"
	noopBuild     = "echo 'Static site, no build needed'"
)

type service struct {
	ID             string `json:"id"`
	URL            string `json:"url"`
	ServiceDetails struct {
		URL string `json:"url"`
	} `json:"serviceDetails"`
}

// createServiceResponse accepts both the flat and the {"service": {...}} shapes.
type createServiceResponse struct {
	service
	Service *service `json:"service"`
}

type deployHook struct {
	URL string `json:"url"`
}

// RenderBackendRepository creates a Render static site linked to the source
// repository and triggers its first build through a deploy hook.
type RenderBackendRepository struct {
	client  *httpapi.Client
	policy  ratelimit.Policy
	ownerID string
	now     func() time.Time
}

// NewBackendRepository validates the Render token and resolves the owner ID
// once, so every deploy of the batch reuses it.
func NewBackendRepository(
	ctx context.Context,
	settings *entities.Settings,
	policy ratelimit.Policy,
) (repositories.BackendRepository, error) {
	if settings.Render.Token == "" {
		return nil, fmt.Errorf("%w: Render API token not provided (set RENDER_TOKEN)", entities.ErrConfiguration)
	}

	apiURL := settings.Render.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	backend := &RenderBackendRepository{
		client:  httpapi.NewClient(apiURL, settings.Render.Token),
		policy:  policy,
		ownerID: settings.Render.OwnerID,
		now:     time.Now,
	}

	logger.Info("Validating Render API token...")
	caller := ratelimit.NewCaller(backendName, policy)
	if _, _, err := backend.client.Send(ctx, caller, httpapi.Request{
		Method:   http.MethodGet,
		Endpoint: "/services",
		Accept:   []int{http.StatusOK},
	}); err != nil {
		return nil, fmt.Errorf("%w: invalid Render API token: %w", entities.ErrConfiguration, err)
	}
	logger.Info("Render API token is valid")

	if backend.ownerID == "" {
		caller.Reset()
		ownerID, err := backend.resolveOwnerID(ctx, caller)
		if err != nil {
			return nil, fmt.Errorf(
				"%w: could not determine Render owner ID, set RENDER_OWNER_ID: %w",
				entities.ErrConfiguration, err,
			)
		}
		logger.Infof("Found Render owner ID: %s", ownerID)
		backend.ownerID = ownerID
	}

	return backend, nil
}

func (it *RenderBackendRepository) Name() string { return backendName }

// Deploy creates a static site service building from the repository itself,
// then registers and fires a deploy hook. Once the service exists, hook
// failures still return the site URL: the site is reachable after a manual
// deploy. Sites whose index page was generated locally are refused because
// Render never sees the local checkout.
func (it *RenderBackendRepository) Deploy(
	ctx context.Context,
	ref entities.RepositoryReference,
	_ string,
) (string, error) {
	if ref.GeneratedIndex {
		return "", fmt.Errorf("%w: %w", entities.ErrPermanentBackend, entities.ErrGeneratedIndex)
	}
	caller := ratelimit.NewCaller(backendName, it.policy)
	siteName := fmt.Sprintf("%s-%d", ref.Slug(), it.now().Unix())

	branch := ref.DefaultBranch
	if branch == "" {
		branch = "main"
	}
	publishPath := strings.TrimPrefix(ref.SitePath, "/")
	if publishPath == "" {
		publishPath = "."
	}

	body := map[string]interface{}{
		"type":       "static_site",
		"name":       siteName,
		"ownerId":    it.ownerID,
		"repo":       ref.URL,
		"branch":     branch,
		"autoDeploy": "no",
		"serviceDetails": map[string]string{
			"buildCommand": noopBuild,
			"publishPath":  publishPath,
		},
	}
	logger.Infof("Creating Render static site: %s", siteName)
	logger.Debugf("Render service configuration: %s", mustJSON(body))

	var created createServiceResponse
	if err := it.client.SendJSON(ctx, caller, httpapi.Request{
		Method:   http.MethodPost,
		Endpoint: "/services",
		JSON:     body,
		Accept:   []int{http.StatusOK, http.StatusCreated},
	}, &created); err != nil {
		return "", fmt.Errorf("failed to create Render site: %w", err)
	}

	svc := created.service
	if created.Service != nil {
		svc = *created.Service
	}
	if svc.ID == "" {
		return "", fmt.Errorf("%w: Render service response has no id", entities.ErrPermanentBackend)
	}
	siteURL := firstNonEmpty(svc.URL, svc.ServiceDetails.URL, fmt.Sprintf("https://%s.onrender.com", siteName))
	logger.Infof("Created Render site: %s", siteURL)

	caller.Reset()
	var hook deployHook
	if err := it.client.SendJSON(ctx, caller, httpapi.Request{
		Method:   http.MethodPost,
		Endpoint: "/services/" + svc.ID + "/deploy-hooks",
		JSON:     map[string]string{"name": "deploy-hook-" + uuid.NewString()},
		Accept:   []int{http.StatusOK, http.StatusCreated},
	}, &hook); err != nil {
		logger.Errorf("Failed to create deploy hook: %v", err)
		logger.Infof("Site was created but deployment failed. You may need to manually deploy at %s", siteURL)
		return siteURL, nil
	}
	if hook.URL == "" {
		logger.Error("Failed to get deploy hook URL")
		return siteURL, nil
	}

	logger.Infof("Triggering deploy hook for %s", svc.ID)
	caller.Reset()
	if _, _, err := it.client.Send(ctx, caller, httpapi.Request{
		Method:   http.MethodPost,
		Endpoint: hook.URL,
		NoAuth:   true,
		Accept:   []int{http.StatusOK, http.StatusCreated, http.StatusAccepted},
	}); err != nil {
		logger.Errorf("Failed to trigger deploy hook: %v", err)
		return siteURL, nil
	}

	logger.Infof("Successfully triggered deployment for %s; the build may take a few minutes", siteURL)
	return siteURL, nil
}

// resolveOwnerID takes the first owner listed for the token.
func (it *RenderBackendRepository) resolveOwnerID(ctx context.Context, caller *ratelimit.Caller) (string, error) {
	var owners []struct {
		ID    string `json:"id"`
		Owner struct {
			ID string `json:"id"`
		} `json:"owner"`
	}
	if err := it.client.SendJSON(ctx, caller, httpapi.Request{
		Method:   http.MethodGet,
		Endpoint: "/owners",
		Accept:   []int{http.StatusOK},
	}, &owners); err != nil {
		return "", err
	}
	for _, o := range owners {
		if id := firstNonEmpty(o.ID, o.Owner.ID); id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: no owners listed for this token", entities.ErrPermanentBackend)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func mustJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
