package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/ratelimit"
)

const (
	defaultTimeout = 60 * time.Second
	maxErrorBody   = 300
)

// Client is a bearer-token JSON API client for hosting providers.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Request describes one API call. Endpoint is joined to the base URL unless it
// is already absolute. JSON and Raw are mutually exclusive.
type Request struct {
	Method      string
	Endpoint    string
	JSON        interface{}
	Raw         []byte
	ContentType string
	Accept      []int // accepted statuses; empty means any 2xx
	NoAuth      bool
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Send performs the request through caller, so 429 and 5xx responses are
// retried under the caller's budget, and returns the body of an accepted
// response. Other statuses are classified with entities.ClassifyStatus.
func (c *Client) Send(ctx context.Context, caller *ratelimit.Caller, req Request) ([]byte, int, error) {
	resp, callErr := caller.Call(ctx, func(ctx context.Context) (*http.Response, error) {
		httpReq, err := c.newRequest(ctx, req)
		if err != nil {
			return nil, err
		}
		return c.httpClient.Do(httpReq)
	})
	if resp == nil {
		return nil, 0, fmt.Errorf("request failed: %w", callErr)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if !accepted(req.Accept, resp.StatusCode) {
		statusErr := entities.ClassifyStatus(resp.StatusCode, truncate(string(respBody)))
		if callErr != nil {
			return nil, resp.StatusCode, fmt.Errorf("%w: %w", callErr, statusErr)
		}
		return nil, resp.StatusCode, statusErr
	}

	return respBody, resp.StatusCode, nil
}

// SendJSON is Send followed by decoding the body into out.
func (c *Client) SendJSON(ctx context.Context, caller *ratelimit.Caller, req Request, out interface{}) error {
	body, _, err := c.Send(ctx, caller, req)
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: failed to parse response: %w", entities.ErrPermanentBackend, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	var reqBody io.Reader
	contentType := req.ContentType
	switch {
	case req.JSON != nil:
		jsonBody, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
		if contentType == "" {
			contentType = "application/json"
		}
	case req.Raw != nil:
		reqBody = bytes.NewReader(req.Raw)
	}

	url := req.Endpoint
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = c.baseURL + url
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if !req.NoAuth {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")

	return httpReq, nil
}

func accepted(accept []int, status int) bool {
	if len(accept) == 0 {
		return status >= 200 && status < 300
	}
	for _, s := range accept {
		if s == status {
			return true
		}
	}
	return false
}

func truncate(body string) string {
	body = strings.TrimSpace(body)
	if len(body) > maxErrorBody {
		return body[:maxErrorBody] + "..."
	}
	return body
}
