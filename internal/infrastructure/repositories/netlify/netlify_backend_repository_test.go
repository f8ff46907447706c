//go:build unit

package netlify_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/packager"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/ratelimit"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/repositories/netlify"
)

func fixedNow() time.Time { return time.Unix(1700000000, 0) }

func noWaitPolicy() ratelimit.Policy {
	policy := ratelimit.DefaultPolicy()
	policy.Sleep = func(context.Context, time.Duration) error { return nil }
	return policy
}

func siteDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>hello</h1>"), 0o600))
	return dir
}

func settingsFor(url string) *entities.Settings {
	settings := entities.DefaultSettings()
	settings.Netlify = entities.NetlifySettings{Token: "nf-token", APIURL: url}
	return settings
}

func TestNetlifyBackendRepository(t *testing.T) {
	t.Parallel()

	t.Run("should create a site, upload the zip and return the deploy URL", func(t *testing.T) {
		t.Parallel()

		// given
		var mu sync.Mutex
		var createdName string
		var uploaded []byte
		mux := http.NewServeMux()
		mux.HandleFunc("GET /sites", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		})
		mux.HandleFunc("POST /sites", func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			mu.Lock()
			createdName = string(body)
			mu.Unlock()
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"site-1","ssl_url":"https://my-repo.netlify.app"}`))
		})
		mux.HandleFunc("POST /sites/site-1/deploys", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/zip", r.Header.Get("Content-Type"))
			data, _ := io.ReadAll(r.Body)
			mu.Lock()
			uploaded = data
			mu.Unlock()
			_, _ = w.Write([]byte(`{"id":"d-1","deploy_ssl_url":"https://d-1--my-repo.netlify.app"}`))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		backend, err := netlify.NewBackendForTest(
			context.Background(), settingsFor(server.URL), noWaitPolicy(), packager.New(), fixedNow,
		)
		require.NoError(t, err)
		ref := entities.RepositoryReference{Owner: "me", Name: "My_Repo", URL: "https://github.com/me/My_Repo"}

		// when
		url, err := backend.Deploy(context.Background(), ref, siteDir(t))

		// then
		require.NoError(t, err)
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, "https://d-1--my-repo.netlify.app", url)
		assert.JSONEq(t, `{"name":"my-repo-1700000000"}`, createdName)
		assert.NotEmpty(t, uploaded)
		assert.Equal(t, "netlify", backend.Name())
	})

	t.Run("should fail when the upload is rejected", func(t *testing.T) {
		t.Parallel()

		// given
		mux := http.NewServeMux()
		mux.HandleFunc("GET /sites", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		})
		mux.HandleFunc("POST /sites", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"site-2","url":"http://x.netlify.app"}`))
		})
		mux.HandleFunc("POST /sites/site-2/deploys", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"bad zip"}`))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		backend, err := netlify.NewBackendForTest(
			context.Background(), settingsFor(server.URL), noWaitPolicy(), packager.New(), fixedNow,
		)
		require.NoError(t, err)

		// when
		url, err := backend.Deploy(context.Background(), entities.RepositoryReference{Name: "x"}, siteDir(t))

		// then
		require.ErrorIs(t, err, entities.ErrPermanentBackend)
		assert.Empty(t, url)
	})

	t.Run("should refuse to build without a token", func(t *testing.T) {
		t.Parallel()

		// given
		settings := settingsFor("http://127.0.0.1:1")
		settings.Netlify.Token = ""

		// when
		backend, err := netlify.NewBackendRepository(context.Background(), settings, noWaitPolicy())

		// then
		require.ErrorIs(t, err, entities.ErrConfiguration)
		assert.Nil(t, backend)
	})

	t.Run("should report an invalid token as a configuration error", func(t *testing.T) {
		t.Parallel()

		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		// when
		_, err := netlify.NewBackendRepository(context.Background(), settingsFor(server.URL), noWaitPolicy())

		// then
		require.ErrorIs(t, err, entities.ErrConfiguration)
		require.ErrorIs(t, err, entities.ErrUnauthorized)
	})
}
