//go:build unit

package metrics_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/metrics"
)

func TestRecorder(t *testing.T) {
	t.Parallel()

	t.Run("should count repositories, attempts and retries", func(t *testing.T) {
		t.Parallel()

		// given
		recorder := metrics.NewRecorder()

		// when
		recorder.ObserveRepository(entities.StatusSuccess)
		recorder.ObserveRepository(entities.StatusSuccess)
		recorder.ObserveRepository(entities.StatusDeployFailed)
		recorder.ObserveAttempt(entities.DeploymentAttempt{Backend: "netlify", Kind: entities.OutcomeTransientFailure})
		recorder.ObserveAttempt(entities.DeploymentAttempt{Backend: "render", Kind: entities.OutcomeSuccess})
		recorder.ObserveRetry("netlify", 0, 5*time.Second)

		// then
		assert.InDelta(t, 2, testutil.ToFloat64(recorder.Repositories().WithLabelValues("Success")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(recorder.Repositories().WithLabelValues("Failed to deploy")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(
			recorder.Attempts().WithLabelValues("netlify", "transient_failure")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(recorder.Attempts().WithLabelValues("render", "success")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(recorder.Retries().WithLabelValues("netlify")), 0)
	})

	t.Run("should write a textfile with every metric family", func(t *testing.T) {
		t.Parallel()

		// given
		recorder := metrics.NewRecorder()
		recorder.ObserveRepository(entities.StatusSuccess)
		recorder.ObserveAttempt(entities.DeploymentAttempt{Backend: "netlify", Kind: entities.OutcomeSuccess})
		recorder.ObserveRetry("render", 1, time.Second)
		recorder.ObserveSummary(entities.Summary{SuccessCount: 1, TotalCount: 2}, time.Unix(1700000000, 0))
		path := filepath.Join(t.TempDir(), "hostpipe.prom")

		// when
		err := recorder.WriteTextfile(path)

		// then
		require.NoError(t, err)
		data, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		content := string(data)
		assert.Contains(t, content, `hostpipe_repositories_total{status="Success"} 1`)
		assert.Contains(t, content, `hostpipe_deploy_attempts_total{outcome="success",platform="netlify"} 1`)
		assert.Contains(t, content, `hostpipe_api_retries_total{label="render"} 1`)
		assert.Contains(t, content, "hostpipe_last_run_timestamp_seconds 1.7e+09")
		assert.Contains(t, content, "hostpipe_last_run_success_ratio 0.5")
	})

	t.Run("should fail when the textfile directory is missing", func(t *testing.T) {
		t.Parallel()

		// given
		recorder := metrics.NewRecorder()

		// when
		err := recorder.WriteTextfile(filepath.Join(t.TempDir(), "missing", "hostpipe.prom"))

		// then
		require.Error(t, err)
	})
}
