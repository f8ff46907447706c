package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
)

const namespace = "hostpipe"

// Recorder counts batch outcomes on a private Prometheus registry and dumps
// them in the node-exporter textfile format at the end of a run.
type Recorder struct {
	registry     *prometheus.Registry
	repositories *prometheus.CounterVec
	attempts     *prometheus.CounterVec
	retries      *prometheus.CounterVec
	lastRun      prometheus.Gauge
	lastSuccess  prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		repositories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repositories_total",
			Help:      "Repositories processed, by final ledger status.",
		}, []string{"status"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deploy_attempts_total",
			Help:      "Backend deploy attempts, by platform and outcome.",
		}, []string{"platform", "outcome"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_retries_total",
			Help:      "Rate-limited or failed API calls retried, by caller label.",
		}, []string{"label"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last batch finished.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success_ratio",
			Help:      "Share of the working list hosted successfully in the last batch.",
		}),
	}
	r.registry.MustRegister(r.repositories, r.attempts, r.retries, r.lastRun, r.lastSuccess)
	return r
}

// Registry exposes the underlying registry, e.g. for gathering in tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) ObserveRepository(status entities.LedgerStatus) {
	r.repositories.WithLabelValues(string(status)).Inc()
}

func (r *Recorder) ObserveAttempt(attempt entities.DeploymentAttempt) {
	r.attempts.WithLabelValues(attempt.Backend, string(attempt.Kind)).Inc()
}

// ObserveRetry matches the ratelimit.Policy OnRetry hook.
func (r *Recorder) ObserveRetry(label string, _ int, _ time.Duration) {
	r.retries.WithLabelValues(label).Inc()
}

// ObserveSummary records when the batch ended and how it went.
func (r *Recorder) ObserveSummary(summary entities.Summary, finishedAt time.Time) {
	r.lastRun.Set(float64(finishedAt.Unix()))
	if summary.TotalCount > 0 {
		r.lastSuccess.Set(float64(summary.SuccessCount) / float64(summary.TotalCount))
	}
}

// WriteTextfile atomically writes every metric to path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %q: %w", path, err)
	}
	return nil
}
