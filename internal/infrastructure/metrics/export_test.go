package metrics

import "github.com/prometheus/client_golang/prometheus"

// Repositories exposes the repositories counter for testing.
func (r *Recorder) Repositories() *prometheus.CounterVec { return r.repositories }

// Attempts exposes the deploy attempts counter for testing.
func (r *Recorder) Attempts() *prometheus.CounterVec { return r.attempts }

// Retries exposes the retries counter for testing.
func (r *Recorder) Retries() *prometheus.CounterVec { return r.retries }
