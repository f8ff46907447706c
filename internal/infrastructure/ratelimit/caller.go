package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	logger "github.com/sirupsen/logrus"
)

// ErrRetriesExhausted is returned when the last response was still retryable
// but the retry budget is spent.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Operation performs exactly one network call.
type Operation func(ctx context.Context) (*http.Response, error)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy configures the retry behavior shared by every caller of a backend.
type Policy struct {
	MaxRetries int
	Delays     []time.Duration
	Sleep      SleepFunc
	OnRetry    func(label string, attempt int, delay time.Duration)
}

// DefaultPolicy is 3 retries over 5s, 10s, 20s, 40s, 60s.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		Delays: []time.Duration{
			5 * time.Second, 10 * time.Second, 20 * time.Second, 40 * time.Second, 60 * time.Second,
		},
	}
}

// Caller retries an operation on HTTP 429 and 5xx responses. Its attempt
// counter spans every Call until Reset, so one caller covers one logical
// sequence of requests.
type Caller struct {
	label   string
	policy  Policy
	attempt int
}

// NewCaller creates a caller for the given backend label.
func NewCaller(label string, policy Policy) *Caller {
	if policy.Sleep == nil {
		policy.Sleep = ContextSleep
	}
	return &Caller{label: label, policy: policy}
}

// Attempt is the number of retries performed since the last Reset.
func (it *Caller) Attempt() int { return it.attempt }

// Reset clears the retry counter before an independent call sequence.
func (it *Caller) Reset() { it.attempt = 0 }

// Call runs op, waiting and retrying while it returns a retryable status and
// the budget allows. Transport errors are returned immediately. When the budget
// runs out on a retryable status, the last response is returned together with
// an error wrapping ErrRetriesExhausted; its body is still readable.
func (it *Caller) Call(ctx context.Context, op Operation) (*http.Response, error) {
	for {
		resp, err := op(ctx)
		if err != nil {
			return resp, err
		}
		if !Retryable(resp.StatusCode) {
			return resp, nil
		}
		if it.attempt >= it.policy.MaxRetries {
			return resp, fmt.Errorf(
				"%w for %s after %d retries (status %d)",
				ErrRetriesExhausted, it.label, it.attempt, resp.StatusCode,
			)
		}

		drain(resp)
		delay := it.delay()
		logger.Infof("Rate limit hit for %s (status %d), waiting %s before retry...",
			it.label, resp.StatusCode, delay)
		if it.policy.OnRetry != nil {
			it.policy.OnRetry(it.label, it.attempt+1, delay)
		}
		if sleepErr := it.policy.Sleep(ctx, delay); sleepErr != nil {
			return nil, sleepErr
		}
		it.attempt++
	}
}

// delay picks the schedule entry for the current attempt; the last entry repeats.
func (it *Caller) delay() time.Duration {
	delays := it.policy.Delays
	if len(delays) == 0 {
		return 0
	}
	if it.attempt >= len(delays) {
		return delays[len(delays)-1]
	}
	return delays[it.attempt]
}

// Retryable reports whether a status is rate limiting or a server error.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// ContextSleep waits for d unless ctx is cancelled first.
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
