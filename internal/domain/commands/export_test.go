package commands

import (
	"time"

	"github.com/rios0rios0/hostpipe/internal/infrastructure/ratelimit"
)

// SetSleep replaces the pause used between repositories and API retries.
func (it *RunCommand) SetSleep(sleep ratelimit.SleepFunc) { it.sleep = sleep }

// SetNow fixes the clock of the fallback deployer.
func (it *FallbackDeployer) SetNow(now func() time.Time) { it.now = now }

// FailureNotes exports failureNotes for testing.
var FailureNotes = failureNotes //nolint:gochecknoglobals // test export

// ResumeSlice exports resumeSlice for testing.
var ResumeSlice = resumeSlice //nolint:gochecknoglobals // test export

// SitePath exports sitePath for testing.
var SitePath = sitePath //nolint:gochecknoglobals // test export
