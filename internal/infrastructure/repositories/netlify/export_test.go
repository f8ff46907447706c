package netlify

import (
	"context"
	"time"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/ratelimit"
)

// NewBackendForTest exposes newBackend with an injectable builder and clock.
func NewBackendForTest(
	ctx context.Context,
	settings *entities.Settings,
	policy ratelimit.Policy,
	builder ArtifactBuilder,
	now func() time.Time,
) (*NetlifyBackendRepository, error) {
	return newBackend(ctx, settings, policy, builder, now)
}
