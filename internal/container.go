package internal

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/hostpipe/internal/domain/commands"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/controllers"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/metrics"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/repositories"
)

// RegisterProviders registers all internal providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register all layers (bottom-up: infrastructure -> domain commands -> controllers)
	if err := container.Provide(metrics.NewRecorder); err != nil {
		return err
	}
	if err := repositories.RegisterProviders(container); err != nil {
		return err
	}
	if err := commands.RegisterProviders(container); err != nil {
		return err
	}
	if err := controllers.RegisterProviders(container); err != nil {
		return err
	}

	return container.Provide(NewAppInternal)
}
