package commands

import (
	"go.uber.org/dig"
)

// RegisterProviders registers all command providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	if err := container.Provide(NewFallbackDeployer); err != nil {
		return err
	}
	if err := container.Provide(NewRunCommand); err != nil {
		return err
	}

	// Bind interfaces to implementations
	return container.Provide(func(impl *RunCommand) Run {
		return impl
	})
}
