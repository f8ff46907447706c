package controllers

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
)

// RegisterProviders registers all controller providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	if err := container.Provide(NewRunController); err != nil {
		return err
	}
	if err := container.Provide(NewPlatformsController); err != nil {
		return err
	}
	return container.Provide(NewControllers)
}

// NewControllers aggregates the subcommand controllers for the AppInternal.
// The RunController backs the root command and is resolved on its own.
func NewControllers(platformsController *PlatformsController) *[]entities.Controller {
	return &[]entities.Controller{
		platformsController,
	}
}
