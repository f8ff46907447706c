package internal

import (
	"github.com/rios0rios0/hostpipe/internal/domain/entities"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/controllers"
)

// AppInternal holds the controllers the CLI is built from.
type AppInternal struct {
	runController *controllers.RunController
	controllers   []entities.Controller
}

func NewAppInternal(
	runController *controllers.RunController,
	subcommands *[]entities.Controller,
) *AppInternal {
	return &AppInternal{runController: runController, controllers: *subcommands}
}

// GetRunController returns the controller behind the root command.
func (it *AppInternal) GetRunController() *controllers.RunController {
	return it.runController
}

// GetControllers returns the subcommand controllers.
func (it *AppInternal) GetControllers() []entities.Controller {
	return it.controllers
}
