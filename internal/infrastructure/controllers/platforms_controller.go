package controllers

import (
	"fmt"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/hostpipe/internal/domain/entities"
	"github.com/rios0rios0/hostpipe/internal/infrastructure/repositories"
)

// PlatformsController handles the "platforms" subcommand.
type PlatformsController struct {
	registry *repositories.BackendRegistry
}

func NewPlatformsController(registry *repositories.BackendRegistry) *PlatformsController {
	return &PlatformsController{registry: registry}
}

func (it *PlatformsController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "platforms",
		Short: "List the supported hosting platforms",
		Long:  `List every supported hosting platform and whether credentials for it are configured.`,
	}
}

// Execute prints one line per platform without calling any API.
func (it *PlatformsController) Execute(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	credentials := map[string]bool{
		entities.PlatformNetlify: settings.Netlify.Token != "",
		entities.PlatformRender:  settings.Render.Token != "",
		entities.PlatformGitHub:  settings.GitHub.Token != "",
	}
	selected := make(map[string]int, len(settings.Platforms))
	for i, name := range settings.Platforms {
		selected[name] = i + 1
	}

	for _, name := range it.registry.Names() {
		state := "missing credentials"
		if credentials[name] {
			state = "credentials configured"
		}
		order := "-"
		if position, ok := selected[name]; ok {
			order = fmt.Sprintf("#%d", position)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-8s %-4s %s\n", name, order, state)
	}
	logger.Debugf("Listed %d platforms", len(it.registry.Names()))
	return nil
}
