package controllers

import (
	"fmt"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/hostpipe/internal/domain/commands"
	"github.com/rios0rios0/hostpipe/internal/domain/entities"
)

const defaultOutput = "deployment_results.csv"

// RunController handles the root command: deploy every repository of an input file.
type RunController struct {
	command commands.Run
}

// NewRunController creates a new RunController.
func NewRunController(command commands.Run) *RunController {
	return &RunController{command: command}
}

// GetBind returns the Cobra command metadata for the run controller.
func (it *RunController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "hostpipe <input-file>",
		Short: "Deploy Git repositories to Netlify, Render or GitHub Pages",
		Long: `Read a list of Git repository URLs (one per line), clone each one,
find its static output and publish it to the first hosting platform that
accepts it. Outcomes are written to a CSV ledger after every repository,
so an interrupted run can be resumed.

Platforms are tried in the order given with --platforms. Credentials come
from the config file or from NETLIFY_TOKEN, RENDER_TOKEN, RENDER_OWNER_ID
and GITHUB_TOKEN.`,
	}
}

// Execute loads the settings, applies the flags and runs the batch.
func (it *RunController) Execute(cmd *cobra.Command, args []string) error {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logger.SetLevel(logger.DebugLevel)
	}
	if len(args) == 0 {
		return cmd.Help()
	}

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	resumeFrom, _ := cmd.Flags().GetString("resume-from")
	metricsFile, _ := cmd.Flags().GetString("metrics-file")

	logger.Infof("Deploying to platforms in order: %v", settings.Platforms)
	summary, runErr := it.command.Execute(cmd.Context(), settings, commands.RunOptions{
		InputPath:   args[0],
		OutputPath:  output,
		Platforms:   settings.Platforms,
		ResumeFrom:  resumeFrom,
		MetricsFile: metricsFile,
	})
	if runErr != nil {
		return fmt.Errorf("run failed: %w", runErr)
	}

	logger.Infof("Results saved to %s (%d/%d deployed, %d skipped)",
		output, summary.SuccessCount, summary.TotalCount, summary.Skipped)
	return nil
}

// AddFlags adds the run flags to the given Cobra command.
func (it *RunController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", defaultOutput, "Output CSV ledger")
	cmd.Flags().StringSliceP("platforms", "p", nil,
		"Platforms to try, in order: netlify, render, github (default netlify)")
	cmd.Flags().IntP("max-retries", "r", entities.DefaultMaxRetries, "Maximum retries per API call")
	cmd.Flags().IntP("delay", "d", entities.DefaultDelaySeconds, "Seconds to wait between repositories")
	cmd.Flags().IntP("max-size", "s", entities.DefaultMaxPackageMB, "Maximum package size in MB")
	cmd.Flags().StringP("resume-from", "f", "", "Repository URL to resume from")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this textfile at the end of the run")
}

// loadSettings reads the config file (explicit or auto-detected) and applies
// the flags the user actually set.
func loadSettings(cmd *cobra.Command) (*entities.Settings, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath == "" {
		if found, findErr := entities.FindConfigFile(); findErr == nil {
			cfgPath = found
		}
	}
	if cfgPath != "" {
		logger.Infof("Using config file: %s", cfgPath)
	}

	settings, err := entities.NewSettings(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var overrides entities.Overrides
	flags := cmd.Flags()
	if flags.Changed("platforms") {
		overrides.Platforms, _ = flags.GetStringSlice("platforms")
	}
	if flags.Changed("max-retries") {
		value, _ := flags.GetInt("max-retries")
		overrides.MaxRetries = &value
	}
	if flags.Changed("delay") {
		value, _ := flags.GetInt("delay")
		overrides.DelaySeconds = &value
	}
	if flags.Changed("max-size") {
		value, _ := flags.GetInt("max-size")
		overrides.MaxPackageMB = &value
	}

	return settings.WithOverrides(overrides)
}
