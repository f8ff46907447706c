package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/hostpipe/internal"
)

const (
	exitError     = 1
	exitInterrupt = 130
)

func buildRootCommand(appContext *internal.AppInternal) *cobra.Command {
	runController := appContext.GetRunController()
	bind := runController.GetBind()
	//nolint:exhaustruct // Minimal Command initialization with required fields only
	cmd := &cobra.Command{
		Use:          bind.Use,
		Short:        bind.Short,
		Long:         bind.Long,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(command *cobra.Command, args []string) error {
			return runController.Execute(command, args)
		},
	}

	cmd.PersistentFlags().StringP("config", "c", "",
		"Path to config file (default: auto-detect)")
	cmd.PersistentFlags().BoolP("verbose", "v", false,
		"Enable verbose output")
	runController.AddFlags(cmd)

	for _, controller := range appContext.GetControllers() {
		subBind := controller.GetBind()
		//nolint:exhaustruct // Minimal Command initialization with required fields only
		cmd.AddCommand(&cobra.Command{
			Use:   subBind.Use,
			Short: subBind.Short,
			Long:  subBind.Long,
			RunE:  controller.Execute,
		})
	}

	return cmd
}

func main() {
	//nolint:exhaustruct // Minimal TextFormatter initialization with required fields only
	logger.SetFormatter(&logger.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	if os.Getenv("DEBUG") == "true" {
		logger.SetLevel(logger.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := buildRootCommand(injectAppContext())
	if err := root.ExecuteContext(ctx); err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			logger.Warn("Interrupted, partial results were saved")
			stop()
			os.Exit(exitInterrupt)
		}
		logger.Errorf("Error executing 'hostpipe': %s", err)
		stop()
		os.Exit(exitError)
	}
}
