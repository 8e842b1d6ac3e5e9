// Package cmd implements the cronkeeper CLI using cobra.
package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/cronkeeper/internal/config"
	"github.com/crystaldolphin/cronkeeper/internal/dependency"
	"github.com/crystaldolphin/cronkeeper/internal/logging"
	"github.com/crystaldolphin/cronkeeper/internal/shared/cmdutils"
)

const version = "0.1.0"

var configPath string

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:           "cronkeeper",
	Short:         "cronkeeper manages scheduled commands in the cron table",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		cmdutils.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.cronkeeper/config.yaml)")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(initCmd)
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.ConfigPath()
}

// buildContainer loads the config, installs the logger and wires services.
func buildContainer() (*dependency.Container, error) {
	cfg, err := config.Load(resolvedConfigPath())
	if err != nil {
		return nil, err
	}
	log := logging.Setup(cfg.Log.Level)
	return dependency.New(cfg, log)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
