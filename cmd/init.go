package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/cronkeeper/internal/config"
	"github.com/crystaldolphin/cronkeeper/internal/shared/cmdutils"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default cronkeeper config file",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	cfgPath := resolvedConfigPath()

	if _, err := os.Stat(cfgPath); err == nil && !initForce {
		cmdutils.PrintWarning(out, "Config already exists at %s (use --force to overwrite)", cfgPath)
		return nil
	}

	cfg := config.DefaultConfig()
	if err := config.Save(&cfg, cfgPath); err != nil {
		return err
	}
	cmdutils.PrintSuccess(out, "Created config at %s", cfgPath)
	return nil
}
