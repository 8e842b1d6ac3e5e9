package cmd

import (
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/crystaldolphin/cronkeeper/internal/config"
	"github.com/crystaldolphin/cronkeeper/internal/crontab"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cronkeeper status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	cfgPath := resolvedConfigPath()

	fmt.Fprint(out, "cronkeeper Status\n\n")

	cfgMark := "✗"
	if _, err := os.Stat(cfgPath); err == nil {
		cfgMark = "✓"
	}
	fmt.Fprintf(out, "Config:    %s %s\n", cfgPath, cfgMark)

	c, err := buildContainer()
	if err != nil {
		fmt.Fprintf(out, "  (could not load config: %v)\n", err)
		return nil
	}
	cfg := c.Config()

	table := cfg.Table.Backend
	switch cfg.Table.Backend {
	case config.BackendFile:
		table += " " + cfg.Table.Path
	case config.BackendUser:
		if cfg.Table.User != "" {
			table += " " + cfg.Table.User
		}
	}
	fmt.Fprintf(out, "Table:     %s\n", table)
	fmt.Fprintf(out, "API:       http://%s (transport %s)\n", cfg.HTTP.Addr(), cfg.Transport)

	entries, err := c.Repository().List(commandContext(cmd), false)
	if err != nil {
		fmt.Fprintf(out, "  (could not read table: %v)\n", err)
		return nil
	}
	managed := lo.CountBy(entries, func(e crontab.ScheduleEntry) bool { return e.Managed })
	fmt.Fprintf(out, "Jobs:      %d managed, %d unmanaged\n", managed, len(entries)-managed)
	return nil
}
