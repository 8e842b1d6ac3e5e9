package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/cronkeeper/internal/cron"
	"github.com/crystaldolphin/cronkeeper/internal/crontab"
	"github.com/crystaldolphin/cronkeeper/internal/shared/cmdutils"
)

// ---- list ------------------------------------------------------------------

var listAll bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled jobs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := buildContainer()
		if err != nil {
			return err
		}
		managedOnly := c.Config().ManagedOnly && !listAll
		entries, err := c.Repository().List(commandContext(cmd), managedOnly)
		if err != nil {
			return err
		}
		cmdutils.PrintEntries(cmd.OutOrStdout(), entries)
		return nil
	},
}

// ---- add -------------------------------------------------------------------

var addCmd = &cobra.Command{
	Use:   "add <expression> <command>",
	Short: "Schedule a command",
	Example: `  cronkeeper add "*/5 * * * *" "backup.sh --fast"
  cronkeeper add "every day at 5pm" "echo hi"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildContainer()
		if err != nil {
			return err
		}
		sched, err := c.Parser().Normalize(args[0])
		if err != nil {
			return err
		}
		entry := crontab.ScheduleEntry{Schedule: sched, Command: args[1]}
		if err := c.Repository().Add(commandContext(cmd), entry); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Scheduled: %s\n", entry.ToLine())
		return nil
	},
}

// ---- delete ----------------------------------------------------------------

var (
	deleteCommand   string
	deleteComment   string
	deletePreview   bool
	deleteNoPreview bool
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete jobs by command or marker comment",
	Long: `Delete jobs whose command equals --command or whose marker comment equals
--comment. Runs as a preview unless --no-preview is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := buildContainer()
		if err != nil {
			return err
		}
		req := cron.RemoveRequest{
			Command: deleteCommand,
			Marker:  deleteComment,
			Preview: deletePreview && !deleteNoPreview,
		}
		res, err := c.Repository().Remove(commandContext(cmd), req)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if req.Preview {
			fmt.Fprintf(out, "Preview: Found %d matching jobs:\n", res.Count)
		} else {
			fmt.Fprintf(out, "Deleted %d job(s)\n", res.Count)
		}
		for _, l := range res.Lines {
			fmt.Fprintf(out, " - %s\n", l)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Include entries not created by cronkeeper")

	deleteCmd.Flags().StringVar(&deleteCommand, "command", "", "Delete jobs running exactly this command")
	deleteCmd.Flags().StringVar(&deleteComment, "comment", "", "Delete jobs tagged with this comment")
	deleteCmd.Flags().BoolVar(&deletePreview, "preview", true, "Only show what would be deleted")
	deleteCmd.Flags().BoolVar(&deleteNoPreview, "no-preview", false, "Actually delete the matching jobs")
}
