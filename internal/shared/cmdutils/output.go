package cmdutils

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"

	"github.com/crystaldolphin/cronkeeper/internal/crontab"
	"github.com/crystaldolphin/cronkeeper/internal/schedule"
	"github.com/crystaldolphin/cronkeeper/internal/shared/stringutils"
)

const maxCommandWidth = 48

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// EntryTable renders entries as a bordered table. Next Run is computed
// relative to now and left blank when the schedule cannot be evaluated.
func EntryTable(entries []crontab.ScheduleEntry, now time.Time) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		next := ""
		if t, err := schedule.Next(e.Schedule, now); err == nil {
			next = t.Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			e.Schedule,
			stringutils.Truncate(e.Command, maxCommandWidth),
			strconv.FormatBool(e.Managed),
			next,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("SCHEDULE", "COMMAND", "MANAGED", "NEXT RUN").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

// PrintEntries writes the entry table, or a short notice when there is nothing to show.
func PrintEntries(w io.Writer, entries []crontab.ScheduleEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No scheduled jobs.")
		return
	}
	fmt.Fprintln(w, EntryTable(entries, time.Now()))
}

// PrintSuccess writes a green, check-marked line.
func PrintSuccess(w io.Writer, format string, args ...any) {
	color.New(color.FgGreen).Fprintf(w, "✓ "+format+"\n", args...)
}

// PrintWarning writes a yellow line.
func PrintWarning(w io.Writer, format string, args ...any) {
	color.New(color.FgYellow).Fprintf(w, format+"\n", args...)
}

// PrintError writes err as a red "Error: ..." line.
func PrintError(w io.Writer, err error) {
	color.New(color.FgRed).Fprintf(w, "Error: %v\n", err)
}
