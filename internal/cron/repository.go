// Package cron manages cronkeeper's entries in the host cron table.
//
// Every operation loads the table afresh, applies its change and persists it
// before returning. Nothing serializes concurrent callers: two writers racing
// on the same table resolve as last-write-wins, and a List followed by a
// Remove may act on different snapshots.
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/code19m/errx"
	"github.com/samber/lo"

	"github.com/crystaldolphin/cronkeeper/internal/crontab"
)

// Loader opens the cron table.
type Loader interface {
	Load(ctx context.Context) (crontab.Table, error)
}

// RemoveRequest selects entries to remove. An entry matches when its command
// equals Command or its tag equals Marker; at least one must be set.
type RemoveRequest struct {
	Command string
	Marker  string
	// Preview computes the match set without touching the table.
	Preview bool
}

// RemoveResult describes the entries matched by a Remove call.
type RemoveResult struct {
	Count   int
	Matched []crontab.ScheduleEntry
	// Lines holds the matched jobs as table lines, in the same order as Matched.
	Lines []string
}

// Repository adds, lists and removes cron table entries.
type Repository struct {
	loader Loader
	log    *slog.Logger
}

// NewRepository creates a Repository. A nil logger uses slog.Default().
func NewRepository(loader Loader, log *slog.Logger) *Repository {
	if log == nil {
		log = slog.Default()
	}
	return &Repository{loader: loader, log: log}
}

// Add writes entry to the table, tagged with the cronkeeper marker.
func (r *Repository) Add(ctx context.Context, entry crontab.ScheduleEntry) error {
	entry.Managed = true
	if err := checkCommand(entry); err != nil {
		return err
	}

	tab, err := r.loader.Load(ctx)
	if err != nil {
		return err
	}

	tab.Add(crontab.NewJob(entry))

	if err := tab.Persist(ctx); err != nil {
		return persistFailed(err, "entry was not added")
	}

	r.log.Info("cron: added entry", "schedule", entry.Schedule, "command", entry.Command)
	return nil
}

// List returns the table entries in table order. When managedOnly is set,
// entries without the marker are skipped.
func (r *Repository) List(ctx context.Context, managedOnly bool) ([]crontab.ScheduleEntry, error) {
	tab, err := r.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	var out []crontab.ScheduleEntry
	for _, j := range tab.Jobs() {
		if managedOnly && !j.Managed() {
			continue
		}
		out = append(out, j.Entry())
	}
	return out, nil
}

// Remove deletes every entry matching req, or only reports them when
// req.Preview is set.
func (r *Repository) Remove(ctx context.Context, req RemoveRequest) (RemoveResult, error) {
	if req.Command == "" && req.Marker == "" {
		return RemoveResult{}, errx.New(
			"must provide either a command or a comment filter",
			errx.WithCode(CodeInvalidArgument),
			errx.WithType(errx.T_Validation),
		)
	}

	tab, err := r.loader.Load(ctx)
	if err != nil {
		return RemoveResult{}, err
	}

	matched := lo.Filter(tab.Jobs(), func(j *crontab.Job, _ int) bool {
		return (req.Command != "" && j.Command == req.Command) || (req.Marker != "" && j.Tag == req.Marker)
	})

	res := RemoveResult{Count: len(matched)}
	if len(matched) > 0 {
		res.Matched = lo.Map(matched, func(j *crontab.Job, _ int) crontab.ScheduleEntry { return j.Entry() })
		res.Lines = lo.Map(matched, func(j *crontab.Job, _ int) string { return j.Line() })
	}

	if req.Preview || len(matched) == 0 {
		return res, nil
	}

	removed := tab.Remove(matched...)
	if err := tab.Persist(ctx); err != nil {
		return RemoveResult{}, persistFailed(err,
			fmt.Sprintf("%d matched entries were dropped in memory but the table on disk may be inconsistent", removed))
	}

	res.Count = removed
	r.log.Info("cron: removed entries", "count", removed, "command", req.Command, "comment", req.Marker)
	return res, nil
}

// checkCommand rejects entries whose table line would not read back as the
// same entry: multi-line commands would inject extra jobs, and commands the
// line parser cannot tokenize would become invisible to List and Remove.
func checkCommand(entry crontab.ScheduleEntry) error {
	switch {
	case strings.ContainsAny(entry.Command, "\r\n"):
		return invalidCommand(entry.Command, "must be a single line")
	case strings.TrimSpace(entry.Command) == "":
		return invalidCommand(entry.Command, "must not be blank")
	}

	got, err := crontab.FromLine(entry.Render())
	if err != nil || got.Command != entry.Command || got.Managed != entry.Managed {
		return invalidCommand(entry.Command, "would not read back unchanged (check quoting and surrounding spaces)")
	}
	return nil
}

func invalidCommand(command, reason string) error {
	return errx.New(
		fmt.Sprintf("invalid command %q: %s", command, reason),
		errx.WithCode(CodeInvalidCommand),
		errx.WithType(errx.T_Validation),
	)
}

func persistFailed(err error, detail string) error {
	return errx.Wrap(fmt.Errorf("persist crontab: %s: %w", detail, err),
		errx.WithCode(CodePersistFailed),
		errx.WithType(errx.T_Internal),
	)
}
