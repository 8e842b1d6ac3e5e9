package crontab

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Table is the narrow view of a cron table used by the repository.
type Table interface {
	// Jobs returns the job lines in table order.
	Jobs() []*Job
	// Add appends a job.
	Add(job *Job)
	// Remove deletes the given jobs (matched by identity) and returns how many were removed.
	Remove(jobs ...*Job) int
	// Persist writes the table back to its store.
	Persist(ctx context.Context) error
}

var reEnvLine = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\s*=`)

type line struct {
	raw string
	job *Job
}

// Tab is a parsed cron table bound to the store it was read from.
type Tab struct {
	store Store
	lines []line
}

// Open reads and parses the table held by store.
func Open(ctx context.Context, store Store) (*Tab, error) {
	data, err := store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read crontab: %w", err)
	}
	return &Tab{store: store, lines: parse(data)}, nil
}

func parse(data []byte) []line {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}

	raw := strings.Split(text, "\n")
	lines := make([]line, 0, len(raw))
	for _, r := range raw {
		l := line{raw: r}
		if isJobCandidate(r) {
			if job, err := ParseJob(r); err == nil {
				l.job = job
			}
		}
		lines = append(lines, l)
	}
	return lines
}

func isJobCandidate(s string) bool {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return false
	case strings.HasPrefix(s, "#"), strings.HasPrefix(s, "@"):
		return false
	case reEnvLine.MatchString(s):
		return false
	}
	return true
}

func (t *Tab) Jobs() []*Job {
	var jobs []*Job
	for _, l := range t.lines {
		if l.job != nil {
			jobs = append(jobs, l.job)
		}
	}
	return jobs
}

func (t *Tab) Add(job *Job) {
	t.lines = append(t.lines, line{job: job})
}

func (t *Tab) Remove(jobs ...*Job) int {
	drop := make(map[*Job]struct{}, len(jobs))
	for _, j := range jobs {
		drop[j] = struct{}{}
	}

	removed := 0
	kept := t.lines[:0]
	for _, l := range t.lines {
		if l.job != nil {
			if _, ok := drop[l.job]; ok {
				removed++
				continue
			}
		}
		kept = append(kept, l)
	}
	t.lines = kept
	return removed
}

// Render returns the table text. Lines read from the store are written back
// untouched; added jobs are rendered with Job.Line.
func (t *Tab) Render() []byte {
	var buf bytes.Buffer
	for _, l := range t.lines {
		if l.raw != "" || l.job == nil {
			buf.WriteString(l.raw)
		} else {
			buf.WriteString(l.job.Line())
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func (t *Tab) Persist(ctx context.Context) error {
	return t.store.Write(ctx, t.Render())
}

// Loader opens a fresh Tab from Store on every call.
type Loader struct {
	Store Store
}

// NewLoader returns a Loader over store.
func NewLoader(store Store) *Loader {
	return &Loader{Store: store}
}

func (l *Loader) Load(ctx context.Context) (Table, error) {
	return Open(ctx, l.Store)
}
