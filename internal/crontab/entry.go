// Package crontab reads and writes cron tables.
//
// A table is a list of lines. Job lines ("<5 fields> <command> [# tag]") are
// exposed as *Job values; everything else (comments, blank lines, environment
// assignments, @reboot style entries) is kept verbatim so that rewriting the
// table never loses content owned by someone else.
package crontab

import (
	"fmt"
	"strings"

	"github.com/code19m/errx"
	shellquote "github.com/kballard/go-shellquote"
)

// CodeInvalidLine is returned when a line cannot be read as a job.
const CodeInvalidLine = "INVALID_LINE"

// Marker is the tag cronkeeper attaches to the jobs it owns.
const Marker = "cronkeeper"

// MarkerComment is how Marker is rendered at the end of a job line.
const MarkerComment = "# " + Marker

const tagSep = " # "

// ScheduleEntry is one scheduled command.
type ScheduleEntry struct {
	Schedule string `json:"schedule"`
	Command  string `json:"command"`
	Managed  bool   `json:"managed"`
}

// ToLine returns "<schedule> <command>". The marker is not included.
func (e ScheduleEntry) ToLine() string {
	return e.Schedule + " " + e.Command
}

// Render returns the table line for e, including the marker when e is managed.
func (e ScheduleEntry) Render() string {
	if e.Managed {
		return e.ToLine() + " " + MarkerComment
	}
	return e.ToLine()
}

// FromLine parses a table line into an entry.
func FromLine(line string) (ScheduleEntry, error) {
	job, err := ParseJob(line)
	if err != nil {
		return ScheduleEntry{}, err
	}
	return job.Entry(), nil
}

// ParseJob parses a job line. The line is split with shell quoting rules and
// must yield at least six words; the command keeps its original quoting.
func ParseJob(line string) (*Job, error) {
	body, tag := splitTag(strings.TrimSpace(line))

	words, err := shellquote.Split(body)
	if err != nil {
		return nil, invalidLine(line, err.Error())
	}
	if len(words) < 6 {
		return nil, invalidLine(line, fmt.Sprintf("expected at least 6 fields, got %d", len(words)))
	}
	for _, w := range words[:5] {
		if w == "" || strings.ContainsAny(w, " \t") {
			return nil, invalidLine(line, "malformed schedule field")
		}
	}

	command := skipFields(body, 5)
	if command == "" {
		return nil, invalidLine(line, "empty command")
	}

	return &Job{
		Schedule: strings.Join(words[:5], " "),
		Command:  command,
		Tag:      tag,
	}, nil
}

// splitTag cuts a trailing " # tag" off s. A split that would leave the body
// with unbalanced quotes is not a tag but part of the command.
func splitTag(s string) (body, tag string) {
	i := strings.LastIndex(s, tagSep)
	if i < 0 {
		return s, ""
	}
	body = strings.TrimSpace(s[:i])
	if _, err := shellquote.Split(body); err != nil {
		return s, ""
	}
	return body, strings.TrimSpace(s[i+len(tagSep):])
}

// skipFields drops the first n whitespace separated fields of s.
func skipFields(s string, n int) string {
	rest := s
	for i := 0; i < n; i++ {
		rest = strings.TrimLeft(rest, " \t")
		j := strings.IndexAny(rest, " \t")
		if j < 0 {
			return ""
		}
		rest = rest[j:]
	}
	return strings.TrimSpace(rest)
}

func invalidLine(line, reason string) error {
	return errx.New(
		fmt.Sprintf("invalid crontab line %q: %s", line, reason),
		errx.WithCode(CodeInvalidLine),
		errx.WithType(errx.T_Validation),
	)
}
