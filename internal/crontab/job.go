package crontab

// Job is a job line of a cron table.
type Job struct {
	Schedule string
	Command  string
	// Tag is the trailing comment, without the leading "# ".
	Tag string
}

// NewJob builds a job from e. Managed entries are tagged with Marker.
func NewJob(e ScheduleEntry) *Job {
	j := &Job{Schedule: e.Schedule, Command: e.Command}
	if e.Managed {
		j.Tag = Marker
	}
	return j
}

// Managed reports whether the job carries Marker.
func (j *Job) Managed() bool { return j.Tag == Marker }

// Entry converts the job to its public representation.
func (j *Job) Entry() ScheduleEntry {
	return ScheduleEntry{Schedule: j.Schedule, Command: j.Command, Managed: j.Managed()}
}

// Line renders the job as a table line.
func (j *Job) Line() string {
	s := j.Schedule + " " + j.Command
	if j.Tag != "" {
		s += tagSep + j.Tag
	}
	return s
}

func (j *Job) String() string { return j.Line() }
