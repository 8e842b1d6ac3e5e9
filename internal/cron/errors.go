package cron

const (
	// CodeInvalidArgument is returned by Remove when no filter is given.
	CodeInvalidArgument = "INVALID_ARGUMENT"
	// CodeInvalidCommand is returned by Add when the command cannot be stored
	// as a single table line that reads back unchanged.
	CodeInvalidCommand = "INVALID_COMMAND"
	// CodePersistFailed is returned when the table could not be written back.
	CodePersistFailed = "PERSIST_FAILED"
)
