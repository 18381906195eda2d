package domain

// Status is the lifecycle status of a lead's follow-up record.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusReplied   Status = "replied"
	StatusConverted Status = "converted"
	StatusLost      Status = "lost"
)

var knownStatuses = map[Status]struct{}{
	StatusActive:    {},
	StatusPaused:    {},
	StatusReplied:   {},
	StatusConverted: {},
	StatusLost:      {},
}

// Known reports whether s is a recognized status.
func (s Status) Known() bool {
	_, ok := knownStatuses[s]
	return ok
}

// Schedulable reports whether a record in this status may still be scheduled.
// Only active and paused records carry a next-due timestamp.
func (s Status) Schedulable() bool {
	return s == StatusActive || s == StatusPaused
}

// Terminal reports whether s is a hard-terminal status requiring an explicit
// reactivation to leave.
func (s Status) Terminal() bool {
	return s == StatusConverted || s == StatusLost
}

// TerminalOverride validates a caller-supplied terminal status for reply
// outcomes. Only converted is a permitted override of the default replied.
func TerminalOverride(s Status) bool {
	return s == StatusConverted
}
