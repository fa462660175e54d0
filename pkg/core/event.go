package core

import "time"

// State is the terminal outcome of an operation
type State string

const (
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Stream identifies which output of the process produced a line
type Stream string

const (
	StreamNone   Stream = ""
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// Result is attached to the last event of an operation
type Result struct {
	State    State
	ExitCode int
	Err      error
	Duration time.Duration
}

// Success reports whether the operation completed without error
func (r *Result) Success() bool {
	return r != nil && r.State == StateSucceeded
}

// Message returns a short human readable summary
func (r *Result) Message() string {
	switch {
	case r == nil:
		return ""
	case r.State == StateSucceeded:
		return "Success"
	case r.Err != nil:
		return "Error: " + r.Err.Error()
	default:
		return "Error: " + string(r.State)
	}
}

// Event is one unit of progress emitted while an operation runs
type Event struct {
	OperationID string
	Seq         int
	Time        time.Time
	Backend     BackendType
	Action      Action
	Package     string

	Status   string  // Human readable description of the current step
	Progress float64 // Percentage in [0,100], never decreases within an operation
	Line     string  // Raw output line that produced this event, if any
	Stream   Stream

	Done   bool    // Set on the final event only
	Result *Result // Non-nil on the final event only
}
