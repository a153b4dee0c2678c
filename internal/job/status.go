package job

import "fmt"

// Status represents the current lifecycle state of a Job.
//
// The state machine is:
//
//	pending    -> processing
//	processing -> completed
//	processing -> failed      (retry remaining)
//	processing -> dead        (retries exhausted)
//	failed     -> processing  (once next_retry_at elapses)
//	dead       -> pending     (only via an explicit DLQ retry)
type Status string

const (
	// Pending indicates the job is eligible for immediate acquisition.
	Pending Status = "pending"

	// Processing indicates the job is currently held by a worker.
	// LockedBy and LockedAt are set while a job is Processing.
	Processing Status = "processing"

	// Completed indicates the command exited zero. Terminal.
	Completed Status = "completed"

	// Failed indicates a non-success outcome with retries remaining.
	// NextRetryAt gates when the job becomes eligible again.
	Failed Status = "failed"

	// Dead indicates retries are exhausted. Terminal until an explicit
	// DLQ retry moves the job back to Pending.
	Dead Status = "dead"
)

func statusToString(status Status) string {
	return string(status)
}

func statusFromString(s string) (Status, error) {
	switch Status(s) {
	case Pending, Processing, Completed, Failed, Dead:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown job state: %s", s)
	}
}

// ParseStatus converts a string representation of a state into a Status
// value. Recognized values are "pending", "processing", "completed",
// "failed", and "dead". An error is returned for anything else.
func ParseStatus(s string) (Status, error) {
	return statusFromString(s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(statusToString(s)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	status, err := statusFromString(string(text))
	if err != nil {
		return err
	}
	*s = status
	return nil
}

// String returns the canonical string representation of the status.
func (s Status) String() string {
	return statusToString(s)
}

// AllStates lists every defined state, in a stable order, for use by
// operations such as counts_by_state that must report a zero entry for
// states with no matching jobs.
func AllStates() []Status {
	return []Status{Pending, Processing, Completed, Failed, Dead}
}
