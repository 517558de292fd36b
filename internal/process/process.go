// Package process defines the client-side view of a remote process: its opaque
// identifier, the closed set of lifecycle statuses the server reports, and the
// status payload returned by the process resource.
package process

import (
	"github.com/google/uuid"
)

// ID is an opaque handle for a remote process instance.
// The client never interprets it beyond escaping it into a URL path segment.
type ID string

// String returns the string representation of the ID.
func (id ID) String() string {
	return string(id)
}

// IsUUID reports whether the ID happens to be a UUID, which is what current
// servers hand out. Purely informational; non-UUID ids are still sent as-is.
func (id ID) IsUUID() bool {
	if id == "" {
		return false
	}
	_, err := uuid.Parse(string(id))
	return err == nil
}

// Status is the lifecycle phase reported by the server.
// Values outside the declared set are legal: the server may introduce new
// statuses before the client learns about them.
type Status string

const (
	StatusPreparing Status = "PREPARING"
	StatusEnqueued  Status = "ENQUEUED"
	StatusResuming  Status = "RESUMING"
	StatusSuspended Status = "SUSPENDED"
	StatusStarting  Status = "STARTING"
	StatusRunning   Status = "RUNNING"
	StatusFinished  Status = "FINISHED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Statuses returns every declared status in lifecycle order.
func Statuses() []Status {
	return []Status{
		StatusPreparing,
		StatusEnqueued,
		StatusResuming,
		StatusSuspended,
		StatusStarting,
		StatusRunning,
		StatusFinished,
		StatusFailed,
		StatusCancelled,
	}
}

// TerminalStatuses returns the statuses after which a process never changes.
func TerminalStatuses() []Status {
	return []Status{StatusFinished, StatusFailed, StatusCancelled}
}

// String returns the string representation of the Status.
func (s Status) String() string {
	return string(s)
}

// IsKnown reports whether s is one of the declared statuses.
func (s Status) IsKnown() bool {
	switch s {
	case StatusPreparing, StatusEnqueued, StatusResuming, StatusSuspended,
		StatusStarting, StatusRunning, StatusFinished, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether s is FINISHED, FAILED or CANCELLED.
// Unknown statuses are not terminal.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusFinished, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsActive reports whether the process is queued, executing or paused.
func (s Status) IsActive() bool {
	return s.IsKnown() && !s.IsTerminal()
}
