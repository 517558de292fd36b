package presentation

import (
	"encoding/json"
	"time"

	"github.com/zjrosen/procwatch/internal/process"
)

// StatusView is the JSON shape printed by `procwatch status --json`.
type StatusView struct {
	ID         string                     `json:"id"`
	Status     string                     `json:"status"`
	Label      string                     `json:"label"`
	Known      bool                       `json:"known"`
	Terminal   bool                       `json:"terminal"`
	Descriptor Descriptor                 `json:"descriptor"`
	Fields     map[string]json.RawMessage `json:"fields,omitempty"`
}

// FromEntry builds a view for the process id from a fetched entry.
// The id argument wins over the entry's own instanceId, which servers may omit.
func FromEntry(id process.ID, entry *process.Entry) StatusView {
	return StatusView{
		ID:         id.String(),
		Status:     string(entry.Status),
		Label:      Label(entry.Status),
		Known:      entry.Status.IsKnown(),
		Terminal:   entry.Status.IsTerminal(),
		Descriptor: Present(entry.Status),
		Fields:     entry.Extra,
	}
}

// TransitionView is one row of `procwatch history --json`.
type TransitionView struct {
	ProcessID  string     `json:"process_id"`
	Status     string     `json:"status"`
	Descriptor Descriptor `json:"descriptor"`
	ObservedAt time.Time  `json:"observed_at"`
}

// FromTransition builds a history row view.
func FromTransition(id process.ID, status process.Status, at time.Time) TransitionView {
	return TransitionView{
		ProcessID:  id.String(),
		Status:     string(status),
		Descriptor: Present(status),
		ObservedAt: at.UTC(),
	}
}
