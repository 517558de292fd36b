package process

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrMissingStatus is returned when a status payload has no usable status field.
var ErrMissingStatus = errors.New("status field missing")

// Entry is the status payload returned by GET /api/v1/process/{id}.
// Only instanceId and status are interpreted; every other field the server
// sends is kept verbatim in Extra and written back out by MarshalJSON.
type Entry struct {
	InstanceID ID
	Status     Status
	Extra      map[string]json.RawMessage
}

const (
	fieldInstanceID = "instanceId"
	fieldStatus     = "status"
)

// UnmarshalJSON decodes a status payload. The body must be a JSON object whose
// status field is a string; anything else is an error.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding process entry: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("decoding process entry: %w", ErrMissingStatus)
	}

	rawStatus, ok := raw[fieldStatus]
	if !ok || string(rawStatus) == "null" {
		return ErrMissingStatus
	}
	var status string
	if err := json.Unmarshal(rawStatus, &status); err != nil {
		return fmt.Errorf("decoding status field: %w", err)
	}

	var instanceID string
	if rawID, ok := raw[fieldInstanceID]; ok && string(rawID) != "null" {
		if err := json.Unmarshal(rawID, &instanceID); err != nil {
			return fmt.Errorf("decoding instanceId field: %w", err)
		}
	}

	delete(raw, fieldStatus)
	delete(raw, fieldInstanceID)
	if len(raw) == 0 {
		raw = nil
	}

	*e = Entry{
		InstanceID: ID(instanceID),
		Status:     Status(status),
		Extra:      raw,
	}
	return nil
}

// MarshalJSON writes the entry back out including the opaque fields.
func (e Entry) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Extra)+2)
	for k, v := range e.Extra {
		out[k] = v
	}
	if e.InstanceID != "" {
		out[fieldInstanceID] = e.InstanceID
	}
	out[fieldStatus] = e.Status
	return json.Marshal(out)
}

// Field decodes one opaque server field into v.
// It reports false when the field is absent.
func (e Entry) Field(name string, v any) (bool, error) {
	raw, ok := e.Extra[name]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decoding field %q: %w", name, err)
	}
	return true, nil
}

// FieldNames lists the opaque field names in sorted order.
func (e Entry) FieldNames() []string {
	return slices.Sorted(maps.Keys(e.Extra))
}
