package presentation

import (
	"encoding/json"
	"io"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatStatus writes a status view as indented JSON.
func (f *Formatter) FormatStatus(view StatusView) error {
	return f.encode(view)
}

// FormatHistory writes history rows as an indented JSON array.
func (f *Formatter) FormatHistory(rows []TransitionView) error {
	if rows == nil {
		rows = []TransitionView{}
	}
	return f.encode(rows)
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
