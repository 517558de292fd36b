package presentation

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/procwatch/internal/process"
)

func TestFormatter_FormatStatus(t *testing.T) {
	var entry process.Entry
	require.NoError(t, json.Unmarshal([]byte(`{"status":"RUNNING","projectName":"deploy"}`), &entry))

	var buf bytes.Buffer
	err := NewFormatter(&buf).FormatStatus(FromEntry("p-1", &entry))
	require.NoError(t, err)

	require.JSONEq(t, `{
		"id": "p-1",
		"status": "RUNNING",
		"label": "RUNNING",
		"known": true,
		"terminal": false,
		"descriptor": {"icon": "circle notched", "color": "blue", "animated": true},
		"fields": {"projectName": "deploy"}
	}`, buf.String())
}

func TestFormatter_FormatStatus_UnknownOmitsColor(t *testing.T) {
	entry := &process.Entry{Status: "WHATEVER"}

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf).FormatStatus(FromEntry("p-2", entry)))

	require.JSONEq(t, `{
		"id": "p-2",
		"status": "WHATEVER",
		"label": "WHATEVER",
		"known": false,
		"terminal": false,
		"descriptor": {"icon": "question", "animated": false}
	}`, buf.String())
}

func TestFormatter_FormatHistory(t *testing.T) {
	at := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

	var buf bytes.Buffer
	err := NewFormatter(&buf).FormatHistory([]TransitionView{
		FromTransition("p-1", process.StatusFinished, at),
	})
	require.NoError(t, err)

	require.JSONEq(t, `[{
		"process_id": "p-1",
		"status": "FINISHED",
		"descriptor": {"icon": "check", "color": "green", "animated": false},
		"observed_at": "2026-10-18T09:30:00Z"
	}]`, buf.String())
}

func TestFormatter_FormatHistory_EmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf).FormatHistory(nil))
	require.JSONEq(t, `[]`, buf.String())
}
