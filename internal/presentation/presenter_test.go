package presentation

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/procwatch/internal/process"
)

func TestPresent_DeclaredStatuses(t *testing.T) {
	tests := []struct {
		status process.Status
		want   Descriptor
	}{
		{process.StatusPreparing, Descriptor{IconName: "info", Color: "blue"}},
		{process.StatusEnqueued, Descriptor{IconName: "block layout", Color: "grey"}},
		{process.StatusResuming, Descriptor{IconName: "circle notched", Color: "grey", Animated: true}},
		{process.StatusSuspended, Descriptor{IconName: "wait", Color: "blue"}},
		{process.StatusStarting, Descriptor{IconName: "circle notched", Color: "grey", Animated: true}},
		{process.StatusRunning, Descriptor{IconName: "circle notched", Color: "blue", Animated: true}},
		{process.StatusFinished, Descriptor{IconName: "check", Color: "green"}},
		{process.StatusFailed, Descriptor{IconName: "remove", Color: "red"}},
		{process.StatusCancelled, Descriptor{IconName: "remove", Color: "grey"}},
	}

	require.Len(t, tests, len(process.Statuses()), "every declared status needs a case")

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			require.Equal(t, tt.want, Present(tt.status))
		})
	}
}

func TestPresent_UnknownStatusFallsBack(t *testing.T) {
	for _, status := range []process.Status{"UNKNOWN_FUTURE_STATE", "running", "", " RUNNING"} {
		got := Present(status)
		require.Equal(t, Descriptor{IconName: "question"}, got, "status %q", status)
		require.False(t, got.HasColor())
		require.False(t, got.Animated)
	}
}

func TestPresent_IsDeterministic(t *testing.T) {
	for _, status := range process.Statuses() {
		require.Equal(t, Present(status), Present(status))
	}
}

func TestProperty_PresentIsTotal(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		status := process.Status(rapid.String().Draw(rt, "status"))

		var got Descriptor
		require.NotPanics(rt, func() { got = Present(status) })
		require.NotEmpty(rt, got.IconName)

		if !status.IsKnown() {
			require.Equal(rt, Unknown, got)
		} else {
			require.NotEqual(rt, IconQuestion, got.IconName)
		}
	})
}

func TestProperty_OnlyActiveStatusesAnimate(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		status := rapid.SampledFrom(process.Statuses()).Draw(rt, "status")
		if Present(status).Animated {
			require.True(rt, status.IsActive(), "terminal status %s must not animate", status)
		}
	})
}

func TestLabel(t *testing.T) {
	require.Equal(t, "RUNNING", Label(process.StatusRunning))
	require.Equal(t, "SOMETHING_NEW", Label("SOMETHING_NEW"))
	require.Equal(t, "UNKNOWN", Label(""))
}
