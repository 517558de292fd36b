package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"
)

func TestRenderPanel_Geometry(t *testing.T) {
	out := RenderPanel([]string{"status: RUNNING", "a much longer row that will not fit in the panel"}, "abc", "q quit", 30, BorderDefaultColor)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	for i, line := range lines {
		require.Equal(t, 30, lipgloss.Width(line), "line %d should span the full width", i)
	}
	require.Contains(t, lines[0], "abc")
	require.Contains(t, lines[0], "(q quit)")
	require.Contains(t, lines[3], "╰")
}

func TestRenderPanel_NoTitle(t *testing.T) {
	out := RenderPanel(nil, "", "", 10, BorderDefaultColor)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	require.Equal(t, 10, lipgloss.Width(lines[0]))
}

func TestRenderPanel_DropsHintWhenNarrow(t *testing.T) {
	out := RenderPanel(nil, "process", "press q to quit", 16, BorderDefaultColor)
	first := strings.Split(out, "\n")[0]
	require.NotContains(t, first, "press q")
	require.Equal(t, 16, lipgloss.Width(first))
}
