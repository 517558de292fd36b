package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Border characters (rounded)
const (
	borderTopLeft     = "╭"
	borderTopRight    = "╮"
	borderBottomLeft  = "╰"
	borderBottomRight = "╯"
	borderHorizontal  = "─"
	borderVertical    = "│"
)

// RenderPanel renders rows inside a rounded border with the title and an
// optional hint embedded in the top edge: ╭─ Title (hint) ────╮
// Rows wider than the panel are truncated.
func RenderPanel(rows []string, title, hint string, width int, borderColor lipgloss.TerminalColor) string {
	borderStyle := lipgloss.NewStyle().Foreground(borderColor)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(borderColor)
	hintStyle := lipgloss.NewStyle().Foreground(TextMutedColor)

	innerWidth := max(width-2, 1)

	var top string
	if title == "" || innerWidth < 4 {
		top = borderStyle.Render(borderTopLeft + strings.Repeat(borderHorizontal, innerWidth) + borderTopRight)
	} else {
		// "─ " before and " " after the title.
		title = TruncateString(title, innerWidth-3)
		used := lipgloss.Width(title) + 3
		top = borderStyle.Render(borderTopLeft+borderHorizontal+" ") + titleStyle.Render(title)
		if hint != "" && used+lipgloss.Width(hint)+3 <= innerWidth {
			top += " " + hintStyle.Render("("+hint+")")
			used += lipgloss.Width(hint) + 3
		}
		top += borderStyle.Render(" " + strings.Repeat(borderHorizontal, max(innerWidth-used, 0)) + borderTopRight)
	}

	lines := make([]string, 0, len(rows)+2)
	lines = append(lines, top)
	for _, row := range rows {
		if lipgloss.Width(row) > innerWidth {
			row = lipgloss.NewStyle().MaxWidth(innerWidth).Render(row)
		}
		pad := max(innerWidth-lipgloss.Width(row), 0)
		lines = append(lines, borderStyle.Render(borderVertical)+row+strings.Repeat(" ", pad)+borderStyle.Render(borderVertical))
	}
	lines = append(lines, borderStyle.Render(borderBottomLeft+strings.Repeat(borderHorizontal, innerWidth)+borderBottomRight))

	return strings.Join(lines, "\n")
}
