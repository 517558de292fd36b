package watchview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/zjrosen/procwatch/internal/presentation"
	"github.com/zjrosen/procwatch/internal/ui/statusicon"
	"github.com/zjrosen/procwatch/internal/ui/styles"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	inner := max(m.width-4, 10)
	row := func(label, value string) string {
		return " " + styles.LabelStyle.Render(styles.PadRight(label, 10)) +
			styles.ValueStyle.Render(styles.TruncateString(value, max(inner-11, 1)))
	}

	var rows []string
	if m.entry == nil {
		rows = append(rows, " "+styles.MutedStyle.Render("waiting for first status..."))
	} else {
		rows = append(rows, " "+statusicon.Render(m.entry.Status, m.frame))
		if m.entry.InstanceID != "" && m.entry.InstanceID != m.id {
			rows = append(rows, row("instance", string(m.entry.InstanceID)))
		}
	}
	rows = append(rows, row("updated", styles.FormatAge(m.updatedAt, m.now())))

	st := m.stats()
	rows = append(rows, row("polls", fmt.Sprintf("%d sent, %d applied, %d stale, %d failed", st.Requests, st.Applied, st.Stale, st.Errors)))

	if m.lastErr != nil {
		rows = append(rows, wrapped("error: "+m.lastErr.Error(), inner, styles.ErrorStyle)...)
	}

	switch {
	case m.confirming:
		rows = append(rows, "", " "+styles.WarningStyle.Render(fmt.Sprintf("Terminate %s? ", m.id))+m.help.ShortHelpView(m.keys.ConfirmHelp()))
	case m.terminating:
		rows = append(rows, "", " "+styles.MutedStyle.Render("terminating..."))
	case m.terminateErr != nil:
		rows = append(rows, "")
		rows = append(rows, wrapped("terminate failed: "+m.terminateErr.Error(), inner, styles.ErrorStyle)...)
	case m.terminated && !m.settled:
		rows = append(rows, "", " "+styles.MutedStyle.Render("termination requested, waiting for the server..."))
	}

	if m.showLogs {
		rows = append(rows, "", " "+styles.LabelStyle.Render("debug log"))
		if len(m.logLines) == 0 {
			rows = append(rows, " "+styles.MutedStyle.Render("(empty)"))
		}
		for _, line := range m.logLines {
			rows = append(rows, " "+styles.MutedStyle.Render(styles.TruncateString(line, inner)))
		}
	}

	var borderColor lipgloss.TerminalColor = styles.BorderDefaultColor
	if m.entry != nil {
		if d := presentation.Present(m.entry.Status); d.HasColor() {
			borderColor = styles.DescriptorColor(d.Color)
		}
	}

	var b strings.Builder
	b.WriteString(styles.RenderPanel(rows, string(m.id), m.hint(), m.width, borderColor))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	if !m.notice.visible() {
		return b.String()
	}
	b.WriteString("\n\n")
	return placeBottom(m.notice.render(), b.String(), m.width)
}

// maxWrappedRows caps how many rows one wrapped message may take.
const maxWrappedRows = 3

// wrapped word-wraps text to width and styles each resulting row.
func wrapped(text string, width int, style lipgloss.Style) []string {
	lines := strings.Split(wordwrap.String(text, width-1), "\n")
	if len(lines) > maxWrappedRows {
		lines = lines[:maxWrappedRows]
		lines[maxWrappedRows-1] = styles.TruncateString(lines[maxWrappedRows-1]+" ...", width-1)
	}
	rows := make([]string, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, " "+style.Render(styles.TruncateString(line, width-1)))
	}
	return rows
}

func (m Model) hint() string {
	switch {
	case m.settled:
		return "settled"
	case m.terminating:
		return "terminating"
	}
	return ""
}
