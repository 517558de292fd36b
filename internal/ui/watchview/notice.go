package watchview

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/procwatch/internal/ui/styles"
)

// noticeTTL is how long a notice stays on screen.
const noticeTTL = 3 * time.Second

// notice is a transient message drawn over the bottom of the view.
type notice struct {
	text  string
	color lipgloss.TerminalColor
	gen   int
}

// NoticeDismissMsg hides the notice with the same generation.
type NoticeDismissMsg struct {
	gen int
}

func (m Model) showNotice(text string, color lipgloss.TerminalColor) (Model, tea.Cmd) {
	gen := m.notice.gen + 1
	m.notice = notice{text: text, color: color, gen: gen}
	return m, tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return NoticeDismissMsg{gen: gen}
	})
}

func (n notice) visible() bool {
	return n.text != ""
}

func (n notice) render() string {
	return lipgloss.NewStyle().
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(n.color).
		Foreground(styles.TextPrimaryColor).
		Render(n.text)
}

// placeBottom draws fg centered over the last lines of bg, keeping the styled
// background visible on either side.
func placeBottom(fg, bg string, width int) string {
	fgLines := strings.Split(fg, "\n")
	bgLines := strings.Split(bg, "\n")
	for len(bgLines) < len(fgLines) {
		bgLines = append(bgLines, "")
	}

	x := max((width-lipgloss.Width(fg))/2, 0)
	top := len(bgLines) - len(fgLines)

	for i, line := range fgLines {
		bgLine := bgLines[top+i]

		left := ansi.Truncate(bgLine, x, "")
		if w := ansi.StringWidth(left); w < x {
			left += strings.Repeat(" ", x-w)
		}

		var right string
		if end := x + ansi.StringWidth(line); end < ansi.StringWidth(bgLine) {
			right = ansi.TruncateLeft(bgLine, end, "")
		}
		bgLines[top+i] = left + line + right
	}
	return strings.Join(bgLines, "\n")
}
