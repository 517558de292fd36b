// Package statusicon draws a process status as a colored glyph and label.
package statusicon

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/procwatch/internal/presentation"
	"github.com/zjrosen/procwatch/internal/process"
	"github.com/zjrosen/procwatch/internal/ui/styles"
)

// SpinnerFrames are the braille frames used for animated icons.
var SpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// glyphs maps icon names to static glyphs.
var glyphs = map[string]string{
	presentation.IconInfo:          "ℹ",
	presentation.IconBlockLayout:   "▤",
	presentation.IconCircleNotched: "◌",
	presentation.IconWait:          "◷",
	presentation.IconCheck:         "✔",
	presentation.IconRemove:        "✘",
	presentation.IconQuestion:      "?",
}

// Glyph returns the glyph for d at the given animation frame. Static icons
// ignore frame; animated icons cycle through SpinnerFrames. Unknown icon
// names fall back to "?".
func Glyph(d presentation.Descriptor, frame int) string {
	if d.Animated {
		n := len(SpinnerFrames)
		return SpinnerFrames[((frame%n)+n)%n]
	}
	if g, ok := glyphs[d.IconName]; ok {
		return g
	}
	return glyphs[presentation.IconQuestion]
}

// Style returns the foreground style for d.
func Style(d presentation.Descriptor) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(styles.DescriptorColor(d.Color))
}

// Icon renders the colored glyph for status.
func Icon(status process.Status, frame int) string {
	d := presentation.Present(status)
	return Style(d).Render(Glyph(d, frame))
}

// Render renders the colored glyph followed by the status label, e.g.
// "✔ FINISHED". The label is the raw status so unknown values stay readable.
func Render(status process.Status, frame int) string {
	d := presentation.Present(status)
	return Style(d).Render(Glyph(d, frame) + " " + presentation.Label(status))
}

// Plain renders glyph and label without color, for non-terminal output.
func Plain(status process.Status, frame int) string {
	return Glyph(presentation.Present(status), frame) + " " + presentation.Label(status)
}
