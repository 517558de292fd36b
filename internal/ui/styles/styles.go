// Package styles contains Lip Gloss style definitions.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/procwatch/internal/presentation"
)

var (
	// Semantic color names - Text hierarchy
	TextPrimaryColor     = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#CCCCCC"} // Main/primary text
	TextSecondaryColor   = lipgloss.AdaptiveColor{Light: "#777777", Dark: "#BBBBBB"} // Ids, field names
	TextMutedColor       = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"} // Hints, help text, footers
	TextDescriptionColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"} // Field values

	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"}

	// Semantic color names - Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	// Descriptor colors. Keys match presentation.Color values.
	DescriptorBlueColor  = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}
	DescriptorGreyColor  = lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#BBBBBB"}
	DescriptorGreenColor = StatusSuccessColor
	DescriptorRedColor   = StatusErrorColor

	LabelStyle = lipgloss.NewStyle().Foreground(TextSecondaryColor)
	ValueStyle = lipgloss.NewStyle().Foreground(TextPrimaryColor)
	MutedStyle = lipgloss.NewStyle().Foreground(TextMutedColor)

	DescriptionStyle = lipgloss.NewStyle().Foreground(TextDescriptionColor)

	// Error display
	ErrorStyle = lipgloss.NewStyle().
			Foreground(StatusErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().Foreground(StatusWarningColor)
)

// DescriptorColor maps a descriptor color name to a terminal color.
// Unknown or empty names render muted.
func DescriptorColor(name string) lipgloss.TerminalColor {
	switch name {
	case presentation.ColorBlue:
		return DescriptorBlueColor
	case presentation.ColorGrey, "gray":
		return DescriptorGreyColor
	case presentation.ColorGreen:
		return DescriptorGreenColor
	case presentation.ColorRed:
		return DescriptorRedColor
	default:
		return TextMutedColor
	}
}
