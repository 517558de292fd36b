// Package presentation turns process observations into presentation data:
// the status descriptor that drives an icon, and JSON views for CLI output.
package presentation

import "github.com/zjrosen/procwatch/internal/process"

// Icon names understood by renderers.
const (
	IconInfo          = "info"
	IconBlockLayout   = "block layout"
	IconCircleNotched = "circle notched"
	IconWait          = "wait"
	IconCheck         = "check"
	IconRemove        = "remove"
	IconQuestion      = "question"
)

// Color names understood by renderers. An empty Color means no color.
const (
	ColorBlue  = "blue"
	ColorGrey  = "grey"
	ColorGreen = "green"
	ColorRed   = "red"
)

// Descriptor describes how to draw a status. It is a plain value: two
// descriptors for the same status are equal.
type Descriptor struct {
	IconName string `json:"icon"`
	Color    string `json:"color,omitempty"`
	Animated bool   `json:"animated"`
}

// HasColor reports whether the descriptor asks for a color.
func (d Descriptor) HasColor() bool {
	return d.Color != ""
}

// Unknown is returned for any status outside the declared set.
var Unknown = Descriptor{IconName: IconQuestion}

// Present maps a status to its descriptor. It is total over every string:
// statuses the client does not know fall back to Unknown.
func Present(status process.Status) Descriptor {
	switch status {
	case process.StatusPreparing:
		return Descriptor{IconName: IconInfo, Color: ColorBlue}
	case process.StatusEnqueued:
		return Descriptor{IconName: IconBlockLayout, Color: ColorGrey}
	case process.StatusResuming:
		return Descriptor{IconName: IconCircleNotched, Color: ColorGrey, Animated: true}
	case process.StatusSuspended:
		return Descriptor{IconName: IconWait, Color: ColorBlue}
	case process.StatusStarting:
		return Descriptor{IconName: IconCircleNotched, Color: ColorGrey, Animated: true}
	case process.StatusRunning:
		return Descriptor{IconName: IconCircleNotched, Color: ColorBlue, Animated: true}
	case process.StatusFinished:
		return Descriptor{IconName: IconCheck, Color: ColorGreen}
	case process.StatusFailed:
		return Descriptor{IconName: IconRemove, Color: ColorRed}
	case process.StatusCancelled:
		return Descriptor{IconName: IconRemove, Color: ColorGrey}
	default:
		return Unknown
	}
}

// Label is the hover/tooltip text for a status: the raw value the server sent.
func Label(status process.Status) string {
	if status == "" {
		return "UNKNOWN"
	}
	return string(status)
}
