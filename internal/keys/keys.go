// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// WatchKeyMap defines the keybindings for the watch view.
type WatchKeyMap struct {
	Terminate key.Binding
	Confirm   key.Binding
	Cancel    key.Binding
	Logs      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// Watch holds the default watch view bindings.
var Watch = DefaultWatchKeyMap()

// DefaultWatchKeyMap returns the default watch view bindings.
func DefaultWatchKeyMap() WatchKeyMap {
	return WatchKeyMap{
		Terminate: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "terminate"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n/esc", "cancel"),
		),
		Logs: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "debug log"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns keybindings for the short help view.
func (k WatchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Terminate, k.Help, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k WatchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Terminate, k.Confirm, k.Cancel},
		{k.Logs, k.Help, k.Quit},
	}
}

// ConfirmHelp returns the bindings shown while a confirmation is pending.
func (k WatchKeyMap) ConfirmHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}
