// Package watchview is the interactive bubbletea view behind `procwatch watch`.
// It follows poller snapshots for one process and can terminate it.
package watchview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/procwatch/internal/keys"
	"github.com/zjrosen/procwatch/internal/log"
	"github.com/zjrosen/procwatch/internal/poller"
	"github.com/zjrosen/procwatch/internal/presentation"
	"github.com/zjrosen/procwatch/internal/process"
	"github.com/zjrosen/procwatch/internal/pubsub"
	"github.com/zjrosen/procwatch/internal/ui/styles"
)

// Terminator is the part of the api client used to stop the process.
type Terminator interface {
	Terminate(ctx context.Context, id process.ID) (bool, error)
}

// maxLogLines bounds the debug log pane.
const maxLogLines = 8

// SpinnerTickMsg advances the spinner frame.
type SpinnerTickMsg struct{}

// TerminateResultMsg carries the outcome of a terminate request.
type TerminateResultMsg struct {
	OK  bool
	Err error
}

// Config wires the model.
type Config struct {
	ID         process.ID
	Events     pubsub.Subscriber[poller.Snapshot]
	Stats      func() poller.Stats
	Terminator Terminator

	// ExitOnSettle quits once a terminal status is observed.
	ExitOnSettle bool

	Now func() time.Time
}

// Model is the watch view state.
type Model struct {
	ctx      context.Context
	id       process.ID
	listener *pubsub.ContinuousListener[poller.Snapshot]
	logs     *log.LogListener
	stats    func() poller.Stats
	term     Terminator
	now      func() time.Time

	keys keys.WatchKeyMap
	help help.Model

	width int

	entry     *process.Entry
	lastErr   error
	updatedAt time.Time
	seq       uint64

	frame    int
	spinning bool

	settled      bool
	exitOnSettle bool

	confirming   bool
	terminating  bool
	terminated   bool
	terminateErr error

	notice notice

	logLines []string
	showLogs bool

	quitting bool
}

// New creates the model. The subscription lives as long as ctx.
func New(ctx context.Context, cfg Config) Model {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	stats := cfg.Stats
	if stats == nil {
		stats = func() poller.Stats { return poller.Stats{} }
	}
	return Model{
		ctx:          ctx,
		id:           cfg.ID,
		listener:     pubsub.NewContinuousListener[poller.Snapshot](ctx, cfg.Events),
		logs:         log.NewListener(ctx),
		stats:        stats,
		term:         cfg.Terminator,
		now:          now,
		keys:         keys.Watch,
		help:         help.New(),
		width:        60,
		exitOnSettle: cfg.ExitOnSettle,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.logs == nil {
		return m.listener.Listen()
	}
	return tea.Batch(m.listener.Listen(), m.logs.Listen())
}

// Entry returns the last observed entry, or nil.
func (m Model) Entry() *process.Entry {
	return m.entry
}

// Settled reports whether a terminal status has been observed.
func (m Model) Settled() bool {
	return m.settled
}

// Terminated reports whether a terminate request was accepted.
func (m Model) Terminated() bool {
	return m.terminated
}

func spinnerTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return SpinnerTickMsg{}
	})
}

func (m Model) terminate() tea.Cmd {
	ctx, term, id := m.ctx, m.term, m.id
	return func() tea.Msg {
		ok, err := term.Terminate(ctx, id)
		return TerminateResultMsg{OK: ok, Err: err}
	}
}

func (m Model) animated() bool {
	return m.entry != nil && presentation.Present(m.entry.Status).Animated
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case pubsub.Event[poller.Snapshot]:
		return m.handleEvent(msg)

	case log.LogEvent:
		m.logLines = append(m.logLines, strings.TrimRight(msg.Payload, "\n"))
		if len(m.logLines) > maxLogLines {
			m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
		}
		return m, m.logs.Listen()

	case SpinnerTickMsg:
		if !m.animated() {
			m.spinning = false
			return m, nil
		}
		m.frame++
		return m, spinnerTick()

	case TerminateResultMsg:
		m.terminating = false
		if msg.Err != nil {
			m.terminateErr = msg.Err
			log.ErrorErr(log.CatUI, "Terminate failed", msg.Err, "id", m.id)
			return m.showNotice("terminate failed", styles.StatusErrorColor)
		}
		m.terminated = msg.OK
		m.terminateErr = nil
		log.Info(log.CatUI, "Terminate accepted", "id", m.id)
		return m.showNotice("termination requested", styles.StatusWarningColor)

	case NoticeDismissMsg:
		if msg.gen == m.notice.gen {
			m.notice.text = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleEvent(ev pubsub.Event[poller.Snapshot]) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.listener.Listen()}
	snap := ev.Payload

	switch ev.Type {
	case pubsub.ObservedEvent:
		m.entry = snap.Entry
		m.lastErr = nil
		m.updatedAt = snap.ObservedAt
		m.seq = snap.Seq
		if m.animated() && !m.spinning {
			m.spinning = true
			cmds = append(cmds, spinnerTick())
		}
	case pubsub.FailedEvent:
		m.lastErr = snap.Err
		m.seq = snap.Seq
	case pubsub.SettledEvent:
		m.settled = true
		m.confirming = false
		log.Debug(log.CatUI, "Watch settled", "id", m.id, "status", snap.Status())
		if m.exitOnSettle {
			m.quitting = true
			return m, tea.Quit
		}
		d := presentation.Present(snap.Status())
		var show tea.Cmd
		m, show = m.showNotice(fmt.Sprintf("%s %s", m.id, presentation.Label(snap.Status())), styles.DescriptorColor(d.Color))
		cmds = append(cmds, show)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirming {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.confirming = false
			m.terminating = true
			log.Debug(log.CatUI, "Terminate confirmed", "id", m.id)
			return m, m.terminate()
		case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Quit):
			m.confirming = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Logs):
		if m.logs != nil {
			m.showLogs = !m.showLogs
		}
	case key.Matches(msg, m.keys.Terminate):
		if m.term != nil && !m.settled && !m.terminating && !m.terminated {
			m.confirming = true
		}
	}
	return m, nil
}

// StatusLine is a one-line summary used when the program exits.
func (m Model) StatusLine() string {
	if m.entry == nil {
		if m.lastErr != nil {
			return fmt.Sprintf("%s: %v", m.id, m.lastErr)
		}
		return fmt.Sprintf("%s: no status observed", m.id)
	}
	return fmt.Sprintf("%s: %s", m.id, presentation.Label(m.entry.Status))
}
