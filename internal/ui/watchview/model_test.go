package watchview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/procwatch/internal/log"
	"github.com/zjrosen/procwatch/internal/poller"
	"github.com/zjrosen/procwatch/internal/process"
	"github.com/zjrosen/procwatch/internal/pubsub"
)

type fakeTerminator struct {
	mu    sync.Mutex
	calls []process.ID
	err   error
}

func (f *fakeTerminator) Terminate(_ context.Context, id process.ID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	return f.err == nil, f.err
}

func (f *fakeTerminator) Calls() []process.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]process.ID(nil), f.calls...)
}

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T, term Terminator, exitOnSettle bool) (Model, *pubsub.Broker[poller.Snapshot]) {
	t.Helper()
	broker := pubsub.NewBroker[poller.Snapshot]()
	t.Cleanup(broker.Close)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	m := New(ctx, Config{
		ID:           "abc",
		Events:       broker,
		Terminator:   term,
		ExitOnSettle: exitOnSettle,
		Now:          func() time.Time { return fixedNow },
	})
	return m, broker
}

func observed(seq uint64, st process.Status) pubsub.Event[poller.Snapshot] {
	return pubsub.Event[poller.Snapshot]{
		Type: pubsub.ObservedEvent,
		Payload: poller.Snapshot{
			Seq:        seq,
			ID:         "abc",
			Entry:      &process.Entry{InstanceID: "abc", Status: st},
			ObservedAt: fixedNow.Add(-5 * time.Second),
		},
	}
}

func keyMsg(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func TestView_WaitingForFirstStatus(t *testing.T) {
	m, _ := newTestModel(t, nil, false)
	view := ansi.Strip(m.View())
	require.Contains(t, view, "waiting for first status")
	require.Contains(t, view, "abc")
	require.Contains(t, view, "never")
}

func TestUpdate_ObservedEventShowsStatus(t *testing.T) {
	m, _ := newTestModel(t, nil, false)

	m, cmd := update(t, m, observed(1, process.StatusFinished))
	require.NotNil(t, cmd, "listener must be re-armed")
	require.Equal(t, process.StatusFinished, m.Entry().Status)

	view := ansi.Strip(m.View())
	require.Contains(t, view, "✔ FINISHED")
	require.Contains(t, view, "5s ago")
}

func TestUpdate_AnimatedStatusStartsSpinner(t *testing.T) {
	m, _ := newTestModel(t, nil, false)

	m, _ = update(t, m, observed(1, process.StatusRunning))
	require.True(t, m.spinning)

	frame := m.frame
	m, cmd := update(t, m, SpinnerTickMsg{})
	require.Equal(t, frame+1, m.frame)
	require.NotNil(t, cmd, "spinner keeps ticking while animated")

	m, _ = update(t, m, observed(2, process.StatusSuspended))
	m, cmd = update(t, m, SpinnerTickMsg{})
	require.Nil(t, cmd, "spinner stops once the status is static")
	require.False(t, m.spinning)
}

func TestUpdate_FailedEventKeepsLastStatus(t *testing.T) {
	m, _ := newTestModel(t, nil, false)

	m, _ = update(t, m, observed(1, process.StatusRunning))
	m, _ = update(t, m, pubsub.Event[poller.Snapshot]{
		Type:    pubsub.FailedEvent,
		Payload: poller.Snapshot{Seq: 2, ID: "abc", Err: errors.New("connection refused")},
	})

	require.Equal(t, process.StatusRunning, m.Entry().Status)
	view := ansi.Strip(m.View())
	require.Contains(t, view, "RUNNING")
	require.Contains(t, view, "connection refused")
}

func TestUpdate_UnknownStatusRendersQuestionMark(t *testing.T) {
	m, _ := newTestModel(t, nil, false)
	m, _ = update(t, m, observed(1, "ARCHIVED"))
	require.Contains(t, ansi.Strip(m.View()), "? ARCHIVED")
}

func TestUpdate_SettledWithExitQuits(t *testing.T) {
	m, _ := newTestModel(t, nil, true)
	ev := observed(1, process.StatusCancelled)
	ev.Type = pubsub.SettledEvent

	m, cmd := update(t, m, ev)
	require.True(t, m.Settled())
	require.NotNil(t, cmd)
	require.Equal(t, tea.QuitMsg{}, cmd())
}

func TestUpdate_TerminateRequiresConfirmation(t *testing.T) {
	term := &fakeTerminator{}
	m, _ := newTestModel(t, term, false)
	m, _ = update(t, m, observed(1, process.StatusRunning))

	m, cmd := update(t, m, keyMsg('x'))
	require.Nil(t, cmd)
	require.True(t, m.confirming)
	require.Contains(t, ansi.Strip(m.View()), "Terminate abc?")

	m, _ = update(t, m, keyMsg('n'))
	require.False(t, m.confirming)
	require.Empty(t, term.Calls(), "cancel must not terminate")

	m, _ = update(t, m, keyMsg('x'))
	m, cmd = update(t, m, keyMsg('y'))
	require.True(t, m.terminating)
	require.NotNil(t, cmd)

	msg := cmd()
	require.Equal(t, TerminateResultMsg{OK: true}, msg)
	require.Equal(t, []process.ID{"abc"}, term.Calls())

	m, _ = update(t, m, msg)
	require.True(t, m.Terminated())
	require.Contains(t, ansi.Strip(m.View()), "termination requested")
}

func TestUpdate_TerminateFailureShown(t *testing.T) {
	term := &fakeTerminator{err: errors.New("terminate abc: server returned 403 Forbidden")}
	m, _ := newTestModel(t, term, false)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	m, _ = update(t, m, observed(1, process.StatusRunning))

	m, _ = update(t, m, keyMsg('x'))
	m, cmd := update(t, m, keyMsg('y'))
	m, _ = update(t, m, cmd())

	require.False(t, m.Terminated())
	require.Contains(t, ansi.Strip(m.View()), "403 Forbidden")
}

func TestUpdate_NoTerminateAfterSettle(t *testing.T) {
	m, _ := newTestModel(t, &fakeTerminator{}, false)
	ev := observed(1, process.StatusFinished)
	ev.Type = pubsub.SettledEvent
	m, _ = update(t, m, ev)

	m, _ = update(t, m, keyMsg('x'))
	require.False(t, m.confirming)
}

func TestUpdate_QuitKey(t *testing.T) {
	m, _ := newTestModel(t, nil, false)
	m, cmd := update(t, m, keyMsg('q'))
	require.Equal(t, tea.QuitMsg{}, cmd())
	require.Empty(t, m.View())
}

func TestStatusLine(t *testing.T) {
	m, _ := newTestModel(t, nil, false)
	require.Equal(t, "abc: no status observed", m.StatusLine())

	m, _ = update(t, m, observed(1, process.StatusFailed))
	require.Equal(t, "abc: FAILED", m.StatusLine())
}

func TestWatchView_Program(t *testing.T) {
	term := &fakeTerminator{}
	m, broker := newTestModel(t, term, true)

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

	// Wait for the subscription before publishing.
	require.Eventually(t, func() bool { return broker.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)

	broker.Publish(pubsub.ObservedEvent, observed(1, process.StatusRunning).Payload)
	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("RUNNING"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(keyMsg('x'))
	tm.Send(keyMsg('y'))
	require.Eventually(t, func() bool { return len(term.Calls()) == 1 }, 2*time.Second, 10*time.Millisecond)

	final := observed(2, process.StatusCancelled).Payload
	broker.Publish(pubsub.ObservedEvent, final)
	broker.Publish(pubsub.SettledEvent, final)

	fm := tm.FinalModel(t, teatest.WithFinalTimeout(2*time.Second))
	got, ok := fm.(Model)
	require.True(t, ok)
	require.True(t, got.Settled())
	require.True(t, got.Terminated())
	require.Equal(t, process.StatusCancelled, got.Entry().Status)
}

func TestUpdate_DebugLogPane(t *testing.T) {
	log.InitWriter(io.Discard)
	t.Cleanup(log.Reset)

	m, _ := newTestModel(t, nil, false)
	require.NotNil(t, m.logs)

	m, _ = update(t, m, keyMsg('L'))
	require.True(t, m.showLogs)
	require.Contains(t, ansi.Strip(m.View()), "(empty)")

	for i := range maxLogLines + 2 {
		var cmd tea.Cmd
		m, cmd = update(t, m, log.LogEvent{Type: pubsub.LoggedEvent, Payload: fmt.Sprintf("line %d\n", i)})
		require.NotNil(t, cmd, "the log listener must be re-armed")
	}
	require.Len(t, m.logLines, maxLogLines)
	view := ansi.Strip(m.View())
	require.Contains(t, view, fmt.Sprintf("line %d", maxLogLines+1))
	require.NotContains(t, view, "line 0")
}

func TestUpdate_DebugLogPaneNeedsLogging(t *testing.T) {
	log.Reset()
	m, _ := newTestModel(t, nil, false)

	m, _ = update(t, m, keyMsg('L'))
	require.False(t, m.showLogs)
}
