package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/procwatch/internal/history"
	"github.com/zjrosen/procwatch/internal/log"
	"github.com/zjrosen/procwatch/internal/poller"
	"github.com/zjrosen/procwatch/internal/process"
	"github.com/zjrosen/procwatch/internal/ui/watchview"
)

var (
	watchExit     bool
	watchInterval time.Duration
	watchAlt      bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <process-id>",
	Short: "Follow a process live in the terminal",
	Long: `Open an interactive view that polls the process and shows its status as
it changes. Press x to terminate the process, q to quit.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	f := watchCmd.Flags()
	f.BoolVarP(&watchExit, "exit", "e", false, "exit once the process reaches a terminal status")
	f.DurationVarP(&watchInterval, "interval", "i", 0, "poll interval (default poll.interval)")
	f.BoolVar(&watchAlt, "alt-screen", false, "use the alternate screen buffer")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	id := checkID(process.ID(args[0]))

	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	pcfg := poller.Config{
		Interval:       cfg.Poll.Interval,
		StopOnTerminal: cfg.Poll.StopOnTerminal,
	}
	if watchInterval > 0 {
		pcfg.Interval = watchInterval
	}
	p := poller.New(s.client, id, pcfg, poller.WithTracer(s.tracing.Tracer()))
	defer p.Close()

	// Subscriptions are taken before Run so the first snapshot is not missed.
	model := watchview.New(ctx, watchview.Config{
		ID:           id,
		Events:       p,
		Stats:        p.Stats,
		Terminator:   s.client,
		ExitOnSettle: watchExit,
	})
	// The recorder drains until the broker closes so the settling snapshot
	// is stored before the session closes the history database.
	var recorded chan struct{}
	if s.history != nil {
		recCtx := context.WithoutCancel(ctx)
		events := p.Subscribe(recCtx)
		recorded = make(chan struct{})
		go func() {
			defer close(recorded)
			history.NewRecorder(s.history).Run(recCtx, events)
		}()
	}

	pollErr := make(chan error, 1)
	go func() { pollErr <- p.Run(ctx) }()

	opts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithOutput(cmd.OutOrStdout()),
		tea.WithInput(cmd.InOrStdin()),
	}
	if watchAlt {
		opts = append(opts, tea.WithAltScreen())
	}
	final, err := tea.NewProgram(model, opts...).Run()

	cancel()
	if perr := <-pollErr; perr != nil && !errors.Is(perr, context.Canceled) {
		log.ErrorErr(log.CatPoll, "Poller stopped with error", perr, "id", id)
	}
	p.Close()
	if recorded != nil {
		<-recorded
	}

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running program: %w", err)
	}
	if m, ok := final.(watchview.Model); ok {
		fmt.Fprintln(cmd.OutOrStdout(), m.StatusLine())
	}
	return nil
}
