package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/procwatch/internal/log"
	"github.com/zjrosen/procwatch/internal/poller"
	"github.com/zjrosen/procwatch/internal/process"
	"github.com/zjrosen/procwatch/internal/ui/statusicon"
)

var (
	waitFor      []string
	waitAny      bool
	waitTimeout  time.Duration
	waitInterval time.Duration
	waitQuiet    bool
)

var waitCmd = &cobra.Command{
	Use:   "wait <process-id>",
	Short: "Block until a process reaches a status",
	Long: `Poll a process until it reaches one of the --for statuses (FINISHED by
default). Exits non-zero if the process settles on a different terminal
status, or if --timeout elapses first.`,
	Example: `  procwatch wait $ID
  procwatch wait $ID --for RUNNING --timeout 2m
  procwatch wait $ID --any`,
	Args: cobra.ExactArgs(1),
	RunE: runWait,
}

func init() {
	f := waitCmd.Flags()
	f.StringSliceVar(&waitFor, "for", []string{string(process.StatusFinished)},
		"statuses to wait for, comma separated, from "+statusNames())
	f.BoolVar(&waitAny, "any", false, "wait for any terminal status")
	f.DurationVarP(&waitTimeout, "timeout", "t", 0, "give up after this long (0 waits forever)")
	f.DurationVarP(&waitInterval, "interval", "i", 0, "poll interval (default poll.interval)")
	f.BoolVarP(&waitQuiet, "quiet", "q", false, "only print the final status")
	waitCmd.MarkFlagsMutuallyExclusive("for", "any")
	rootCmd.AddCommand(waitCmd)
}

func statusNames() string {
	names := make([]string, 0, len(process.Statuses()))
	for _, st := range process.Statuses() {
		names = append(names, string(st))
	}
	return strings.Join(names, ", ")
}

// parseTargets upper-cases and de-duplicates status names.
func parseTargets(names []string) ([]process.Status, error) {
	var out []process.Status
	seen := make(map[process.Status]bool)
	for _, name := range names {
		st := process.Status(strings.ToUpper(strings.TrimSpace(name)))
		if st == "" {
			return nil, fmt.Errorf("empty status in --for")
		}
		if seen[st] {
			continue
		}
		if !st.IsKnown() {
			log.Warn(log.CatPoll, "Waiting for a status the client does not know", "status", st)
		}
		seen[st] = true
		out = append(out, st)
	}
	return out, nil
}

func runWait(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id := checkID(process.ID(args[0]))

	var targets []process.Status
	if !waitAny {
		var err error
		if targets, err = parseTargets(waitFor); err != nil {
			return err
		}
	}

	interval := waitInterval
	if interval == 0 {
		interval = cfg.Poll.Interval
	}

	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, waitTimeout)
		defer cancel()
	}

	out := cmd.OutOrStdout()
	var last process.Status
	progress := func(e *process.Entry) {
		if e.Status == last {
			return
		}
		last = e.Status
		s.record(ctx, e, id)
		if !waitQuiet {
			fmt.Fprintf(out, "%s  %s\n", now().Format(time.TimeOnly), statusicon.Plain(e.Status, 0))
		}
	}

	entry, err := poller.WaitFor(ctx, s.client, id, interval, targets,
		poller.WaitWithTracer(s.tracing.Tracer()),
		poller.WaitWithProgress(progress),
	)
	if err != nil {
		var unexpected *poller.UnexpectedStatusError
		if errors.As(err, &unexpected) {
			return err
		}
		return describeError(id, err)
	}
	if waitQuiet {
		fmt.Fprintln(out, entry.Status)
	}
	return nil
}
