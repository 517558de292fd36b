package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/procwatch/internal/log"
	"github.com/zjrosen/procwatch/internal/poller"
	"github.com/zjrosen/procwatch/internal/process"
	"github.com/zjrosen/procwatch/internal/ui/statusicon"
)

var killWait bool

var killCmd = &cobra.Command{
	Use:     "kill <process-id>",
	Aliases: []string{"terminate"},
	Short:   "Request termination of a process",
	Long: `Ask the server to terminate a process. The request is asynchronous: the
process moves to CANCELLED some time later. Pass --wait to block until it
reaches a terminal status.`,
	Args: cobra.ExactArgs(1),
	RunE: runKill,
}

func init() {
	killCmd.Flags().BoolVarP(&killWait, "wait", "w", false, "wait until the process reaches a terminal status")
	rootCmd.AddCommand(killCmd)
}

func runKill(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id := checkID(process.ID(args[0]))

	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.client.Terminate(ctx, id); err != nil {
		return describeError(id, err)
	}
	log.Info(log.CatAPI, "Termination requested", "id", id)

	out := cmd.OutOrStdout()
	if !killWait {
		fmt.Fprintf(out, "termination requested for %s\n", id)
		return nil
	}

	entry, err := poller.WaitForCompletion(ctx, s.client, id, cfg.Poll.Interval,
		poller.WaitWithTracer(s.tracing.Tracer()),
		poller.WaitWithProgress(func(e *process.Entry) { s.record(ctx, e, id) }),
	)
	if err != nil {
		return describeError(id, err)
	}
	fmt.Fprintln(out, statusicon.Render(entry.Status, 0))
	return nil
}
