package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/procwatch/internal/history"
	"github.com/zjrosen/procwatch/internal/presentation"
	"github.com/zjrosen/procwatch/internal/process"
	"github.com/zjrosen/procwatch/internal/ui/statusicon"
	"github.com/zjrosen/procwatch/internal/ui/styles"
)

var (
	historyLimit  int
	historyJSON   bool
	historyForget bool
)

var historyCmd = &cobra.Command{
	Use:   "history [process-id]",
	Short: "Show locally recorded status transitions",
	Long: `Every status procwatch observes is recorded locally when it differs from
the previous one. With a process id, list that process's transitions; without
one, list the latest status of every process seen.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.IntVarP(&historyLimit, "limit", "n", 20, "maximum rows to print (0 for all)")
	f.BoolVar(&historyJSON, "json", false, "print rows as JSON")
	f.BoolVar(&historyForget, "forget", false, "delete the recorded history of the given process")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if !cfg.History.Enabled || cfg.History.Path == "" {
		return fmt.Errorf("history is disabled (set history.enabled)")
	}
	if historyForget && len(args) == 0 {
		return fmt.Errorf("--forget needs a process id")
	}

	store, err := history.Open(ctx, cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	out := cmd.OutOrStdout()

	if historyForget {
		id := process.ID(args[0])
		n, err := store.Forget(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "forgot %d transition(s) for %s\n", n, id)
		return nil
	}

	var records []history.Record
	if len(args) == 1 {
		records, err = store.List(ctx, process.ID(args[0]), historyLimit)
	} else {
		records, err = store.Latest(ctx, historyLimit)
	}
	if err != nil {
		return err
	}

	if historyJSON {
		views := make([]presentation.TransitionView, 0, len(records))
		for _, r := range records {
			views = append(views, presentation.FromTransition(r.ProcessID, r.Status, r.ObservedAt))
		}
		return presentation.NewFormatter(out).FormatHistory(views)
	}
	printHistory(out, records)
	return nil
}

func printHistory(w io.Writer, records []history.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, styles.MutedStyle.Render("no history recorded"))
		return
	}
	t := now()
	for _, r := range records {
		fmt.Fprintf(w, "%s  %s  %s\n",
			styles.ValueStyle.Render(styles.PadRight(r.ProcessID.String(), 36)),
			statusicon.Style(presentation.Present(r.Status)).Render(styles.PadRight(statusicon.Plain(r.Status, 0), 12)),
			styles.MutedStyle.Render(styles.FormatAge(r.ObservedAt, t)))
	}
}
