package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/procwatch/internal/presentation"
	"github.com/zjrosen/procwatch/internal/process"
	"github.com/zjrosen/procwatch/internal/ui/statusicon"
	"github.com/zjrosen/procwatch/internal/ui/styles"
)

var now = time.Now

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status <process-id>",
	Short: "Print the current status of a process",
	Example: `  procwatch status 0f6b1c0e-5c1b-4a6f-9a57-8a1f2f1b7d3e
  procwatch status 0f6b1c0e-5c1b-4a6f-9a57-8a1f2f1b7d3e --json`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the status as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id := checkID(process.ID(args[0]))

	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	entry, err := s.client.FetchStatus(ctx, id)
	if err != nil {
		return describeError(id, err)
	}
	s.record(ctx, entry, id)

	out := cmd.OutOrStdout()
	if statusJSON {
		return presentation.NewFormatter(out).FormatStatus(presentation.FromEntry(id, entry))
	}
	printEntry(out, id, entry)
	return nil
}

// printEntry writes the human readable status block.
func printEntry(w io.Writer, id process.ID, entry *process.Entry) {
	fmt.Fprintln(w, statusicon.Render(entry.Status, 0))
	fmt.Fprintf(w, "%s%s\n", styles.LabelStyle.Render(styles.PadRight("process:", 10)), styles.ValueStyle.Render(id.String()))
	if entry.InstanceID != "" && entry.InstanceID != id {
		fmt.Fprintf(w, "%s%s\n", styles.LabelStyle.Render(styles.PadRight("instance:", 10)), styles.ValueStyle.Render(entry.InstanceID.String()))
	}
	if !entry.Status.IsKnown() {
		fmt.Fprintln(w, styles.WarningStyle.Render(fmt.Sprintf("server reported an unrecognized status %q", entry.Status)))
	}
	for _, name := range entry.FieldNames() {
		fmt.Fprintf(w, "%s%s\n",
			styles.MutedStyle.Render(styles.PadRight(name+":", 10)),
			styles.DescriptionStyle.Render(styles.TruncateString(string(entry.Extra[name]), 120)))
	}
}
