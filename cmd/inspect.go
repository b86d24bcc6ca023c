package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/compgraph/internal/emit"
	"github.com/sells-group/compgraph/internal/model"
	"github.com/sells-group/compgraph/internal/store"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [slug]",
	Short: "Show the last build, or one entity, from the graph database",
	Long:  "Reads graph.db in output.dir. With no argument prints the last run summary; with a slug prints that entity's full record.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("inspect"); err != nil {
			return err
		}

		st, err := store.OpenExisting(filepath.Join(cfg.Output.Dir, emit.GraphDBFile))
		if err != nil {
			return eris.Wrap(err, "inspect: open graph database (run build with output.sqlite enabled)")
		}
		defer st.Close() //nolint:errcheck

		if len(args) == 1 {
			e, err := st.GetEntity(ctx, args[0])
			if err != nil {
				return eris.Wrap(err, "inspect")
			}
			if e == nil {
				return eris.Errorf("inspect: entity %q not found", args[0])
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(e)
		}

		run, err := st.LastRun(ctx)
		if err != nil {
			return eris.Wrap(err, "inspect")
		}
		formatRun(os.Stdout, run)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

// formatRun writes a run header followed by its summary to w.
func formatRun(out io.Writer, r *model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Run:\t%s\n", r.ID)
	_, _ = fmt.Fprintf(w, "Status:\t%s\n", r.Status)
	_, _ = fmt.Fprintf(w, "Created:\t%s\n", r.CreatedAt.Format("2006-01-02 15:04:05"))
	if r.Summary != nil && r.Summary.Duration > 0 {
		_, _ = fmt.Fprintf(w, "Duration:\t%s\n", r.Summary.Duration)
	}
	_ = w.Flush()

	if r.Summary != nil {
		formatSummary(out, r.Summary)
	}
}
