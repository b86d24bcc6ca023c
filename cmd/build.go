package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/compgraph/internal/model"
	"github.com/sells-group/compgraph/internal/pipeline"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the competitor graph and write all artifacts",
	Long:  "Reads every snapshot in input.snapshots_dir plus the financial-facts file, resolves and deduplicates entities, and replaces output.dir atomically.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("build"); err != nil {
			return err
		}

		res, err := pipeline.New(cfg).Run(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "build")
		}

		formatSummary(os.Stdout, res.Summary)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

// formatSummary writes the counts of a build to w.
func formatSummary(out io.Writer, s *model.RunSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Snapshots:\t%d\n", s.Snapshots)
	_, _ = fmt.Fprintf(w, "Mentions:\t%d (%d skipped, %d self)\n", s.Mentions, s.SkippedMentions, s.SelfMentions)
	_, _ = fmt.Fprintf(w, "Financial records:\t%d\n", s.FinancialRecords)
	_, _ = fmt.Fprintf(w, "Entities:\t%d (%d public, %d private)\n", s.Entities, s.PublicEntities, s.PrivateEntities)
	_, _ = fmt.Fprintf(w, "With financials:\t%d\n", s.WithFinancials)
	_, _ = fmt.Fprintf(w, "Relationships:\t%d\n", s.Relationships)
	_, _ = fmt.Fprintf(w, "Merges:\t%d\n", s.Merges)
	_, _ = fmt.Fprintf(w, "Industries:\t%d\n", s.Industries)

	strategies := make([]string, 0, len(s.ByStrategy))
	for name := range s.ByStrategy {
		strategies = append(strategies, name)
	}
	sort.Strings(strategies)
	for _, name := range strategies {
		_, _ = fmt.Fprintf(w, "  %s:\t%d\n", name, s.ByStrategy[name])
	}

	if s.OutputDir != "" {
		_, _ = fmt.Fprintf(w, "Output:\t%s\n", s.OutputDir)
	}
	_ = w.Flush()
}
