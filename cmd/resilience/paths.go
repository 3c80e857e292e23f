package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/validation"
)

func newPathsCmd(a *app) *cobra.Command {
	var maxPaths int
	cmd := &cobra.Command{
		Use:     "paths <source> <target>",
		Short:   "List alternative routes between two facilities, cheapest first",
		GroupID: "analysis",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := validation.PathRequest{Source: args[0], Target: args[1], MaxPaths: maxPaths}
			if err := validation.ValidatePathRequest(&req); err != nil {
				return err
			}
			req.MaxPaths = validation.DefaultOrInt(req.MaxPaths, a.cfg.Analysis.MaxPaths)

			g, err := a.buildGraph(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range []string{req.Source, req.Target} {
				if !g.HasNode(id) {
					return fmt.Errorf("%w: node %q", algorithms.ErrNotFound, id)
				}
			}
			paths, err := algorithms.FindAlternativePathsContext(cmd.Context(), g, req.Source, req.Target, req.MaxPaths)
			if err != nil {
				return err
			}
			summaries := algorithms.SummarizePaths(g, paths)
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), summaries)
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "PATH\tHOPS\tCOST\tDISTANCE\tTIME\tMAX RISK")
			for _, p := range summaries {
				fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\t%s\n",
					strings.Join(p.Path, " -> "), p.Hops, p.TotalCost, p.TotalDistance, p.TotalTime, p.MaxRisk)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&maxPaths, "max-paths", 0, "maximum number of paths (default from config)")
	return cmd
}
