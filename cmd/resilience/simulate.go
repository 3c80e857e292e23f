package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-resilience/pkg/resilience"
	"github.com/dd0wney/cluso-resilience/pkg/validation"
)

func newSimulateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "simulate",
		Short:   "Remove a facility or route and report the impact",
		Example: "  resilience simulate --node WH-1\n  resilience simulate --source WH-1 --target RT-7",
		GroupID: "analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := disruptionTarget(cmd)
			if err != nil {
				return err
			}
			maxPaths, _ := cmd.Flags().GetInt("max-paths")
			maxPaths = validation.DefaultOrInt(maxPaths, a.cfg.Analysis.MaxPaths)

			g, err := a.buildGraph(cmd.Context())
			if err != nil {
				return err
			}
			report, err := resilience.SimulateDisruptionContext(cmd.Context(), g, target, maxPaths, a.disruptionOptions()...)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), report)
			}

			res := report.Result
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Disrupted %s %s (applied: %t)\n", target.Kind, target, res.Applied)
			fmt.Fprintf(w, "Nodes: %d -> %d  Routes: %d -> %d\n",
				res.NodeCountBefore, res.NodeCountAfter, res.EdgeCountBefore, res.EdgeCountAfter)
			if len(res.AffectedNodes) > 0 {
				fmt.Fprintf(w, "Isolated: %s\n", strings.Join(res.AffectedNodes, ", "))
			}
			for i, p := range report.AlternativePaths {
				fmt.Fprintf(w, "  %d. %s  (cost %.2f, %d hops)\n", i+1, strings.Join(p.Path, " -> "), p.TotalCost, p.Hops)
			}
			fmt.Fprintf(w, "Recommendation: %s\n", report.Recommendation)
			return nil
		},
	}
	addTargetFlags(cmd)
	cmd.Flags().Int("max-paths", 0, "alternative routes to search for (default from config)")
	return cmd
}
