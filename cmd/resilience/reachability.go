package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
)

func newReachabilityCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reachability",
		Short:   "Show which facilities lose reach after a disruption",
		GroupID: "analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := disruptionTarget(cmd)
			if err != nil {
				return err
			}
			g, err := a.buildGraph(cmd.Context())
			if err != nil {
				return err
			}
			delta, err := algorithms.ComputeReachabilityDelta(g, target, a.disruptionOptions()...)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), delta)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Reachable pairs: %d -> %d (%d lost)\n",
				delta.ReachablePairsBefore, delta.ReachablePairsAfter, delta.LostPairs)
			fmt.Fprintf(w, "Components: %d -> %d  Strong components: %d -> %d\n",
				delta.ComponentsBefore, delta.ComponentsAfter,
				delta.StrongComponentsBefore, delta.StrongComponentsAfter)

			tw := newTable(w)
			fmt.Fprintln(tw, "NODE\tLOST")
			for _, loss := range delta.NodesLosingReach {
				fmt.Fprintf(tw, "%s\t%s\n", loss.NodeID, strings.Join(loss.Lost, ", "))
			}
			return tw.Flush()
		},
	}
	addTargetFlags(cmd)
	return cmd
}
