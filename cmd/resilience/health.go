package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "health",
		Short:   "Grade the network and list recommendations",
		GroupID: "analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.analyze(cmd.Context())
			if err != nil {
				return err
			}
			h := snap.Assessment
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), h)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Health: %d (%s)\n", h.Score, h.Status)
			fmt.Fprintf(w, "Nodes: %d active, %d disrupted  Routes: %d active, %d disrupted, %d high risk\n\n",
				h.Summary.ActiveNodes, h.Summary.DisruptedNodes,
				h.Summary.ActiveRoutes, h.Summary.DisruptedRoutes, h.Summary.HighRiskRoutes)

			tw := newTable(w)
			fmt.Fprintln(tw, "PRIORITY\tISSUE\tACTION")
			for _, r := range h.Recommendations {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Priority, r.Issue, r.Action)
			}
			return tw.Flush()
		},
	}
}
