package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/resilience"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:     "analyze",
		Short:   "Compute centrality metrics, bottlenecks and critical nodes",
		GroupID: "analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if save && a.dataFile != "" {
				return fmt.Errorf("--save writes to the store and cannot be combined with --file")
			}

			snap, err := a.analyze(ctx)
			if err != nil {
				return err
			}

			if save {
				store, err := a.openStore(ctx)
				if err != nil {
					return err
				}
				defer store.Close()
				if err := store.SaveNodeMetrics(ctx, resilience.StoredMetrics(snap.Metrics, time.Now())); err != nil {
					return fmt.Errorf("save metrics: %w", err)
				}
				a.logger.Info("metrics saved", logging.Count(len(snap.Metrics.NodeMetrics)))
			}

			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), snap.Metrics)
			}
			return printAnalysis(cmd.OutOrStdout(), snap)
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "write per-node metrics back to the store")
	return cmd
}

func printAnalysis(w io.Writer, snap *resilience.Snapshot) error {
	m := snap.Metrics
	s := m.NetworkStats
	fmt.Fprintf(w, "Nodes: %d  Routes: %d  Density: %.4f  Avg degree: %.2f  Clustering: %.4f\n\n",
		s.TotalNodes, s.TotalEdges, s.Density, s.AverageDegree, s.GlobalClusteringCoefficient)

	tw := newTable(w)
	fmt.Fprintln(tw, "BOTTLENECK\tBETWEENNESS\tIN\tOUT")
	for _, b := range m.Bottlenecks {
		fmt.Fprintf(tw, "%s\t%.4f\t%d\t%d\n", b.NodeID, b.BetweennessScore, b.InDegree, b.OutDegree)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "CRITICAL NODE\tSCORE\tDEGREE\tBETWEENNESS")
	for _, c := range m.CriticalNodes {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\n", c.NodeID, c.CriticalityScore, c.DegreeScore, c.BetweennessScore)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "CRITICAL ROUTE\tSCORE")
	for _, r := range m.CriticalRoutes {
		fmt.Fprintf(tw, "%s -> %s\t%.4f\n", r.Source, r.Target, r.Score)
	}
	return tw.Flush()
}
