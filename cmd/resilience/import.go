package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-resilience/pkg/dataset"
	"github.com/dd0wney/cluso-resilience/pkg/logging"
)

func newImportCmd(a *app) *cobra.Command {
	var clearFirst bool
	cmd := &cobra.Command{
		Use:     "import <file>",
		Short:   "Load a YAML or JSON dataset into the store",
		GroupID: "data",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			snap, err := dataset.Load(args[0])
			if err != nil {
				return err
			}

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if clearFirst {
				nodes, routes, err := store.Clear(ctx)
				if err != nil {
					return err
				}
				a.logger.Info("store cleared", logging.Int64("nodes", nodes), logging.Int64("routes", routes))
			}
			for _, n := range snap.Nodes {
				if err := store.UpsertNode(ctx, n); err != nil {
					return fmt.Errorf("import node %s: %w", n.NodeID, err)
				}
			}
			for _, r := range snap.Routes {
				if err := store.UpsertRoute(ctx, r); err != nil {
					return fmt.Errorf("import route %s->%s: %w", r.Source, r.Target, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d nodes and %d routes\n", len(snap.Nodes), len(snap.Routes))
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearFirst, "clear", false, "delete all stored data first")
	return cmd
}
