package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/config"
	"github.com/dd0wney/cluso-resilience/pkg/dataset"
	"github.com/dd0wney/cluso-resilience/pkg/graph"
	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/resilience"
	"github.com/dd0wney/cluso-resilience/pkg/storage"
)

// app holds the global flags and what PersistentPreRunE builds from them.
type app struct {
	configPath string
	dataFile   string
	jsonOutput bool
	logLevel   string

	cfg    *config.Config
	logger logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "resilience <command>",
		Short:         "Analyse supply-chain network resilience",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			level := cfg.Logging.Level
			if a.logLevel != "" {
				level = a.logLevel
			}
			a.cfg = cfg
			a.logger = logging.New(cmd.ErrOrStderr(), logging.ParseLevel(level), logging.Format(cfg.Logging.Format))
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", os.Getenv("RESILIENCE_CONFIG"), "path to YAML config file")
	flags.StringVarP(&a.dataFile, "file", "f", "", "read the network from a dataset file instead of the store")
	flags.BoolVar(&a.jsonOutput, "json", false, "output as JSON")
	flags.StringVar(&a.logLevel, "log-level", "", "override the configured log level")

	root.AddGroup(
		&cobra.Group{ID: "analysis", Title: "Analysis:"},
		&cobra.Group{ID: "data", Title: "Data:"},
	)
	cobra.EnableCommandSorting = false

	root.AddCommand(
		newAnalyzeCmd(a),
		newHealthCmd(a),
		newSimulateCmd(a),
		newReachabilityCmd(a),
		newPathsCmd(a),
		newReportCmd(a),
		newImportCmd(a),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// fileSource serves a dataset file as a network.
type fileSource struct {
	snap *dataset.Snapshot
}

func (f fileSource) ListNodes(context.Context) ([]graph.NodeRecord, error) {
	return f.snap.Nodes, nil
}

func (f fileSource) ListRoutes(context.Context) ([]graph.RouteRecord, error) {
	return f.snap.Routes, nil
}

// openStore opens the configured store.
func (a *app) openStore(ctx context.Context) (storage.Store, error) {
	store, err := storage.Open(ctx, a.cfg.Storage.Driver, a.cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}

// network returns the --file dataset if given, otherwise the configured
// store. The returned func releases it.
func (a *app) network(ctx context.Context) (resilience.NetworkSource, func() error, error) {
	if a.dataFile != "" {
		snap, err := dataset.Load(a.dataFile)
		if err != nil {
			return nil, nil, err
		}
		a.logger.Debug("loaded dataset",
			logging.String("file", a.dataFile),
			logging.Int("nodes", len(snap.Nodes)),
			logging.Int("routes", len(snap.Routes)))
		return fileSource{snap: snap}, func() error { return nil }, nil
	}
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

func (a *app) metricsConfig() algorithms.MetricsConfig {
	cfg := a.cfg.MetricsConfig()
	cfg.Logger = a.logger
	return cfg
}

func (a *app) disruptionOptions() []algorithms.DisruptionOption {
	return []algorithms.DisruptionOption{
		algorithms.WithMissingTargetPolicy(a.cfg.MissingTargetPolicy()),
		algorithms.WithDisruptionLogger(a.logger),
	}
}

// analyze loads the network and runs the full metric suite.
func (a *app) analyze(ctx context.Context) (*resilience.Snapshot, error) {
	src, closeFn, err := a.network(ctx)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	return resilience.AnalyzeSource(ctx, src, a.metricsConfig())
}

// buildGraph loads the network into a graph without computing metrics.
func (a *app) buildGraph(ctx context.Context) (*graph.Graph, error) {
	src, closeFn, err := a.network(ctx)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	nodes, routes, err := resilience.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, algorithms.ErrEmptyGraph
	}
	return graph.Build(nodes, routes,
		graph.WithDanglingPolicy(a.metricsConfig().Dangling),
		graph.WithLogger(a.logger))
}

// disruptionTarget reads --node, or --source and --target.
func disruptionTarget(cmd *cobra.Command) (algorithms.DisruptionTarget, error) {
	node, _ := cmd.Flags().GetString("node")
	source, _ := cmd.Flags().GetString("source")
	target, _ := cmd.Flags().GetString("target")
	return algorithms.NewDisruptionTarget(node, source, target)
}

func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().String("node", "", "facility to take out of the network")
	cmd.Flags().String("source", "", "source of the route to take out")
	cmd.Flags().String("target", "", "target of the route to take out")
}
