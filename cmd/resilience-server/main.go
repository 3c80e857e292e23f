package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dd0wney/cluso-resilience/pkg/alerts"
	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/api"
	"github.com/dd0wney/cluso-resilience/pkg/config"
	"github.com/dd0wney/cluso-resilience/pkg/graphql"
	"github.com/dd0wney/cluso-resilience/pkg/health"
	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/metrics"
	"github.com/dd0wney/cluso-resilience/pkg/reports"
	"github.com/dd0wney/cluso-resilience/pkg/scheduler"
	"github.com/dd0wney/cluso-resilience/pkg/server"
	"github.com/dd0wney/cluso-resilience/pkg/storage"
)

func main() {
	configPath := flag.String("config", os.Getenv("RESILIENCE_CONFIG"), "Path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "resilience-server: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.LoggingConfig) *logging.LogrusLogger {
	return logging.New(os.Stdout, logging.ParseLevel(cfg.Level), logging.Format(cfg.Format))
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging)
	logging.SetDefaultLogger(logger)
	logger.Info("resilience server starting",
		logging.String("version", api.Version),
		logging.String("storage", cfg.Storage.Driver))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.Open(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	reg := metrics.DefaultRegistry()
	metricsCfg := cfg.MetricsConfig()
	metricsCfg.Logger = logger

	jobs := scheduler.NewRegistry(scheduler.WithLogger(logger), scheduler.WithMetrics(reg))
	var alertPub *alerts.Publisher
	expectedJobs := 0

	if cfg.Reports.Interval > 0 {
		publisher, err := newReportPublisher(ctx, cfg.Reports, logger, reg)
		if err != nil {
			store.Close()
			return err
		}
		if _, err := jobs.Register("network-report", cfg.Reports.Interval, cfg.Analysis.Timeout,
			publisher.Job("network-report", store, metricsCfg)); err != nil {
			store.Close()
			return err
		}
		expectedJobs++
	}

	if cfg.Alerts.PublishAddr != "" {
		alertPub, err = alerts.NewPublisher(cfg.Alerts.PublishAddr, logger, reg)
		if err != nil {
			store.Close()
			return fmt.Errorf("start alert publisher: %w", err)
		}
		rules := alerts.DefaultRules()
		rules.HealthThreshold = cfg.Alerts.HealthThreshold
		monitor := alerts.NewMonitor(store, metricsCfg, rules, alertPub)
		if _, err := jobs.Register("alert-monitor", cfg.Alerts.Interval, cfg.Analysis.Timeout, monitor.Job()); err != nil {
			alertPub.Close()
			store.Close()
			return err
		}
		expectedJobs++
	}

	checker := health.NewHealthChecker()
	checker.RegisterReadinessCheck("store", health.StoreCheck(store))
	checker.RegisterCheck("jobs", health.JobsCheck(jobs.Running, expectedJobs))
	checker.RegisterLivenessCheck("memory", health.MemoryCheck(health.RuntimeMemory))

	schema, err := graphql.NewSchema(&graphql.Resolver{
		Source:   store,
		Config:   metricsCfg,
		MaxPaths: cfg.Analysis.MaxPaths,
		Logger:   logger,
		Disruption: []algorithms.DisruptionOption{
			algorithms.WithMissingTargetPolicy(cfg.MissingTargetPolicy()),
			algorithms.WithDisruptionLogger(logger),
		},
	})
	if err != nil {
		store.Close()
		return err
	}

	apiServer, err := api.NewServer(api.Options{
		Store:   store,
		Config:  cfg,
		Logger:  logger,
		Metrics: reg,
		Health:  checker,
		Jobs:    jobs,
		GraphQL: graphql.NewGraphQLHandler(schema, graphql.WithLogger(logger), graphql.WithMetrics(reg)),
	})
	if err != nil {
		store.Close()
		return err
	}

	gs, err := server.NewGracefulServer(cfg.Server, apiServer.Handler(), logger)
	if err != nil {
		apiServer.Close()
		store.Close()
		return err
	}
	gs.SetConfigReloadFunc(func() error {
		next, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger.SetLevel(logging.ParseLevel(next.Logging.Level))
		logger.Info("log level reloaded", logging.String("level", next.Logging.Level))
		return nil
	})
	gs.OnShutdown(func(context.Context) error {
		jobs.StopAll()
		return nil
	})
	gs.OnShutdown(func(context.Context) error { return apiServer.Close() })
	if alertPub != nil {
		gs.OnShutdown(func(context.Context) error { return alertPub.Close() })
	}
	gs.OnShutdown(func(context.Context) error { return store.Close() })

	jobs.StartAll(ctx)
	return gs.Run(ctx)
}

// newReportPublisher writes reports to the local directory, S3, or both.
func newReportPublisher(ctx context.Context, cfg config.ReportsConfig, logger logging.Logger, reg *metrics.Registry) (*reports.Publisher, error) {
	var sinks []reports.Sink
	if cfg.Dir != "" {
		fs, err := reports.NewFileSink(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("report directory: %w", err)
		}
		sinks = append(sinks, fs)
	}
	if cfg.S3.Bucket != "" {
		s3, err := reports.NewS3Sink(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("report bucket: %w", err)
		}
		sinks = append(sinks, s3)
	}
	return reports.NewPublisher(reports.Format(cfg.Format), cfg.Compress, sinks,
		reports.WithLogger(logger), reports.WithMetrics(reg)), nil
}
