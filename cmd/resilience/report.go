package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-resilience/pkg/reports"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		name     string
		format   string
		compress bool
		outDir   string
	)
	cmd := &cobra.Command{
		Use:     "report",
		Short:   "Generate a network report",
		Long:    "Generate a network report. Without --out the report is written to stdout.",
		GroupID: "analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			snap, err := a.analyze(ctx)
			if err != nil {
				return err
			}
			report := reports.New(name, snap.Metrics, snap.Assessment, time.Now())

			if outDir == "" {
				data, err := reports.Encode(report, reports.Format(format), compress)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			sink, err := reports.NewFileSink(outDir)
			if err != nil {
				return err
			}
			publisher := reports.NewPublisher(reports.Format(format), compress, []reports.Sink{sink},
				reports.WithLogger(a.logger))
			file, err := publisher.Publish(ctx, report)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report written: %s\n", file)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "network-report", "report name")
	cmd.Flags().StringVar(&format, "format", "json", "report format (json or yaml)")
	cmd.Flags().BoolVar(&compress, "compress", false, "snappy-compress the report")
	cmd.Flags().StringVar(&outDir, "out", "", "directory to write the report to")
	return cmd
}
