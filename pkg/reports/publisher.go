package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/metrics"
	"github.com/dd0wney/cluso-resilience/pkg/resilience"
)

// Publisher encodes reports once and fans them out to every sink.
type Publisher struct {
	sinks    []Sink
	format   Format
	compress bool
	metrics  *metrics.Registry
	logger   logging.Logger
	now      func() time.Time
}

type PublisherOption func(*Publisher)

func WithMetrics(r *metrics.Registry) PublisherOption {
	return func(p *Publisher) { p.metrics = r }
}

func WithLogger(l logging.Logger) PublisherOption {
	return func(p *Publisher) { p.logger = l }
}

func NewPublisher(format Format, compress bool, sinks []Sink, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		sinks:    sinks,
		format:   format,
		compress: compress,
		logger:   logging.NewNopLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FileName is the object name a report is stored under.
func (p *Publisher) FileName(r *Report) string {
	return fmt.Sprintf("report-%s-%s%s", r.GeneratedAt.Format("20060102T150405Z"), r.ID, p.format.Ext(p.compress))
}

// Publish writes r to all sinks. A failing sink does not stop the others;
// their errors are joined.
func (p *Publisher) Publish(ctx context.Context, r *Report) (string, error) {
	data, err := Encode(r, p.format, p.compress)
	if err != nil {
		return "", err
	}
	name := p.FileName(r)

	var errs []error
	for _, sink := range p.sinks {
		err := sink.Write(ctx, name, p.format.ContentType(), data)
		if p.metrics != nil {
			p.metrics.RecordReport(sink.Name(), err, len(data))
		}
		if err != nil {
			p.logger.Error("report sink failed",
				logging.String("sink", sink.Name()),
				logging.String("report", name),
				logging.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			continue
		}
		p.logger.Info("report written",
			logging.String("sink", sink.Name()),
			logging.String("report", name),
			logging.Int("bytes", len(data)))
	}
	return name, errors.Join(errs...)
}

// Generate analyses the network from src and publishes the result.
func (p *Publisher) Generate(ctx context.Context, name string, src resilience.NetworkSource, cfg algorithms.MetricsConfig) (*Report, error) {
	timer := logging.StartTimer(p.logger, "report generated", logging.String("report", name))
	snap, err := resilience.AnalyzeSource(ctx, src, cfg)
	if err != nil {
		err = fmt.Errorf("analyse network: %w", err)
		timer.EndError(err)
		return nil, err
	}
	r := New(name, snap.Metrics, snap.Assessment, p.now())
	if _, err := p.Publish(ctx, r); err != nil {
		timer.EndError(err)
		return r, err
	}
	timer.End(logging.Int("health_score", r.HealthScore))
	return r, nil
}

// Job adapts Generate to the scheduler's job signature.
func (p *Publisher) Job(name string, src resilience.NetworkSource, cfg algorithms.MetricsConfig) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := p.Generate(ctx, name, src, cfg)
		return err
	}
}
