package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/resilience"
)

// Broadcaster is satisfied by *Publisher.
type Broadcaster interface {
	Publish(alerts ...Alert) error
}

// Monitor analyses the network on each run and broadcasts newly raised alerts.
type Monitor struct {
	mu    sync.Mutex
	src   resilience.NetworkSource
	cfg   algorithms.MetricsConfig
	rules Rules
	out   Broadcaster
	dedup *Dedup
	now   func() time.Time
}

func NewMonitor(src resilience.NetworkSource, cfg algorithms.MetricsConfig, rules Rules, out Broadcaster) *Monitor {
	return &Monitor{src: src, cfg: cfg, rules: rules, out: out, dedup: NewDedup(), now: time.Now}
}

// Run performs one evaluation pass and returns the alerts it broadcast.
func (m *Monitor) Run(ctx context.Context) ([]Alert, error) {
	snap, err := resilience.AnalyzeSource(ctx, m.src, m.cfg)
	if err != nil {
		return nil, fmt.Errorf("analyse network: %w", err)
	}

	m.mu.Lock()
	fresh := m.dedup.Filter(Evaluate(snap, m.rules, m.now()))
	m.mu.Unlock()

	if len(fresh) == 0 {
		return nil, nil
	}
	if err := m.out.Publish(fresh...); err != nil {
		return nil, err
	}
	return fresh, nil
}

// Job adapts Run to the scheduler's job signature.
func (m *Monitor) Job() func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := m.Run(ctx)
		return err
	}
}
