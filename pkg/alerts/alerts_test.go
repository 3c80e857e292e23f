package alerts

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/graph"
	"github.com/dd0wney/cluso-resilience/pkg/resilience"
)

var inprocSeq atomic.Int64

func inprocAddr() string {
	return fmt.Sprintf("inproc://alerts-test-%d", inprocSeq.Add(1))
}

type chainSource struct {
	disrupted bool
}

func (c chainSource) ListNodes(context.Context) ([]graph.NodeRecord, error) {
	var out []graph.NodeRecord
	for _, id := range []string{"N1", "N2", "N3"} {
		n := graph.NodeRecord{NodeID: id, Name: id, Type: graph.NodeTypeDistributor}
		if c.disrupted && id == "N3" {
			n.Status = graph.NodeDisrupted
		}
		n.ApplyDefaults()
		out = append(out, n)
	}
	return out, nil
}

func (chainSource) ListRoutes(context.Context) ([]graph.RouteRecord, error) {
	a := graph.RouteRecord{Source: "N1", Target: "N2"}
	b := graph.RouteRecord{Source: "N2", Target: "N3", RiskLevel: graph.RiskCritical}
	a.ApplyDefaults()
	b.ApplyDefaults()
	return []graph.RouteRecord{a, b}, nil
}

func snapshot(t *testing.T, src chainSource) *resilience.Snapshot {
	t.Helper()
	snap, err := resilience.AnalyzeSource(context.Background(), src, algorithms.DefaultMetricsConfig())
	require.NoError(t, err)
	return snap
}

type recorder struct {
	got []Alert
}

func (r *recorder) Publish(alerts ...Alert) error {
	r.got = append(r.got, alerts...)
	return nil
}

func kinds(alerts []Alert) []Kind {
	out := make([]Kind, len(alerts))
	for i, a := range alerts {
		out[i] = a.Kind
	}
	return out
}

func TestEvaluate(t *testing.T) {
	snap := snapshot(t, chainSource{disrupted: true})
	rules := Rules{HealthThreshold: 101, MaxNodeAlerts: 5}

	got := Evaluate(snap, rules, time.Now())
	require.NotEmpty(t, got)
	assert.Equal(t, KindHealthDegraded, got[0].Kind)
	assert.Contains(t, kinds(got), KindDisruptedNodes)
	assert.Contains(t, kinds(got), KindHighRiskRoutes)
	assert.Contains(t, kinds(got), KindBottleneck)

	for _, a := range got {
		assert.NotEmpty(t, a.ID)
		if a.Kind == KindBottleneck {
			assert.Equal(t, "N2", a.NodeID)
		}
	}
}

func TestEvaluateHealthyNetworkRaisesNoHealthAlert(t *testing.T) {
	snap := snapshot(t, chainSource{})
	got := Evaluate(snap, Rules{HealthThreshold: 0, MaxNodeAlerts: 0}, time.Now())
	assert.NotContains(t, kinds(got), KindHealthDegraded)
	assert.NotContains(t, kinds(got), KindBottleneck)
}

func TestEvaluateNil(t *testing.T) {
	assert.Nil(t, Evaluate(nil, DefaultRules(), time.Now()))
}

func TestDedup(t *testing.T) {
	d := NewDedup()
	a := Alert{Kind: KindBottleneck, NodeID: "N2"}
	b := Alert{Kind: KindHealthDegraded}

	assert.Len(t, d.Filter([]Alert{a, b}), 2)
	assert.Empty(t, d.Filter([]Alert{a, b}))
	// b clears, then comes back: it is fresh again.
	assert.Empty(t, d.Filter([]Alert{a}))
	assert.Equal(t, []Alert{b}, d.Filter([]Alert{a, b}))
}

func TestMessageCodec(t *testing.T) {
	in := Alert{ID: "x", Kind: KindCriticalNode, Severity: SeverityInfo, NodeID: "N1", Value: 0.75}
	msg, err := encodeMessage(in)
	require.NoError(t, err)
	assert.True(t, len(msg) > len(Topic(KindCriticalNode)))

	out, err := decodeMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, in.NodeID, out.NodeID)
	assert.Equal(t, in.Kind, out.Kind)

	_, err = decodeMessage([]byte("WAL:junk"))
	assert.Error(t, err)
}

func TestMonitorPublishesOnlyNewAlerts(t *testing.T) {
	out := &recorder{}
	m := NewMonitor(chainSource{disrupted: true}, algorithms.DefaultMetricsConfig(), DefaultRules(), out)

	first, err := m.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Len(t, out.got, len(first))
}

func TestPubSubRoundTrip(t *testing.T) {
	addr := inprocAddr()
	pub, err := NewPublisher(addr, nil, nil)
	require.NoError(t, err)
	defer pub.Close()

	sub, err := NewSubscriber(addr, KindBottleneck)
	require.NoError(t, err)
	defer sub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan Alert, 1)
	go func() {
		a, err := sub.Receive(ctx)
		if err == nil {
			received <- a
		}
	}()

	// PUB drops messages sent before the subscriber pipe is attached, so
	// resend until one lands. The health alert must be filtered out.
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		require.NoError(t, pub.Publish(
			Alert{ID: "h", Kind: KindHealthDegraded},
			Alert{ID: "b", Kind: KindBottleneck, NodeID: "N2"},
		))
		select {
		case a := <-received:
			assert.Equal(t, KindBottleneck, a.Kind)
			assert.Equal(t, "N2", a.NodeID)
			return
		case <-ctx.Done():
			t.Fatal("no alert received")
		case <-ticker.C:
		}
	}
}

func TestSubscriberReceiveHonoursContext(t *testing.T) {
	addr := inprocAddr()
	pub, err := NewPublisher(addr, nil, nil)
	require.NoError(t, err)
	defer pub.Close()

	sub, err := NewSubscriber(addr)
	require.NoError(t, err)
	defer sub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = sub.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
