// Package alerts turns analysis snapshots into alerts and broadcasts them
// over a nanomsg pub/sub socket.
package alerts

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-resilience/pkg/resilience"
)

type Kind string

const (
	KindHealthDegraded Kind = "health_degraded"
	KindBottleneck     Kind = "bottleneck"
	KindCriticalNode   Kind = "critical_node"
	KindDisruptedNodes Kind = "disrupted_nodes"
	KindHighRiskRoutes Kind = "high_risk_routes"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

type Alert struct {
	ID       string    `json:"id"`
	Kind     Kind      `json:"kind"`
	Severity Severity  `json:"severity"`
	NodeID   string    `json:"nodeId,omitempty"`
	Message  string    `json:"message"`
	Value    float64   `json:"value"`
	RaisedAt time.Time `json:"raisedAt"`
}

// Key identifies an alert condition independently of when it was raised.
func (a Alert) Key() string {
	return string(a.Kind) + "/" + a.NodeID
}

// Rules configures Evaluate.
type Rules struct {
	// HealthThreshold raises health_degraded when the score drops below it.
	HealthThreshold int
	// MaxNodeAlerts caps per-node bottleneck and critical-node alerts.
	MaxNodeAlerts int
}

func DefaultRules() Rules {
	return Rules{HealthThreshold: 60, MaxNodeAlerts: 5}
}

// Evaluate derives alerts from a snapshot. Output order is stable: network
// level alerts first, then bottlenecks and critical nodes in ranking order.
func Evaluate(snap *resilience.Snapshot, rules Rules, now time.Time) []Alert {
	if snap == nil || snap.Assessment == nil || snap.Metrics == nil {
		return nil
	}
	var out []Alert
	raise := func(kind Kind, sev Severity, nodeID, msg string, value float64) {
		out = append(out, Alert{
			ID:       uuid.NewString(),
			Kind:     kind,
			Severity: sev,
			NodeID:   nodeID,
			Message:  msg,
			Value:    value,
			RaisedAt: now.UTC(),
		})
	}

	a := snap.Assessment
	if a.Score < rules.HealthThreshold {
		sev := SeverityWarning
		if a.Status == resilience.StatusPoor || a.Status == resilience.StatusCritical {
			sev = SeverityCritical
		}
		raise(KindHealthDegraded, sev, "",
			fmt.Sprintf("network health %d (%s) is below %d", a.Score, a.Status, rules.HealthThreshold),
			float64(a.Score))
	}
	if n := a.Summary.DisruptedNodes; n > 0 {
		raise(KindDisruptedNodes, SeverityCritical, "", fmt.Sprintf("%d nodes are disrupted", n), float64(n))
	}
	if n := a.Summary.HighRiskRoutes; n > 0 {
		raise(KindHighRiskRoutes, SeverityWarning, "", fmt.Sprintf("%d routes are high or critical risk", n), float64(n))
	}

	for i, b := range snap.Metrics.Bottlenecks {
		if i >= rules.MaxNodeAlerts {
			break
		}
		raise(KindBottleneck, SeverityWarning, b.NodeID,
			fmt.Sprintf("%s carries %.0f%% of the peak betweenness", b.NodeID, b.NormalizedScore*100),
			b.BetweennessScore)
	}
	for i, c := range snap.Metrics.CriticalNodes {
		if i >= rules.MaxNodeAlerts {
			break
		}
		raise(KindCriticalNode, SeverityInfo, c.NodeID,
			fmt.Sprintf("%s has criticality %.2f", c.NodeID, c.CriticalityScore),
			c.CriticalityScore)
	}
	return out
}

// Dedup remembers which conditions were active on the previous pass and
// passes through only newly raised ones.
type Dedup struct {
	active map[string]struct{}
}

func NewDedup() *Dedup {
	return &Dedup{active: make(map[string]struct{})}
}

// Filter returns the alerts not active last time and makes the given set the
// new active set. Not safe for concurrent use.
func (d *Dedup) Filter(alerts []Alert) []Alert {
	next := make(map[string]struct{}, len(alerts))
	var fresh []Alert
	for _, a := range alerts {
		k := a.Key()
		next[k] = struct{}{}
		if _, seen := d.active[k]; !seen {
			fresh = append(fresh, a)
		}
	}
	d.active = next
	return fresh
}
