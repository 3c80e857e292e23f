// Package resilience grades a supply-chain network and suggests remediations.
package resilience

import (
	"fmt"
	"math"
	"sort"

	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/graph"
)

// Status buckets a health score.
type Status string

const (
	StatusExcellent Status = "Excellent"
	StatusGood      Status = "Good"
	StatusFair      Status = "Fair"
	StatusPoor      Status = "Poor"
	StatusCritical  Status = "Critical"
)

// StatusFor maps an unrounded score to its bucket.
func StatusFor(score float64) Status {
	switch {
	case score >= 80:
		return StatusExcellent
	case score >= 60:
		return StatusGood
	case score >= 40:
		return StatusFair
	case score >= 20:
		return StatusPoor
	default:
		return StatusCritical
	}
}

// Priority orders recommendations, most urgent first.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
	PriorityInfo     Priority = "info"
)

func (p Priority) rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// LowDensityThreshold is the density below which more routes are recommended.
const LowDensityThreshold = 0.1

type Recommendation struct {
	Priority    Priority `json:"priority"`
	Issue       string   `json:"issue"`
	Description string   `json:"description"`
	Action      string   `json:"action"`
}

type Summary struct {
	TotalNodes      int `json:"totalNodes"`
	ActiveNodes     int `json:"activeNodes"`
	DisruptedNodes  int `json:"disruptedNodes"`
	TotalRoutes     int `json:"totalRoutes"`
	ActiveRoutes    int `json:"activeRoutes"`
	DisruptedRoutes int `json:"disruptedRoutes"`
	HighRiskRoutes  int `json:"highRiskRoutes"`
	Bottlenecks     int `json:"bottlenecks"`
	CriticalNodes   int `json:"criticalNodes"`
}

// Assessment is the overall health of a network.
type Assessment struct {
	Score           int                     `json:"healthScore"`
	Status          Status                  `json:"healthStatus"`
	Summary         Summary                 `json:"summary"`
	NetworkStats    algorithms.NetworkStats `json:"networkStats"`
	Recommendations []Recommendation        `json:"recommendations"`
}

// Summarize counts node and route states alongside the classification sizes.
func Summarize(nodes []graph.NodeRecord, routes []graph.RouteRecord, result *algorithms.MetricsResult) Summary {
	s := Summary{
		TotalNodes:    len(nodes),
		TotalRoutes:   len(routes),
		Bottlenecks:   len(result.Bottlenecks),
		CriticalNodes: len(result.CriticalNodes),
	}
	for _, n := range nodes {
		switch n.Status {
		case graph.NodeActive:
			s.ActiveNodes++
		case graph.NodeDisrupted:
			s.DisruptedNodes++
		}
	}
	for _, r := range routes {
		switch r.Status {
		case graph.RouteActive:
			s.ActiveRoutes++
		case graph.RouteDisrupted:
			s.DisruptedRoutes++
		}
		if r.RiskLevel.AtLeast(graph.RiskHigh) {
			s.HighRiskRoutes++
		}
	}
	return s
}

// Score weights active nodes (40), active routes (30), absence of
// bottlenecks (20) and absence of high-risk routes (10), clamped to [0,100].
func Score(s Summary) float64 {
	nodes := float64(max(s.TotalNodes, 1))
	routes := float64(max(s.TotalRoutes, 1))

	score := float64(s.ActiveNodes)/nodes*40 +
		float64(s.ActiveRoutes)/routes*30 +
		(1-float64(s.Bottlenecks)/nodes)*20 +
		(1-float64(s.HighRiskRoutes)/routes)*10
	return math.Max(0, math.Min(100, score))
}

// Assess grades the network described by the records and their metrics.
func Assess(nodes []graph.NodeRecord, routes []graph.RouteRecord, result *algorithms.MetricsResult) (*Assessment, error) {
	if result == nil || len(nodes) == 0 {
		return nil, algorithms.ErrEmptyGraph
	}
	summary := Summarize(nodes, routes, result)
	score := Score(summary)

	return &Assessment{
		Score:           int(math.Round(score)),
		Status:          StatusFor(score),
		Summary:         summary,
		NetworkStats:    result.NetworkStats,
		Recommendations: Recommend(summary, result.NetworkStats),
	}, nil
}

// Recommend applies the remediation rules, most urgent first.
func Recommend(s Summary, stats algorithms.NetworkStats) []Recommendation {
	recs := make([]Recommendation, 0, 5)

	if s.Bottlenecks > 0 {
		recs = append(recs, Recommendation{
			Priority:    PriorityHigh,
			Issue:       "Bottleneck nodes detected",
			Description: fmt.Sprintf("%d bottleneck node(s) identified that could disrupt supply chain flow", s.Bottlenecks),
			Action:      "Consider adding redundant routes or increasing capacity at these nodes",
		})
	}
	if s.CriticalNodes > 0 {
		recs = append(recs, Recommendation{
			Priority:    PriorityHigh,
			Issue:       "Critical nodes identified",
			Description: fmt.Sprintf("%d critical node(s) with high connectivity", s.CriticalNodes),
			Action:      "Implement backup plans and monitoring for these critical nodes",
		})
	}
	if s.HighRiskRoutes > 0 {
		recs = append(recs, Recommendation{
			Priority:    PriorityMedium,
			Issue:       "High-risk routes detected",
			Description: fmt.Sprintf("%d route(s) with high risk levels", s.HighRiskRoutes),
			Action:      "Establish alternative routes and contingency plans",
		})
	}
	if s.DisruptedNodes > 0 {
		recs = append(recs, Recommendation{
			Priority:    PriorityCritical,
			Issue:       "Disrupted nodes",
			Description: fmt.Sprintf("%d node(s) currently disrupted", s.DisruptedNodes),
			Action:      "Immediate action required to restore operations or activate backup routes",
		})
	}
	if stats.Density < LowDensityThreshold {
		recs = append(recs, Recommendation{
			Priority:    PriorityLow,
			Issue:       "Low network density",
			Description: "Network has relatively few connections between nodes",
			Action:      "Consider establishing additional routes to improve resilience",
		})
	}
	if len(recs) == 0 {
		recs = append(recs, Recommendation{
			Priority:    PriorityInfo,
			Issue:       "Network healthy",
			Description: "No major issues detected in the supply chain network",
			Action:      "Continue monitoring and maintain current operations",
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority.rank() < recs[j].Priority.rank()
	})
	return recs
}
