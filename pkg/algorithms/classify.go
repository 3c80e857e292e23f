package algorithms

import (
	"fmt"
	"sort"

	"github.com/dd0wney/cluso-resilience/pkg/graph"
)

const (
	DefaultBottleneckThreshold = 0.05
	DefaultCriticalThreshold   = 0.10
)

// ClassifierConfig holds the thresholds used to flag nodes.
type ClassifierConfig struct {
	BottleneckThreshold float64 `json:"bottleneckThreshold" yaml:"bottleneckThreshold"`
	CriticalThreshold   float64 `json:"criticalThreshold" yaml:"criticalThreshold"`
}

func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		BottleneckThreshold: DefaultBottleneckThreshold,
		CriticalThreshold:   DefaultCriticalThreshold,
	}
}

// Validate checks that both thresholds lie in (0, 1].
func (c ClassifierConfig) Validate() error {
	if c.BottleneckThreshold <= 0 || c.BottleneckThreshold > 1 {
		return fmt.Errorf("%w: bottleneck threshold %v must be in (0, 1]", ErrInvalidRequest, c.BottleneckThreshold)
	}
	if c.CriticalThreshold <= 0 || c.CriticalThreshold > 1 {
		return fmt.Errorf("%w: critical threshold %v must be in (0, 1]", ErrInvalidRequest, c.CriticalThreshold)
	}
	return nil
}

// Bottleneck is a node carrying a large share of shortest-path traffic.
type Bottleneck struct {
	NodeID           string  `json:"nodeId"`
	BetweennessScore float64 `json:"betweennessScore"`
	NormalizedScore  float64 `json:"normalizedScore"`
	InDegree         int     `json:"inDegree"`
	OutDegree        int     `json:"outDegree"`
	TotalDegree      int     `json:"totalDegree"`
}

// CriticalNode is a node whose combined degree and betweenness rank is high.
type CriticalNode struct {
	NodeID           string  `json:"nodeId"`
	CriticalityScore float64 `json:"criticalityScore"`
	// DegreeScore and BetweennessScore are the raw centralities, not the
	// max-normalised values averaged into CriticalityScore.
	DegreeScore      float64 `json:"degreeScore"`
	BetweennessScore float64 `json:"betweennessScore"`
	InDegree         int     `json:"inDegree"`
	OutDegree        int     `json:"outDegree"`
}

func maxScore(ids []string, scores map[string]float64) float64 {
	m := 0.0
	for _, id := range ids {
		if scores[id] > m {
			m = scores[id]
		}
	}
	return m
}

// IdentifyBottlenecks flags nodes whose betweenness divided by the network
// maximum reaches threshold. Nothing qualifies when the maximum is 0.
// Results are sorted by betweenness descending, then node id.
func IdentifyBottlenecks(g *graph.Graph, betweenness map[string]float64, threshold float64) []Bottleneck {
	ids := g.NodeIDs()
	peak := maxScore(ids, betweenness)
	if peak <= 0 {
		return []Bottleneck{}
	}

	result := make([]Bottleneck, 0)
	for _, id := range ids {
		score := betweenness[id]
		normalized := score / peak
		if normalized < threshold {
			continue
		}
		in, out := g.InDegree(id), g.OutDegree(id)
		result = append(result, Bottleneck{
			NodeID:           id,
			BetweennessScore: score,
			NormalizedScore:  normalized,
			InDegree:         in,
			OutDegree:        out,
			TotalDegree:      in + out,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].BetweennessScore != result[j].BetweennessScore {
			return result[i].BetweennessScore > result[j].BetweennessScore
		}
		return result[i].NodeID < result[j].NodeID
	})
	return result
}

// IdentifyCriticalNodes scores each node as the mean of its degree and
// betweenness, each divided by the network maximum (a zero maximum
// contributes 0). Nodes at or above threshold are returned, highest first.
func IdentifyCriticalNodes(g *graph.Graph, degree, betweenness map[string]float64, threshold float64) []CriticalNode {
	ids := g.NodeIDs()
	maxDegree := maxScore(ids, degree)
	maxBetweenness := maxScore(ids, betweenness)

	result := make([]CriticalNode, 0)
	for _, id := range ids {
		normDegree, normBetweenness := 0.0, 0.0
		if maxDegree > 0 {
			normDegree = degree[id] / maxDegree
		}
		if maxBetweenness > 0 {
			normBetweenness = betweenness[id] / maxBetweenness
		}
		criticality := (normDegree + normBetweenness) / 2
		if criticality <= 0 || criticality < threshold {
			continue
		}
		result = append(result, CriticalNode{
			NodeID:           id,
			CriticalityScore: criticality,
			DegreeScore:      degree[id],
			BetweennessScore: betweenness[id],
			InDegree:         g.InDegree(id),
			OutDegree:        g.OutDegree(id),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CriticalityScore != result[j].CriticalityScore {
			return result[i].CriticalityScore > result[j].CriticalityScore
		}
		return result[i].NodeID < result[j].NodeID
	})
	return result
}
