// Package reports renders analysis results into archived report documents
// and ships them to file or S3 sinks.
package reports

import (
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/resilience"
)

// TopN caps the ranked sections of a report.
const TopN = 10

// Report is one archived analysis snapshot.
type Report struct {
	ID              string                      `json:"id"`
	Name            string                      `json:"name"`
	GeneratedAt     time.Time                   `json:"generatedAt"`
	NetworkStats    algorithms.NetworkStats     `json:"networkStats"`
	HealthScore     int                         `json:"healthScore"`
	HealthStatus    resilience.Status           `json:"healthStatus"`
	Summary         resilience.Summary          `json:"summary"`
	Bottlenecks     []algorithms.Bottleneck     `json:"bottlenecks"`
	CriticalNodes   []algorithms.CriticalNode   `json:"criticalNodes"`
	CriticalRoutes  []algorithms.CriticalRoute  `json:"criticalRoutes"`
	Recommendations []resilience.Recommendation `json:"recommendations"`
}

// New assembles a report from a metrics run and its health assessment.
// Ranked sections keep at most TopN entries.
func New(name string, result *algorithms.MetricsResult, assessment *resilience.Assessment, now time.Time) *Report {
	r := &Report{
		ID:          uuid.NewString(),
		Name:        name,
		GeneratedAt: now.UTC(),
	}
	if result != nil {
		r.NetworkStats = result.NetworkStats
		r.Bottlenecks = head(result.Bottlenecks, TopN)
		r.CriticalNodes = head(result.CriticalNodes, TopN)
		r.CriticalRoutes = head(result.CriticalRoutes, TopN)
	}
	if assessment != nil {
		r.HealthScore = assessment.Score
		r.HealthStatus = assessment.Status
		r.Summary = assessment.Summary
		r.Recommendations = assessment.Recommendations
	}
	return r
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		s = s[:n]
	}
	return append([]T(nil), s...)
}
