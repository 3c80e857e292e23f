package api

import (
	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/audit"
	"github.com/dd0wney/cluso-resilience/pkg/graph"
	"github.com/dd0wney/cluso-resilience/pkg/scheduler"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type VersionResponse struct {
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

type NodeListResponse struct {
	Count int                `json:"count"`
	Nodes []graph.NodeRecord `json:"nodes"`
}

type RouteListResponse struct {
	Count  int                 `json:"count"`
	Routes []graph.RouteRecord `json:"routes"`
}

// GroupCount is one bucket of a stats breakdown.
type GroupCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type NodeStatsResponse struct {
	TotalNodes int          `json:"totalNodes"`
	ByType     []GroupCount `json:"byType"`
	ByStatus   []GroupCount `json:"byStatus"`
	ByRegion   []GroupCount `json:"byRegion"`
}

type RouteTotals struct {
	AvgDistance   float64 `json:"avgDistance"`
	AvgCost       float64 `json:"avgCost"`
	AvgTime       float64 `json:"avgTime"`
	TotalDistance float64 `json:"totalDistance"`
	TotalCost     float64 `json:"totalCost"`
}

type RouteStatsResponse struct {
	TotalRoutes     int          `json:"totalRoutes"`
	ByStatus        []GroupCount `json:"byStatus"`
	ByTransportMode []GroupCount `json:"byTransportMode"`
	ByRiskLevel     []GroupCount `json:"byRiskLevel"`
	Metrics         RouteTotals  `json:"metrics"`
}

// RouteError reports a route that could not be imported.
type RouteError struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Error  string `json:"error"`
}

type ImportResponse struct {
	Message        string       `json:"message"`
	NodesInserted  int          `json:"nodesInserted"`
	RoutesInserted int          `json:"routesInserted"`
	RoutesSkipped  int          `json:"routesSkipped"`
	RouteErrors    []RouteError `json:"routeErrors,omitempty"`
	MissingNodes   []string     `json:"missingNodes,omitempty"`
	Warning        string       `json:"warning,omitempty"`
}

type ClearResponse struct {
	Message       string `json:"message"`
	NodesDeleted  int64  `json:"nodesDeleted"`
	RoutesDeleted int64  `json:"routesDeleted"`
}

type MetricsResponse struct {
	Message        string                            `json:"message"`
	NodeMetrics    map[string]algorithms.NodeMetrics `json:"nodeMetrics"`
	NetworkStats   algorithms.NetworkStats           `json:"networkStats"`
	Bottlenecks    []algorithms.Bottleneck           `json:"bottlenecks"`
	CriticalNodes  []algorithms.CriticalNode         `json:"criticalNodes"`
	CriticalRoutes []algorithms.CriticalRoute        `json:"criticalRoutes"`
}

type BottlenecksResponse struct {
	Count       int                     `json:"count"`
	Bottlenecks []algorithms.Bottleneck `json:"bottlenecks"`
}

type CriticalNodesResponse struct {
	Count         int                       `json:"count"`
	CriticalNodes []algorithms.CriticalNode `json:"criticalNodes"`
}

type CriticalRoutesResponse struct {
	Count          int                        `json:"count"`
	CriticalRoutes []algorithms.CriticalRoute `json:"criticalRoutes"`
}

// DisruptionImpact compares network size before and after a removal.
type DisruptionImpact struct {
	AffectedNodes     []string `json:"affectedNodes"`
	NetworkSizeBefore int      `json:"networkSizeBefore"`
	NetworkSizeAfter  int      `json:"networkSizeAfter"`
	EdgesBefore       int      `json:"edgesBefore"`
	EdgesAfter        int      `json:"edgesAfter"`
	NodesDisconnected int      `json:"nodesDisconnected"`
}

type DisruptionResponse struct {
	Message          string                    `json:"message"`
	DisruptionType   algorithms.DisruptionKind `json:"disruptionType"`
	DisruptedElement string                    `json:"disruptedElement"`
	Applied          bool                      `json:"applied"`
	Impact           DisruptionImpact          `json:"impact"`
	AlternativePaths []algorithms.PathSummary  `json:"alternativePaths"`
	Recommendation   string                    `json:"recommendation"`
}

type PathsResponse struct {
	Source     string                   `json:"source"`
	Target     string                   `json:"target"`
	PathsFound int                      `json:"pathsFound"`
	Paths      []algorithms.PathSummary `json:"paths"`
}

type JobsResponse struct {
	Count int                 `json:"count"`
	Jobs  []scheduler.JobInfo `json:"jobs"`
}

type AuditResponse struct {
	Count    int            `json:"count"`
	Retained int            `json:"retained"`
	Events   []*audit.Event `json:"events"`
}
