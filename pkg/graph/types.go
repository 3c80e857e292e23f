package graph

import (
	"strings"
	"time"
)

// NodeType is the kind of facility a node represents.
type NodeType string

const (
	NodeTypeSupplier     NodeType = "supplier"
	NodeTypeWarehouse    NodeType = "warehouse"
	NodeTypeDistributor  NodeType = "distributor"
	NodeTypeRetailer     NodeType = "retailer"
	NodeTypeManufacturer NodeType = "manufacturer"
	NodeTypeOther        NodeType = "other"
)

// NodeStatus is the operational state of a facility.
type NodeStatus string

const (
	NodeActive    NodeStatus = "active"
	NodeInactive  NodeStatus = "inactive"
	NodeDisrupted NodeStatus = "disrupted"
)

// RouteStatus is the operational state of a transport route.
type RouteStatus string

const (
	RouteActive    RouteStatus = "active"
	RouteInactive  RouteStatus = "inactive"
	RouteDisrupted RouteStatus = "disrupted"
	RouteCongested RouteStatus = "congested"
)

type TransportMode string

const (
	TransportRoad       TransportMode = "road"
	TransportRail       TransportMode = "rail"
	TransportAir        TransportMode = "air"
	TransportSea        TransportMode = "sea"
	TransportMultimodal TransportMode = "multimodal"
	TransportOther      TransportMode = "other"
)

// RiskLevel grades a route. Levels are ordered by severity.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Severity returns 0 for low up to 3 for critical, and -1 for unknown levels.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	default:
		return -1
	}
}

// AtLeast reports whether r is as severe as other.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return r.Severity() >= other.Severity()
}

// StoredMetrics is the last computed metric snapshot written back onto a node record.
type StoredMetrics struct {
	DegreeCentrality      float64    `json:"degreeCentrality" yaml:"degreeCentrality"`
	BetweennessCentrality float64    `json:"betweennessCentrality" yaml:"betweennessCentrality"`
	ClosenessCentrality   float64    `json:"closenessCentrality" yaml:"closenessCentrality"`
	ClusteringCoefficient float64    `json:"clusteringCoefficient" yaml:"clusteringCoefficient"`
	IsBottleneck          bool       `json:"isBottleneck" yaml:"isBottleneck"`
	IsCritical            bool       `json:"isCritical" yaml:"isCritical"`
	ComputedAt            *time.Time `json:"computedAt,omitempty" yaml:"computedAt,omitempty"`
}

// NodeRecord is a persisted facility.
type NodeRecord struct {
	NodeID    string            `json:"nodeId" yaml:"nodeId" validate:"required,max=128"`
	Name      string            `json:"name" yaml:"name" validate:"required,max=256"`
	Type      NodeType          `json:"type" yaml:"type" validate:"required,oneof=supplier warehouse distributor retailer manufacturer other"`
	Latitude  float64           `json:"latitude" yaml:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64           `json:"longitude" yaml:"longitude" validate:"gte=-180,lte=180"`
	Capacity  float64           `json:"capacity" yaml:"capacity" validate:"gte=0"`
	Region    string            `json:"region,omitempty" yaml:"region,omitempty"`
	Country   string            `json:"country,omitempty" yaml:"country,omitempty"`
	City      string            `json:"city,omitempty" yaml:"city,omitempty"`
	Status    NodeStatus        `json:"status" yaml:"status" validate:"omitempty,oneof=active inactive disrupted"`
	Metrics   StoredMetrics     `json:"metrics" yaml:"metrics,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt" yaml:"createdAt,omitempty"`
	UpdatedAt time.Time         `json:"updatedAt" yaml:"updatedAt,omitempty"`
}

// ApplyDefaults normalizes the type and fills in an empty status.
func (r *NodeRecord) ApplyDefaults() {
	r.NodeID = strings.TrimSpace(r.NodeID)
	r.Type = NodeType(strings.ToLower(strings.TrimSpace(string(r.Type))))
	if r.Status == "" {
		r.Status = NodeActive
	}
}

// RouteRecord is a persisted directed transport link.
type RouteRecord struct {
	Source        string            `json:"source" yaml:"source" validate:"required,max=128"`
	Target        string            `json:"target" yaml:"target" validate:"required,max=128"`
	Distance      float64           `json:"distance" yaml:"distance" validate:"gte=0"`
	Cost          float64           `json:"cost" yaml:"cost" validate:"gte=0"`
	Time          float64           `json:"time" yaml:"time" validate:"gte=0"`
	Capacity      float64           `json:"capacity" yaml:"capacity" validate:"gte=0"`
	Status        RouteStatus       `json:"status" yaml:"status" validate:"omitempty,oneof=active inactive disrupted congested"`
	TransportMode TransportMode     `json:"transportMode" yaml:"transportMode" validate:"omitempty,oneof=road rail air sea multimodal other"`
	RiskLevel     RiskLevel         `json:"riskLevel" yaml:"riskLevel" validate:"omitempty,oneof=low medium high critical"`
	Metadata      map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"createdAt" yaml:"createdAt,omitempty"`
	UpdatedAt     time.Time         `json:"updatedAt" yaml:"updatedAt,omitempty"`
}

func (r *RouteRecord) ApplyDefaults() {
	r.Source = strings.TrimSpace(r.Source)
	r.Target = strings.TrimSpace(r.Target)
	if r.Status == "" {
		r.Status = RouteActive
	}
	if r.TransportMode == "" {
		r.TransportMode = TransportRoad
	}
	if r.RiskLevel == "" {
		r.RiskLevel = RiskLow
	}
}

// Node is a facility inside a Graph. Attributes are copied from the record.
type Node struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Type      NodeType          `json:"type"`
	Latitude  float64           `json:"latitude"`
	Longitude float64           `json:"longitude"`
	Capacity  float64           `json:"capacity"`
	Region    string            `json:"region,omitempty"`
	Status    NodeStatus        `json:"status"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Edge is a directed route inside a Graph.
type Edge struct {
	Source        string            `json:"source"`
	Target        string            `json:"target"`
	Distance      float64           `json:"distance"`
	Cost          float64           `json:"cost"`
	Time          float64           `json:"time"`
	Status        RouteStatus       `json:"status"`
	TransportMode TransportMode     `json:"transportMode"`
	RiskLevel     RiskLevel         `json:"riskLevel"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// EdgeKey identifies an edge by its ordered endpoint pair.
type EdgeKey struct {
	Source string
	Target string
}

func (e Edge) Key() EdgeKey {
	return EdgeKey{Source: e.Source, Target: e.Target}
}

func nodeFromRecord(r NodeRecord) Node {
	return Node{
		ID:        r.NodeID,
		Name:      r.Name,
		Type:      r.Type,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Capacity:  r.Capacity,
		Region:    r.Region,
		Status:    r.Status,
		Metadata:  copyMetadata(r.Metadata),
	}
}

func edgeFromRecord(r RouteRecord) Edge {
	return Edge{
		Source:        r.Source,
		Target:        r.Target,
		Distance:      r.Distance,
		Cost:          r.Cost,
		Time:          r.Time,
		Status:        r.Status,
		TransportMode: r.TransportMode,
		RiskLevel:     r.RiskLevel,
		Metadata:      copyMetadata(r.Metadata),
	}
}

func copyMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
