// Package graphql exposes network analytics as a read-only GraphQL schema.
package graphql

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/resilience"
)

// Resolver holds what the schema's fields read from.
type Resolver struct {
	Source     resilience.NetworkSource
	Config     algorithms.MetricsConfig
	Disruption []algorithms.DisruptionOption
	// MaxPaths is used when a query does not pass maxPaths.
	MaxPaths int
	Logger   logging.Logger
}

// NewSchema builds the query schema over r.
func NewSchema(r *Resolver) (graphql.Schema, error) {
	if r == nil || r.Source == nil {
		return graphql.Schema{}, fmt.Errorf("graphql: resolver source is required")
	}
	if r.Logger == nil {
		r.Logger = logging.NewNopLogger()
	}
	if r.MaxPaths <= 0 {
		r.MaxPaths = algorithms.DefaultMaxPaths
	}

	t := newTypes()
	limitArg := graphql.FieldConfigArgument{
		"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: -1},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"networkStats": &graphql.Field{
				Type:    t.networkStats,
				Resolve: r.resolveNetworkStats,
			},
			"nodeMetrics": &graphql.Field{
				Type: t.nodeMetrics,
				Args: graphql.FieldConfigArgument{
					"nodeId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.resolveNodeMetrics,
			},
			"allNodeMetrics": &graphql.Field{
				Type:    graphql.NewList(t.nodeMetrics),
				Args:    limitArg,
				Resolve: r.resolveAllNodeMetrics,
			},
			"bottlenecks": &graphql.Field{
				Type:    graphql.NewList(t.bottleneck),
				Args:    limitArg,
				Resolve: r.resolveBottlenecks,
			},
			"criticalNodes": &graphql.Field{
				Type:    graphql.NewList(t.criticalNode),
				Args:    limitArg,
				Resolve: r.resolveCriticalNodes,
			},
			"criticalRoutes": &graphql.Field{
				Type:    graphql.NewList(t.criticalRoute),
				Args:    limitArg,
				Resolve: r.resolveCriticalRoutes,
			},
			"health": &graphql.Field{
				Type:    t.health,
				Resolve: r.resolveHealth,
			},
			"alternativePaths": &graphql.Field{
				Type: graphql.NewList(t.pathSummary),
				Args: graphql.FieldConfigArgument{
					"source":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"target":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"maxPaths": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: r.resolveAlternativePaths,
			},
			"disruption": &graphql.Field{
				Type: t.disruption,
				Args: graphql.FieldConfigArgument{
					"nodeId":     &graphql.ArgumentConfig{Type: graphql.String},
					"edgeSource": &graphql.ArgumentConfig{Type: graphql.String},
					"edgeTarget": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.resolveDisruption,
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to create schema: %w", err)
	}
	return schema, nil
}

type types struct {
	networkStats   *graphql.Object
	nodeMetrics    *graphql.Object
	bottleneck     *graphql.Object
	criticalNode   *graphql.Object
	criticalRoute  *graphql.Object
	recommendation *graphql.Object
	summary        *graphql.Object
	health         *graphql.Object
	pathSummary    *graphql.Object
	disruption     *graphql.Object
}

// scalars declares one field per name, all of the same type.
func scalars(fields graphql.Fields, typ graphql.Output, names ...string) graphql.Fields {
	for _, n := range names {
		fields[n] = &graphql.Field{Type: typ}
	}
	return fields
}

// newTypes builds the object types. Fields resolve by json tag through the
// default resolver.
func newTypes() types {
	var t types

	t.networkStats = graphql.NewObject(graphql.ObjectConfig{
		Name: "NetworkStats",
		Fields: scalars(
			scalars(graphql.Fields{}, graphql.Int, "totalNodes", "totalEdges"),
			graphql.Float, "density", "averageDegree", "globalClusteringCoefficient"),
	})

	nodeMetrics := scalars(graphql.Fields{}, graphql.Float,
		"degreeCentrality", "betweennessCentrality", "closenessCentrality", "clusteringCoefficient")
	scalars(nodeMetrics, graphql.Int, "inDegree", "outDegree", "totalDegree")
	scalars(nodeMetrics, graphql.Boolean, "isBottleneck", "isCritical")
	nodeMetrics["nodeId"] = &graphql.Field{Type: graphql.NewNonNull(graphql.String)}
	t.nodeMetrics = graphql.NewObject(graphql.ObjectConfig{Name: "NodeMetrics", Fields: nodeMetrics})

	bottleneck := scalars(graphql.Fields{}, graphql.Float, "betweennessScore", "normalizedScore")
	scalars(bottleneck, graphql.Int, "inDegree", "outDegree", "totalDegree")
	bottleneck["nodeId"] = &graphql.Field{Type: graphql.NewNonNull(graphql.String)}
	t.bottleneck = graphql.NewObject(graphql.ObjectConfig{Name: "Bottleneck", Fields: bottleneck})

	critical := scalars(graphql.Fields{}, graphql.Float, "criticalityScore", "degreeScore", "betweennessScore")
	scalars(critical, graphql.Int, "inDegree", "outDegree")
	critical["nodeId"] = &graphql.Field{Type: graphql.NewNonNull(graphql.String)}
	t.criticalNode = graphql.NewObject(graphql.ObjectConfig{Name: "CriticalNode", Fields: critical})

	t.criticalRoute = graphql.NewObject(graphql.ObjectConfig{
		Name: "CriticalRoute",
		Fields: scalars(
			scalars(graphql.Fields{}, graphql.String, "source", "target"),
			graphql.Float, "score"),
	})

	t.recommendation = graphql.NewObject(graphql.ObjectConfig{
		Name:   "Recommendation",
		Fields: scalars(graphql.Fields{}, graphql.String, "priority", "issue", "description", "action"),
	})

	t.summary = graphql.NewObject(graphql.ObjectConfig{
		Name: "HealthSummary",
		Fields: scalars(graphql.Fields{}, graphql.Int,
			"totalNodes", "activeNodes", "disruptedNodes",
			"totalRoutes", "activeRoutes", "disruptedRoutes", "highRiskRoutes",
			"bottlenecks", "criticalNodes"),
	})

	t.health = graphql.NewObject(graphql.ObjectConfig{
		Name: "NetworkHealth",
		Fields: graphql.Fields{
			"healthScore":     &graphql.Field{Type: graphql.Int},
			"healthStatus":    &graphql.Field{Type: graphql.String},
			"summary":         &graphql.Field{Type: t.summary},
			"networkStats":    &graphql.Field{Type: t.networkStats},
			"recommendations": &graphql.Field{Type: graphql.NewList(t.recommendation)},
		},
	})

	pathSummary := scalars(graphql.Fields{}, graphql.Float, "totalDistance", "totalCost", "totalTime")
	pathSummary["path"] = &graphql.Field{Type: graphql.NewList(graphql.String)}
	pathSummary["hops"] = &graphql.Field{Type: graphql.Int}
	pathSummary["maxRisk"] = &graphql.Field{Type: graphql.String}
	t.pathSummary = graphql.NewObject(graphql.ObjectConfig{Name: "PathSummary", Fields: pathSummary})

	disruption := scalars(graphql.Fields{}, graphql.String, "kind", "element", "recommendation")
	scalars(disruption, graphql.Int, "nodesBefore", "nodesAfter", "edgesBefore", "edgesAfter")
	disruption["applied"] = &graphql.Field{Type: graphql.Boolean}
	disruption["affectedNodes"] = &graphql.Field{Type: graphql.NewList(graphql.String)}
	disruption["alternativePaths"] = &graphql.Field{Type: graphql.NewList(t.pathSummary)}
	t.disruption = graphql.NewObject(graphql.ObjectConfig{Name: "Disruption", Fields: disruption})

	return t
}
