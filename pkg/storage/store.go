// Package storage persists network nodes and routes.
//
// Two implementations share the Store interface: SQLiteStore for single-host
// deployments and the CLI, and PGStore for a shared PostgreSQL database.
// Both return records in insertion order so that graphs built from them are
// deterministic.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-resilience/pkg/graph"
)

// ErrNotFound is returned when a node or route does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence contract used by the API, CLI and scheduled jobs.
type Store interface {
	ListNodes(ctx context.Context) ([]graph.NodeRecord, error)
	GetNode(ctx context.Context, nodeID string) (*graph.NodeRecord, error)
	// UpsertNode creates the node or replaces its attributes. Stored metrics
	// and the creation time survive an update.
	UpsertNode(ctx context.Context, rec graph.NodeRecord) error
	DeleteNode(ctx context.Context, nodeID string) error

	ListRoutes(ctx context.Context) ([]graph.RouteRecord, error)
	UpsertRoute(ctx context.Context, rec graph.RouteRecord) error
	DeleteRoute(ctx context.Context, source, target string) error

	// SaveNodeMetrics writes computed metrics back onto existing nodes.
	// Unknown ids are ignored.
	SaveNodeMetrics(ctx context.Context, metrics map[string]graph.StoredMetrics) error
	// Clear removes every node and route and reports how many were deleted.
	Clear(ctx context.Context) (nodes, routes int64, err error)

	Ping(ctx context.Context) error
	Close() error
}

// Open returns the store for driver ("sqlite" or "postgres").
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return NewSQLiteStore(dsn)
	case "postgres", "postgresql":
		return NewPGStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

func marshalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal: %w", err)
	}
	return data, nil
}

func unmarshalJSON(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal: %w", err)
	}
	return nil
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PGStore)(nil)
)
