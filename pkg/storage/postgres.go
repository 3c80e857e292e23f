package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dd0wney/cluso-resilience/pkg/graph"
)

// PGStore keeps the network in PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore connects to databaseURL and creates the tables if needed.
func NewPGStore(ctx context.Context, databaseURL string) (*PGStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 2
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	s := &PGStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

func (s *PGStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS nodes (
		seq BIGSERIAL,
		node_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
		longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
		capacity DOUBLE PRECISION NOT NULL DEFAULT 0,
		region TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		metrics JSONB,
		metadata JSONB,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS routes (
		seq BIGSERIAL,
		source TEXT NOT NULL,
		target TEXT NOT NULL,
		distance DOUBLE PRECISION NOT NULL DEFAULT 0,
		cost DOUBLE PRECISION NOT NULL DEFAULT 0,
		time DOUBLE PRECISION NOT NULL DEFAULT 0,
		capacity DOUBLE PRECISION NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'active',
		transport_mode TEXT NOT NULL DEFAULT 'road',
		risk_level TEXT NOT NULL DEFAULT 'low',
		metadata JSONB,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (source, target)
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_seq ON nodes(seq);
	CREATE INDEX IF NOT EXISTS idx_routes_seq ON routes(seq);
	CREATE INDEX IF NOT EXISTS idx_routes_target ON routes(target);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

const pgNodeColumns = `node_id, name, type, latitude, longitude, capacity, region, country, city,
	status, metrics, metadata, created_at, updated_at`

func (s *PGStore) ListNodes(ctx context.Context) ([]graph.NodeRecord, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+pgNodeColumns+" FROM nodes ORDER BY seq ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	defer rows.Close()

	nodes := []graph.NodeRecord{}
	for rows.Next() {
		rec, err := scanPGNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}
	return nodes, nil
}

func (s *PGStore) GetNode(ctx context.Context, nodeID string) (*graph.NodeRecord, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+pgNodeColumns+" FROM nodes WHERE node_id = $1", nodeID)
	rec, err := scanPGNode(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("node %s: %w", nodeID, ErrNotFound)
	}
	return rec, err
}

func scanPGNode(row pgx.Row) (*graph.NodeRecord, error) {
	var (
		rec               graph.NodeRecord
		metrics, metadata []byte
		typ, status       string
	)
	err := row.Scan(&rec.NodeID, &rec.Name, &typ, &rec.Latitude, &rec.Longitude, &rec.Capacity,
		&rec.Region, &rec.Country, &rec.City, &status, &metrics, &metadata, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan node: %w", err)
	}
	rec.Type = graph.NodeType(typ)
	rec.Status = graph.NodeStatus(status)
	if err := unmarshalJSON(metrics, &rec.Metrics); err != nil {
		return nil, fmt.Errorf("node %s metrics: %w", rec.NodeID, err)
	}
	if err := unmarshalJSON(metadata, &rec.Metadata); err != nil {
		return nil, fmt.Errorf("node %s metadata: %w", rec.NodeID, err)
	}
	return &rec, nil
}

func (s *PGStore) UpsertNode(ctx context.Context, rec graph.NodeRecord) error {
	metadata, err := marshalJSON(rec.Metadata)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO nodes (node_id, name, type, latitude, longitude, capacity, region, country, city,
		                   status, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		ON CONFLICT (node_id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			capacity = EXCLUDED.capacity,
			region = EXCLUDED.region,
			country = EXCLUDED.country,
			city = EXCLUDED.city,
			status = EXCLUDED.status,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at
	`, rec.NodeID, rec.Name, string(rec.Type), rec.Latitude, rec.Longitude, rec.Capacity,
		rec.Region, rec.Country, rec.City, string(rec.Status), metadata, now)
	if err != nil {
		return fmt.Errorf("failed to upsert node: %w", err)
	}
	return nil
}

func (s *PGStore) DeleteNode(ctx context.Context, nodeID string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM nodes WHERE node_id = $1", nodeID)
	if err != nil {
		return fmt.Errorf("failed to delete node: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", nodeID, ErrNotFound)
	}
	return nil
}

func (s *PGStore) ListRoutes(ctx context.Context) ([]graph.RouteRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT source, target, distance, cost, time, capacity, status, transport_mode, risk_level,
		       metadata, created_at, updated_at
		FROM routes
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	defer rows.Close()

	routes := []graph.RouteRecord{}
	for rows.Next() {
		var (
			rec                graph.RouteRecord
			status, mode, risk string
			metadata           []byte
		)
		if err := rows.Scan(&rec.Source, &rec.Target, &rec.Distance, &rec.Cost, &rec.Time, &rec.Capacity,
			&status, &mode, &risk, &metadata, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan route: %w", err)
		}
		rec.Status = graph.RouteStatus(status)
		rec.TransportMode = graph.TransportMode(mode)
		rec.RiskLevel = graph.RiskLevel(risk)
		if err := unmarshalJSON(metadata, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("route %s->%s metadata: %w", rec.Source, rec.Target, err)
		}
		routes = append(routes, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating routes: %w", err)
	}
	return routes, nil
}

func (s *PGStore) UpsertRoute(ctx context.Context, rec graph.RouteRecord) error {
	metadata, err := marshalJSON(rec.Metadata)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO routes (source, target, distance, cost, time, capacity, status, transport_mode,
		                    risk_level, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (source, target) DO UPDATE SET
			distance = EXCLUDED.distance,
			cost = EXCLUDED.cost,
			time = EXCLUDED.time,
			capacity = EXCLUDED.capacity,
			status = EXCLUDED.status,
			transport_mode = EXCLUDED.transport_mode,
			risk_level = EXCLUDED.risk_level,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at
	`, rec.Source, rec.Target, rec.Distance, rec.Cost, rec.Time, rec.Capacity, string(rec.Status),
		string(rec.TransportMode), string(rec.RiskLevel), metadata, now)
	if err != nil {
		return fmt.Errorf("failed to upsert route: %w", err)
	}
	return nil
}

func (s *PGStore) DeleteRoute(ctx context.Context, source, target string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM routes WHERE source = $1 AND target = $2", source, target)
	if err != nil {
		return fmt.Errorf("failed to delete route: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("route %s->%s: %w", source, target, ErrNotFound)
	}
	return nil
}

func (s *PGStore) SaveNodeMetrics(ctx context.Context, metrics map[string]graph.StoredMetrics) error {
	batch := &pgx.Batch{}
	for id, m := range metrics {
		data, err := marshalJSON(m)
		if err != nil {
			return err
		}
		batch.Queue("UPDATE nodes SET metrics = $1 WHERE node_id = $2", data, id)
	}
	if batch.Len() == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save metrics: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit metrics: %w", err)
	}
	return nil
}

func (s *PGStore) Clear(ctx context.Context) (int64, int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	nodes, err := tx.Exec(ctx, "DELETE FROM nodes")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to clear nodes: %w", err)
	}
	routes, err := tx.Exec(ctx, "DELETE FROM routes")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to clear routes: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to commit clear: %w", err)
	}
	return nodes.RowsAffected(), routes.RowsAffected(), nil
}

func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}
