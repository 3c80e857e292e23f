package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dd0wney/cluso-resilience/pkg/graph"
)

// SQLiteStore keeps the network in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and initializes the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS nodes (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		node_id TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		latitude REAL NOT NULL DEFAULT 0,
		longitude REAL NOT NULL DEFAULT 0,
		capacity REAL NOT NULL DEFAULT 0,
		region TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		metrics TEXT,
		metadata TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS routes (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		target TEXT NOT NULL,
		distance REAL NOT NULL DEFAULT 0,
		cost REAL NOT NULL DEFAULT 0,
		time REAL NOT NULL DEFAULT 0,
		capacity REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'active',
		transport_mode TEXT NOT NULL DEFAULT 'road',
		risk_level TEXT NOT NULL DEFAULT 'low',
		metadata TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE(source, target)
	);

	CREATE INDEX IF NOT EXISTS idx_routes_source ON routes(source);
	CREATE INDEX IF NOT EXISTS idx_routes_target ON routes(target);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) ListNodes(ctx context.Context) ([]graph.NodeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT node_id, name, type, latitude, longitude, capacity, region, country, city,
		       status, metrics, metadata, created_at, updated_at
		FROM nodes
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	defer rows.Close()

	nodes := []graph.NodeRecord{}
	for rows.Next() {
		rec, err := scanNode(rows)
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

func (s *SQLiteStore) GetNode(ctx context.Context, nodeID string) (*graph.NodeRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT node_id, name, type, latitude, longitude, capacity, region, country, city,
		       status, metrics, metadata, created_at, updated_at
		FROM nodes
		WHERE node_id = ?
	`, nodeID)
	rec, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("node %s: %w", nodeID, ErrNotFound)
	}
	return rec, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*graph.NodeRecord, error) {
	var (
		rec               graph.NodeRecord
		metrics, metadata sql.NullString
		typ, status       string
	)
	err := row.Scan(&rec.NodeID, &rec.Name, &typ, &rec.Latitude, &rec.Longitude, &rec.Capacity,
		&rec.Region, &rec.Country, &rec.City, &status, &metrics, &metadata, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan node: %w", err)
	}
	rec.Type = graph.NodeType(typ)
	rec.Status = graph.NodeStatus(status)
	if err := unmarshalJSON([]byte(metrics.String), &rec.Metrics); err != nil {
		return nil, fmt.Errorf("node %s metrics: %w", rec.NodeID, err)
	}
	if err := unmarshalJSON([]byte(metadata.String), &rec.Metadata); err != nil {
		return nil, fmt.Errorf("node %s metadata: %w", rec.NodeID, err)
	}
	return &rec, nil
}

func (s *SQLiteStore) UpsertNode(ctx context.Context, rec graph.NodeRecord) error {
	metadata, err := marshalJSON(rec.Metadata)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO nodes (node_id, name, type, latitude, longitude, capacity, region, country, city,
		                   status, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(node_id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			capacity = excluded.capacity,
			region = excluded.region,
			country = excluded.country,
			city = excluded.city,
			status = excluded.status,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, rec.NodeID, rec.Name, string(rec.Type), rec.Latitude, rec.Longitude, rec.Capacity,
		rec.Region, rec.Country, rec.City, string(rec.Status), string(metadata), now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert node: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteNode(ctx context.Context, nodeID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM nodes WHERE node_id = ?", nodeID)
	if err != nil {
		return fmt.Errorf("failed to delete node: %w", err)
	}
	return expectAffected(res, "node "+nodeID)
}

func (s *SQLiteStore) ListRoutes(ctx context.Context) ([]graph.RouteRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
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
			metadata           sql.NullString
		)
		if err := rows.Scan(&rec.Source, &rec.Target, &rec.Distance, &rec.Cost, &rec.Time, &rec.Capacity,
			&status, &mode, &risk, &metadata, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan route: %w", err)
		}
		rec.Status = graph.RouteStatus(status)
		rec.TransportMode = graph.TransportMode(mode)
		rec.RiskLevel = graph.RiskLevel(risk)
		if err := unmarshalJSON([]byte(metadata.String), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("route %s->%s metadata: %w", rec.Source, rec.Target, err)
		}
		routes = append(routes, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating routes: %w", err)
	}
	return routes, nil
}

func (s *SQLiteStore) UpsertRoute(ctx context.Context, rec graph.RouteRecord) error {
	metadata, err := marshalJSON(rec.Metadata)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO routes (source, target, distance, cost, time, capacity, status, transport_mode,
		                    risk_level, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source, target) DO UPDATE SET
			distance = excluded.distance,
			cost = excluded.cost,
			time = excluded.time,
			capacity = excluded.capacity,
			status = excluded.status,
			transport_mode = excluded.transport_mode,
			risk_level = excluded.risk_level,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, rec.Source, rec.Target, rec.Distance, rec.Cost, rec.Time, rec.Capacity, string(rec.Status),
		string(rec.TransportMode), string(rec.RiskLevel), string(metadata), now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert route: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteRoute(ctx context.Context, source, target string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM routes WHERE source = ? AND target = ?", source, target)
	if err != nil {
		return fmt.Errorf("failed to delete route: %w", err)
	}
	return expectAffected(res, "route "+source+"->"+target)
}

func (s *SQLiteStore) SaveNodeMetrics(ctx context.Context, metrics map[string]graph.StoredMetrics) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "UPDATE nodes SET metrics = ? WHERE node_id = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare metrics update: %w", err)
	}
	defer stmt.Close()

	for id, m := range metrics {
		data, err := marshalJSON(m)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, string(data), id); err != nil {
			return fmt.Errorf("failed to save metrics for %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit metrics: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) (int64, int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	nodes, err := tx.ExecContext(ctx, "DELETE FROM nodes")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to clear nodes: %w", err)
	}
	routes, err := tx.ExecContext(ctx, "DELETE FROM routes")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to clear routes: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit clear: %w", err)
	}
	n, _ := nodes.RowsAffected()
	r, _ := routes.RowsAffected()
	return n, r, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func expectAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
