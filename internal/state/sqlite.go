package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite state store instance.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path + "?_pragma=foreign_keys(1)"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	s.logger.Debug("opened state store", slog.String("path", path))
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// SaveSnapshot persists a snapshot and its graph in one transaction.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *SnapshotDetail) error {
	if s.db == nil {
		return errNotOpen
	}
	if snap.ID == "" {
		snap.ID = generateID()
	}
	if snap.BuiltAt.IsZero() {
		snap.BuiltAt = time.Now().UTC()
	}
	snap.NodeCount = len(snap.Nodes)
	snap.EdgeCount = len(snap.Edges)
	snap.WarningCount = len(snap.Warnings)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, root, provider, built_at_ms, duration_ms, node_count, edge_count, warning_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Root, snap.Provider, snap.BuiltAt.UnixMilli(), snap.Duration.Milliseconds(),
		snap.NodeCount, snap.EdgeCount, snap.WarningCount,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	if err := insertRows(ctx, tx, `
		INSERT INTO snapshot_nodes (snapshot_id, position, name, module, parent_name, parent_module, deep_expand, color)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, len(snap.Nodes), func(i int) []any {
		n := snap.Nodes[i]
		return []any{snap.ID, i, n.Name, n.Module, n.ParentName, n.ParentModule, n.DeepExpand, n.Color}
	}); err != nil {
		return fmt.Errorf("insert nodes: %w", err)
	}

	if err := insertRows(ctx, tx, `
		INSERT INTO snapshot_edges (snapshot_id, position, source_name, source_module, target_name, target_module)
		VALUES (?, ?, ?, ?, ?, ?)`, len(snap.Edges), func(i int) []any {
		e := snap.Edges[i]
		return []any{snap.ID, i, e.SourceName, e.SourceModule, e.TargetName, e.TargetModule}
	}); err != nil {
		return fmt.Errorf("insert edges: %w", err)
	}

	if err := insertRows(ctx, tx, `
		INSERT INTO snapshot_legend (snapshot_id, position, module, color) VALUES (?, ?, ?, ?)`,
		len(snap.Legend), func(i int) []any {
			l := snap.Legend[i]
			return []any{snap.ID, i, l.Module, l.Color}
		}); err != nil {
		return fmt.Errorf("insert legend: %w", err)
	}

	if err := insertRows(ctx, tx, `
		INSERT INTO snapshot_warnings (snapshot_id, position, message) VALUES (?, ?, ?)`,
		len(snap.Warnings), func(i int) []any {
			return []any{snap.ID, i, snap.Warnings[i]}
		}); err != nil {
		return fmt.Errorf("insert warnings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Debug("saved snapshot",
		slog.String("id", snap.ID),
		slog.String("root", snap.Root),
		slog.Int("nodes", snap.NodeCount))
	return nil
}

func insertRows(ctx context.Context, tx *sql.Tx, query string, n int, row func(int) []any) error {
	if n == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, row(i)...); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}

// ListSnapshots returns the most recent snapshots first. A non-positive
// limit returns every snapshot.
func (s *SQLiteStore) ListSnapshots(ctx context.Context, limit int) ([]Snapshot, error) {
	if s.db == nil {
		return nil, errNotOpen
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, root, provider, built_at_ms, duration_ms, node_count, edge_count, warning_count
		FROM snapshots
		ORDER BY built_at_ms DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*Snapshot, error) {
	var snap Snapshot
	var builtAt, duration int64
	if err := row.Scan(&snap.ID, &snap.Root, &snap.Provider, &builtAt, &duration,
		&snap.NodeCount, &snap.EdgeCount, &snap.WarningCount); err != nil {
		return nil, err
	}
	snap.BuiltAt = time.UnixMilli(builtAt).UTC()
	snap.Duration = time.Duration(duration) * time.Millisecond
	return &snap, nil
}

// LoadSnapshot returns one snapshot with its graph.
func (s *SQLiteStore) LoadSnapshot(ctx context.Context, id string) (*SnapshotDetail, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	snap, err := scanSnapshot(s.db.QueryRowContext(ctx, `
		SELECT id, root, provider, built_at_ms, duration_ms, node_count, edge_count, warning_count
		FROM snapshots WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	detail := &SnapshotDetail{Snapshot: *snap}

	if err := queryRows(ctx, s.db, `
		SELECT name, module, parent_name, parent_module, deep_expand, color
		FROM snapshot_nodes WHERE snapshot_id = ? ORDER BY position`, id,
		func(r scanner) error {
			var n Node
			if err := r.Scan(&n.Name, &n.Module, &n.ParentName, &n.ParentModule, &n.DeepExpand, &n.Color); err != nil {
				return err
			}
			detail.Nodes = append(detail.Nodes, n)
			return nil
		}); err != nil {
		return nil, fmt.Errorf("failed to load nodes: %w", err)
	}

	if err := queryRows(ctx, s.db, `
		SELECT source_name, source_module, target_name, target_module
		FROM snapshot_edges WHERE snapshot_id = ? ORDER BY position`, id,
		func(r scanner) error {
			var e Edge
			if err := r.Scan(&e.SourceName, &e.SourceModule, &e.TargetName, &e.TargetModule); err != nil {
				return err
			}
			detail.Edges = append(detail.Edges, e)
			return nil
		}); err != nil {
		return nil, fmt.Errorf("failed to load edges: %w", err)
	}

	if err := queryRows(ctx, s.db, `
		SELECT module, color FROM snapshot_legend WHERE snapshot_id = ? ORDER BY position`, id,
		func(r scanner) error {
			var l LegendEntry
			if err := r.Scan(&l.Module, &l.Color); err != nil {
				return err
			}
			detail.Legend = append(detail.Legend, l)
			return nil
		}); err != nil {
		return nil, fmt.Errorf("failed to load legend: %w", err)
	}

	if err := queryRows(ctx, s.db, `
		SELECT message FROM snapshot_warnings WHERE snapshot_id = ? ORDER BY position`, id,
		func(r scanner) error {
			var msg string
			if err := r.Scan(&msg); err != nil {
				return err
			}
			detail.Warnings = append(detail.Warnings, msg)
			return nil
		}); err != nil {
		return nil, fmt.Errorf("failed to load warnings: %w", err)
	}

	return detail, nil
}

func queryRows(ctx context.Context, db *sql.DB, query string, id string, each func(scanner) error) error {
	rows, err := db.QueryContext(ctx, query, id)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		if err := each(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
