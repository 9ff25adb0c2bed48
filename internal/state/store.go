// Package state persists the history of graph builds in SQLite.
package state

import (
	"context"
	"errors"
	"time"
)

// ErrSnapshotNotFound is returned when a snapshot id is unknown.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot summarises one finished build.
type Snapshot struct {
	ID           string        `json:"id"`
	Root         string        `json:"root"`
	Provider     string        `json:"provider"`
	BuiltAt      time.Time     `json:"built_at"`
	Duration     time.Duration `json:"duration"`
	NodeCount    int           `json:"node_count"`
	EdgeCount    int           `json:"edge_count"`
	WarningCount int           `json:"warning_count"`
}

// Node is a persisted graph vertex. Type handles are not persisted.
type Node struct {
	Name         string `json:"name"`
	Module       string `json:"module"`
	ParentName   string `json:"parent_name,omitempty"`
	ParentModule string `json:"parent_module,omitempty"`
	DeepExpand   bool   `json:"deep_expand"`
	Color        string `json:"color"`
}

// Edge is a persisted dependency between two vertices.
type Edge struct {
	SourceName   string `json:"source_name"`
	SourceModule string `json:"source_module"`
	TargetName   string `json:"target_name"`
	TargetModule string `json:"target_module"`
}

// LegendEntry is a persisted module colour.
type LegendEntry struct {
	Module string `json:"module"`
	Color  string `json:"color"`
}

// SnapshotDetail is a snapshot with its full graph, in insertion order.
type SnapshotDetail struct {
	Snapshot
	Nodes    []Node        `json:"nodes"`
	Edges    []Edge        `json:"edges"`
	Legend   []LegendEntry `json:"legend"`
	Warnings []string      `json:"warnings"`
}

// Store is the build history store.
type Store interface {
	// Open opens the database at path. Use ":memory:" for an in-memory store.
	Open(path string) error
	// Close releases the database connection.
	Close() error
	// Migrate applies pending schema migrations.
	Migrate() error

	// SaveSnapshot persists a snapshot. An empty ID is assigned a new one.
	SaveSnapshot(ctx context.Context, s *SnapshotDetail) error
	// ListSnapshots returns the most recent snapshots first.
	ListSnapshots(ctx context.Context, limit int) ([]Snapshot, error)
	// LoadSnapshot returns one snapshot with its graph.
	LoadSnapshot(ctx context.Context, id string) (*SnapshotDetail, error)
}
