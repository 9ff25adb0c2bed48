package state

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/typegraph/internal/testutil"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleSnapshot() *SnapshotDetail {
	return &SnapshotDetail{
		Snapshot: Snapshot{
			Root:     "Shop:Order",
			Provider: "fixture",
			BuiltAt:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			Duration: 42 * time.Millisecond,
		},
		Nodes: []Node{
			{Name: "Order", Module: "Shop", DeepExpand: true, Color: "#008b8b"},
			{Name: "OrderLine", Module: "Shop", ParentName: "Order", ParentModule: "Shop", DeepExpand: true, Color: "#008b8b"},
			{Name: "OrderLine-(generated collection)", Module: "Shop", ParentName: "Order", ParentModule: "Shop", Color: "#008b8b"},
		},
		Edges: []Edge{
			{SourceName: "Order", SourceModule: "Shop", TargetName: "OrderLine-(generated collection)", TargetModule: "Shop"},
			{SourceName: "OrderLine-(generated collection)", SourceModule: "Shop", TargetName: "OrderLine", TargetModule: "Shop"},
		},
		Legend:   []LegendEntry{{Module: "Shop", Color: "#008b8b"}},
		Warnings: []string{"Shop:Order [interfaces]: unresolved type reference"},
	}
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore(nil)

	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestSQLiteStore_Migrate(t *testing.T) {
	store := setupTestStore(t)

	tables := []string{"snapshots", "snapshot_nodes", "snapshot_edges", "snapshot_legend", "snapshot_warnings"}
	for _, table := range tables {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		if err != nil {
			t.Errorf("table %s does not exist: %v", table, err)
		} else {
			rows.Close()
		}
	}

	version, err := store.MigrationVersion(t.Context())
	if err != nil {
		t.Fatalf("failed to get migration version: %v", err)
	}
	if version != 1 {
		t.Errorf("expected migration version 1, got %d", version)
	}

	// Re-running is a no-op.
	if err := store.Migrate(); err != nil {
		t.Errorf("second migrate failed: %v", err)
	}
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)
	ctx := context.Background()

	if err := store.Migrate(); err == nil {
		t.Error("expected error migrating unopened store")
	}
	if err := store.SaveSnapshot(ctx, sampleSnapshot()); err == nil {
		t.Error("expected error saving to unopened store")
	}
	if _, err := store.ListSnapshots(ctx, 0); err == nil {
		t.Error("expected error listing unopened store")
	}
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	snap := sampleSnapshot()
	if err := store.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("failed to save snapshot: %v", err)
	}
	if snap.ID == "" {
		t.Fatal("expected snapshot ID to be assigned")
	}
	if snap.NodeCount != 3 || snap.EdgeCount != 2 || snap.WarningCount != 1 {
		t.Errorf("unexpected counts: %+v", snap.Snapshot)
	}

	got, err := store.LoadSnapshot(ctx, snap.ID)
	if err != nil {
		t.Fatalf("failed to load snapshot: %v", err)
	}

	if got.Root != "Shop:Order" || got.Provider != "fixture" {
		t.Errorf("unexpected header: %+v", got.Snapshot)
	}
	if !got.BuiltAt.Equal(snap.BuiltAt) {
		t.Errorf("expected built_at %v, got %v", snap.BuiltAt, got.BuiltAt)
	}
	if got.Duration != 42*time.Millisecond {
		t.Errorf("expected duration 42ms, got %v", got.Duration)
	}

	if len(got.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(got.Nodes))
	}
	for i, n := range snap.Nodes {
		if got.Nodes[i] != n {
			t.Errorf("node %d: expected %+v, got %+v", i, n, got.Nodes[i])
		}
	}
	if len(got.Edges) != 2 || got.Edges[1] != snap.Edges[1] {
		t.Errorf("unexpected edges: %+v", got.Edges)
	}
	if len(got.Legend) != 1 || got.Legend[0].Color != "#008b8b" {
		t.Errorf("unexpected legend: %+v", got.Legend)
	}
	if len(got.Warnings) != 1 {
		t.Errorf("unexpected warnings: %v", got.Warnings)
	}
}

func TestSQLiteStore_LoadSnapshot_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.LoadSnapshot(context.Background(), "missing")
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestSQLiteStore_ListSnapshots(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	roots := []string{"Shop:Order", "Shop:Customer", "Billing:Invoice"}
	for i, root := range roots {
		snap := &SnapshotDetail{Snapshot: Snapshot{Root: root, BuiltAt: base.Add(time.Duration(i) * time.Minute)}}
		if err := store.SaveSnapshot(ctx, snap); err != nil {
			t.Fatalf("failed to save %s: %v", root, err)
		}
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"all", 0, []string{"Billing:Invoice", "Shop:Customer", "Shop:Order"}},
		{"limited", 2, []string{"Billing:Invoice", "Shop:Customer"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListSnapshots(ctx, tt.limit)
			if err != nil {
				t.Fatalf("failed to list: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d snapshots, got %d", len(tt.want), len(got))
			}
			for i, root := range tt.want {
				if got[i].Root != root {
					t.Errorf("position %d: expected %s, got %s", i, root, got[i].Root)
				}
			}
		})
	}
}

func TestSQLiteStore_FileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	store := NewSQLiteStore(nil)
	if err := store.Open(path); err != nil {
		t.Fatalf("failed to open: %v", err)
	}
	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	snap := sampleSnapshot()
	if err := store.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}

	reopened := NewSQLiteStore(nil)
	if err := reopened.Open(path); err != nil {
		t.Fatalf("failed to reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.LoadSnapshot(ctx, snap.ID)
	if err != nil {
		t.Fatalf("failed to load after reopen: %v", err)
	}
	if len(got.Nodes) != 3 {
		t.Errorf("expected 3 nodes after reopen, got %d", len(got.Nodes))
	}
}
