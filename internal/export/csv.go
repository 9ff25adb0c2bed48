// Package export writes graphs as flat CSV record streams.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"github.com/leapstack-labs/typegraph/internal/dag"
	"github.com/leapstack-labs/typegraph/pkg/core"
)

// DefaultFlushEvery is the number of rows buffered between flushes.
const DefaultFlushEvery = 50

// Header is the first row of every export.
var Header = []string{"name", "type"}

// Config holds export configuration.
type Config struct {
	// FlushEvery flushes the underlying writer after this many rows.
	FlushEvery int
	// Comma is the field delimiter. Zero uses ','.
	Comma rune
	// Logger for structured logging. If nil, logging is disabled.
	Logger *slog.Logger
}

// Writer streams graph records as CSV.
type Writer struct {
	csv        *csv.Writer
	flushEvery int
	pending    int
	rows       int
	logger     *slog.Logger
}

// NewWriter creates a CSV writer over w.
func NewWriter(w io.Writer, cfg Config) *Writer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	flushEvery := cfg.FlushEvery
	if flushEvery <= 0 {
		flushEvery = DefaultFlushEvery
	}
	cw := csv.NewWriter(w)
	if cfg.Comma != 0 {
		cw.Comma = cfg.Comma
	}
	return &Writer{csv: cw, flushEvery: flushEvery, logger: logger}
}

// Rows returns the number of rows written so far, header included.
func (w *Writer) Rows() int { return w.rows }

// WriteGraph writes the header, then for every vertex one row naming the
// vertex and its type followed by one row per declared property of the type.
func (w *Writer) WriteGraph(ctx context.Context, g *dag.Graph) error {
	if err := w.write(Header); err != nil {
		return err
	}
	for _, n := range g.Nodes() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.write([]string{qualifiedName(n), typeName(n)}); err != nil {
			return err
		}
		if err := w.writeProperties(n); err != nil {
			return err
		}
	}
	return w.Flush()
}

func (w *Writer) writeProperties(n *dag.TypeNode) error {
	if n.Type == nil {
		return nil
	}
	members, err := n.Type.Members()
	if err != nil {
		w.logger.Warn("skipping properties",
			slog.String("node", n.Key().String()),
			slog.String("error", err.Error()))
		return nil
	}
	owner := n.Type.Name()
	for _, m := range members {
		if m.Kind() != core.MemberProperty {
			continue
		}
		var valueType string
		if t := m.Type(); t != nil {
			valueType = t.Name()
		}
		if err := w.write([]string{owner + "." + m.Name(), valueType}); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) write(record []string) error {
	if err := w.csv.Write(record); err != nil {
		return fmt.Errorf("write row %d: %w", w.rows, err)
	}
	w.rows++
	w.pending++
	if w.pending >= w.flushEvery {
		return w.Flush()
	}
	return nil
}

// Flush writes buffered rows to the underlying writer.
func (w *Writer) Flush() error {
	w.pending = 0
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flush export: %w", err)
	}
	return nil
}

// qualifiedName is "<Parent>.<Name>" for vertices found through a parent
// type, else the vertex name.
func qualifiedName(n *dag.TypeNode) string {
	switch {
	case n.ParentType != nil:
		return n.ParentType.Name() + "." + n.Name
	case !n.Parent.IsZero():
		return n.Parent.Name + "." + n.Name
	default:
		return n.Name
	}
}

func typeName(n *dag.TypeNode) string {
	if n.Type != nil {
		return n.Type.Name()
	}
	return n.Name
}
