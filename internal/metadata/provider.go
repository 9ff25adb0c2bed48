// Package metadata selects the metadata provider for a configured kind.
package metadata

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/typegraph/internal/metadata/fixture"
	"github.com/leapstack-labs/typegraph/internal/metadata/gotypes"
	"github.com/leapstack-labs/typegraph/pkg/core"
)

// Provider kinds.
const (
	KindFixture = "fixture"
	KindGo      = "go"
)

// Kinds lists the supported provider kinds.
var Kinds = []string{KindFixture, KindGo}

// Options configure any provider kind.
type Options struct {
	// StandardPrefixes override (fixture) or extend (go) the standard
	// library namespaces.
	StandardPrefixes []string
	// CacheSize bounds provider caches. Zero uses the provider default.
	CacheSize int
	Logger    *slog.Logger
}

// NewProvider creates the provider for kind.
func NewProvider(kind string, opts Options) (core.Provider, error) {
	switch kind {
	case KindFixture, "":
		return fixture.New(fixture.Config{
			StandardPrefixes: opts.StandardPrefixes,
			CacheSize:        opts.CacheSize,
			Logger:           opts.Logger,
		})
	case KindGo:
		return gotypes.New(gotypes.Config{
			StandardPrefixes: opts.StandardPrefixes,
			CacheSize:        opts.CacheSize,
			Logger:           opts.Logger,
		})
	default:
		return nil, fmt.Errorf("unknown metadata provider %q (supported: %v)", kind, Kinds)
	}
}
