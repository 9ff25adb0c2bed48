package output

import (
	"time"

	"github.com/leapstack-labs/typegraph/internal/dag"
	"github.com/leapstack-labs/typegraph/internal/palette"
)

// NodeInfo is a graph vertex in JSON output.
type NodeInfo struct {
	Name       string `json:"name"`
	Module     string `json:"module"`
	Parent     string `json:"parent,omitempty"`
	DeepExpand bool   `json:"deep_expand"`
	Color      string `json:"color"`
	Foreground string `json:"foreground"`
}

// EdgeInfo is a graph edge in JSON output. Endpoints are "Module:Name" keys.
type EdgeInfo struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// GraphOutput is the JSON form of a graph.
type GraphOutput struct {
	ID         string          `json:"id,omitempty"`
	Root       string          `json:"root,omitempty"`
	BuiltAt    *time.Time      `json:"built_at,omitempty"`
	Nodes      []NodeInfo      `json:"nodes"`
	Edges      []EdgeInfo      `json:"edges"`
	Legend     []palette.Entry `json:"legend"`
	Warnings   []string        `json:"warnings,omitempty"`
	TotalNodes int             `json:"total_nodes"`
	TotalEdges int             `json:"total_edges"`
}

// NewGraphOutput converts g and its legend.
func NewGraphOutput(g *dag.Graph, legend []palette.Entry) GraphOutput {
	out := GraphOutput{
		Nodes:      make([]NodeInfo, 0, g.NodeCount()),
		Edges:      make([]EdgeInfo, 0, g.EdgeCount()),
		Legend:     legend,
		TotalNodes: g.NodeCount(),
		TotalEdges: g.EdgeCount(),
	}
	if out.Legend == nil {
		out.Legend = []palette.Entry{}
	}
	for _, n := range g.Nodes() {
		info := NodeInfo{
			Name:       n.Name,
			Module:     n.Module,
			DeepExpand: n.DeepExpand,
			Color:      n.Color,
			Foreground: palette.Color(n.Color).Foreground().String(),
		}
		if n.HasParent() {
			info.Parent = n.Parent.String()
		}
		out.Nodes = append(out.Nodes, info)
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, EdgeInfo{Source: e.Source.Key().String(), Target: e.Target.Key().String()})
	}
	return out
}

// ModuleInfo is one loaded module.
type ModuleInfo struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	Types int    `json:"types"`
}

// ModulesOutput is the JSON output of the modules command.
type ModulesOutput struct {
	Modules []ModuleInfo     `json:"modules"`
	Errors  []DiscoveryIssue `json:"errors,omitempty"`
	Summary DiscoverySummary `json:"summary"`
}

// DiscoveryIssue is one module file that failed to load.
type DiscoveryIssue struct {
	Path    string `json:"path"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// DiscoverySummary counts discovery results.
type DiscoverySummary struct {
	Files    int   `json:"files"`
	Loaded   int   `json:"loaded"`
	Skipped  int   `json:"skipped"`
	Types    int   `json:"types"`
	Duration int64 `json:"duration_ms"`
}

// TypeInfo is one selectable type.
type TypeInfo struct {
	Name      string `json:"name"`
	FullName  string `json:"full_name"`
	Namespace string `json:"namespace"`
}

// TypesOutput is the JSON output of the types command.
type TypesOutput struct {
	Module string     `json:"module"`
	Types  []TypeInfo `json:"types"`
}

// HistoryEntry is one persisted build.
type HistoryEntry struct {
	ID       string    `json:"id"`
	Root     string    `json:"root"`
	Provider string    `json:"provider"`
	BuiltAt  time.Time `json:"built_at"`
	Duration int64     `json:"duration_ms"`
	Nodes    int       `json:"nodes"`
	Edges    int       `json:"edges"`
	Warnings int       `json:"warnings"`
}

// HistoryOutput is the JSON output of the history command.
type HistoryOutput struct {
	Builds []HistoryEntry `json:"builds"`
}
