package graph

// DatabaseType is the node type rendered with a storage (cylinder) shape.
const DatabaseType = "database"

// Graph is an architecture diagram: ordered nodes and ordered, directed edges.
//
// Order is significant. Renderers emit nodes, clusters and edges in the order
// they appear here so output is stable for a given payload.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Node is a single component of the architecture.
type Node struct {
	// ID is unique within the graph and doubles as the display label.
	ID         string         `json:"id" bson:"id"`
	Attributes NodeAttributes `json:"attributes" bson:"attributes"`
}

// NodeAttributes classifies a node. All fields are optional.
type NodeAttributes struct {
	// Type groups nodes into clusters (e.g. "frontend", "backend", "database").
	Type string `json:"type,omitempty" bson:"type,omitempty"`
	// Technology is shown under the label in parentheses.
	Technology string `json:"technology,omitempty" bson:"technology,omitempty"`
	// Components is carried through but not drawn.
	Components []string `json:"components,omitempty" bson:"components,omitempty"`
}

// Edge is a directed connection between two node ids.
type Edge struct {
	Source     string         `json:"source" bson:"source"`
	Target     string         `json:"target" bson:"target"`
	Attributes EdgeAttributes `json:"attributes" bson:"attributes"`
}

// EdgeAttributes carries the edge label.
type EdgeAttributes struct {
	Protocol string `json:"protocol" bson:"protocol"`
}

// Renderable reports whether g has both collections present.
// A nil graph, or one missing nodes or edges, renders as nothing.
func (g *Graph) Renderable() bool {
	return g != nil && g.Nodes != nil && g.Edges != nil
}

// NodeCount returns the number of nodes, or 0 for a nil graph.
func (g *Graph) NodeCount() int {
	if g == nil {
		return 0
	}
	return len(g.Nodes)
}

// EdgeCount returns the number of edges, or 0 for a nil graph.
func (g *Graph) EdgeCount() int {
	if g == nil {
		return 0
	}
	return len(g.Edges)
}

// IsDatabase reports whether the node should be drawn as storage.
func (n Node) IsDatabase() bool {
	return n.Attributes.Type == DatabaseType
}

// Types returns the distinct node types in first-encounter order.
// Untyped nodes are skipped.
func (g *Graph) Types() []string {
	if g == nil {
		return nil
	}
	seen := make(map[string]bool)
	var types []string
	for _, n := range g.Nodes {
		t := n.Attributes.Type
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		types = append(types, t)
	}
	return types
}
