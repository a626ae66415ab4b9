package graph

// Validate returns a copy of g without edges whose source or target is not a
// node id, along with the dropped edges in input order.
//
// Nodes are copied unchanged. A graph that is not [Graph.Renderable] is
// returned as-is with no dropped edges.
func Validate(g *Graph) (*Graph, []Edge) {
	if !g.Renderable() {
		return g, nil
	}

	known := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		known[n.ID] = true
	}

	out := &Graph{
		Nodes: append([]Node{}, g.Nodes...),
		Edges: make([]Edge, 0, len(g.Edges)),
	}
	var dropped []Edge
	for _, e := range g.Edges {
		if known[e.Source] && known[e.Target] {
			out.Edges = append(out.Edges, e)
		} else {
			dropped = append(dropped, e)
		}
	}
	return out, dropped
}
