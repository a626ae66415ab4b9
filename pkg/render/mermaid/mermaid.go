package mermaid

import (
	"fmt"
	"strings"

	apperr "github.com/matzehuels/archview/pkg/errors"
	"github.com/matzehuels/archview/pkg/graph"
)

// Direction is a Mermaid flowchart layout direction.
type Direction string

const (
	// TopDown lays the graph out from top to bottom.
	TopDown Direction = "TD"
	// LeftRight lays the graph out from left to right.
	LeftRight Direction = "LR"
)

// ParseDirection converts a flag or query value to a Direction.
// The empty string selects [TopDown].
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "TD":
		return TopDown, nil
	case "LR":
		return LeftRight, nil
	default:
		return "", apperr.New(apperr.ErrCodeInvalidDirection, "invalid direction %q (must be TD or LR)", s)
	}
}

// Options configures Mermaid generation.
type Options struct {
	// Direction is the layout direction. Empty means [TopDown].
	Direction Direction
}

func (o Options) direction() Direction {
	if o.Direction == "" {
		return TopDown
	}
	return o.Direction
}

// ToMermaid converts g to Mermaid flowchart text.
//
// It returns "" when g is nil or its nodes or edges are missing. Output is
// deterministic: the same graph always yields byte-identical text.
func ToMermaid(g *graph.Graph, opts Options) string {
	if !g.Renderable() {
		return ""
	}

	ids := graph.NewIDMap(g)

	var b strings.Builder
	fmt.Fprintf(&b, "graph %s\n", opts.direction())

	var types []string
	clusters := make(map[string][]string)
	for _, n := range g.Nodes {
		line := fmtNode(n, ids[n.ID])
		t := n.Attributes.Type
		if t == "" {
			b.WriteString(line + "\n")
			continue
		}
		if _, ok := clusters[t]; !ok {
			types = append(types, t)
		}
		clusters[t] = append(clusters[t], line)
	}

	for _, t := range types {
		fmt.Fprintf(&b, "subgraph %s\n", strings.ToUpper(t))
		for _, line := range clusters[t] {
			b.WriteString("  " + line + "\n")
		}
		b.WriteString("end\n")
	}

	for _, e := range g.Edges {
		fmt.Fprintf(&b, "%s -->|%s| %s\n", ids.Lookup(e.Source), e.Attributes.Protocol, ids.Lookup(e.Target))
	}

	return b.String()
}

// fmtLabel returns the node label: the raw id, plus the technology in
// parentheses on its own line. Components are deliberately left out.
func fmtLabel(n graph.Node) string {
	if n.Attributes.Technology == "" {
		return n.ID
	}
	return n.ID + "\n(" + n.Attributes.Technology + ")"
}

func fmtNode(n graph.Node, safeID string) string {
	label := fmtLabel(n)
	if n.IsDatabase() {
		return fmt.Sprintf("%s[(%s)]", safeID, label)
	}
	return fmt.Sprintf("%s[\"%s\"]", safeID, label)
}
