package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/archview/pkg/graph"
	"github.com/matzehuels/archview/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// RankDir is the Graphviz layout direction: "TB" (default) or "LR".
	RankDir string
	// Detailed appends each node's components to its label.
	Detailed bool
}

// ToDOT converts an architecture graph to Graphviz DOT format.
// Typed nodes are grouped into one cluster per type in first-encounter order,
// database nodes are drawn as cylinders, and edges carry their protocol as a
// label. Like the Mermaid converter it returns "" for graphs missing nodes or
// edges.
func ToDOT(g *graph.Graph, opts Options) string {
	if !g.Renderable() {
		return ""
	}

	rankdir := opts.RankDir
	if rankdir == "" {
		rankdir = "TB"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=11];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	var order []string
	buckets := make(map[string][]graph.Node)
	for _, n := range g.Nodes {
		t := n.Attributes.Type
		if t == "" {
			fmt.Fprintf(&buf, "  %s;\n", fmtNode(n, opts.Detailed))
			continue
		}
		if _, ok := buckets[t]; !ok {
			order = append(order, t)
		}
		buckets[t] = append(buckets[t], n)
	}

	for i, t := range order {
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", strings.ToUpper(t))
		buf.WriteString("    style=\"rounded,dashed\";\n")
		for _, n := range buckets[t] {
			fmt.Fprintf(&buf, "    %s;\n", fmtNode(n, opts.Detailed))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		if p := e.Attributes.Protocol; p != "" {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", e.Source, e.Target, p)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// Placeholder returns a single-node DOT graph for use when [ToDOT]
// produced no text.
func Placeholder() string {
	return "digraph G {\n  loading [label=\"Loading...\", shape=plaintext];\n}\n"
}

func fmtNode(n graph.Node, detailed bool) string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	if n.IsDatabase() {
		attrs = append(attrs, "shape=cylinder", "style=filled", "fillcolor=\"#eef2ff\"")
	}
	return fmt.Sprintf("%q [%s]", n.ID, strings.Join(attrs, ", "))
}

func fmtLabel(n graph.Node, detailed bool) string {
	label := n.ID
	if t := n.Attributes.Technology; t != "" {
		label += "\n(" + t + ")"
	}
	if detailed && len(n.Attributes.Components) > 0 {
		label += "\n" + strings.Join(n.Attributes.Components, "\n")
	}
	return label
}

// Graphviz renders DOT source in-process. It implements [render.Renderer].
type Graphviz struct{}

// Render lays out the DOT source and returns SVG whose root element has the
// given id.
func (Graphviz) Render(ctx context.Context, id, source string) ([]byte, error) {
	svg, err := renderSVG(ctx, source)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(svg, id), nil
}

func renderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root tag to a zero-origin viewBox with
// matching width and height, setting id when non-empty.
func normalizeViewBox(svg []byte, id string) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	idAttr := ""
	if id != "" {
		idAttr = fmt.Sprintf(` id=%q`, id)
	}
	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg"%s viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		idAttr, w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

var _ render.Renderer = Graphviz{}
