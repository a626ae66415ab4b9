// Package nodelink renders architecture graphs with Graphviz.
//
// # Overview
//
// This package is the in-process alternative to the Mermaid CLI. It turns the
// same [graph.Graph] the Mermaid converter consumes into Graphviz DOT and
// lays it out with an embedded Graphviz build, so SVG output works on hosts
// without Node.js.
//
// # Usage
//
//	dot := nodelink.ToDOT(g, nodelink.Options{RankDir: "LR"})
//	svg, err := nodelink.Graphviz{}.Render(ctx, "diagram-1", dot)
//
// [Graphviz] implements [render.Renderer], so it can back a
// [render.Surface] in place of the Mermaid CLI.
//
// # DOT Format
//
// Node types become clusters labelled with the upper-cased type, in the
// order the types first appear. Database nodes use shape=cylinder. An edge's
// protocol becomes its label. Node labels show the id and, when set, the
// technology in parentheses on a second line.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
//
// [graph.Graph]: github.com/matzehuels/archview/pkg/graph
// [render.Renderer]: github.com/matzehuels/archview/pkg/render
// [render.Surface]: github.com/matzehuels/archview/pkg/render
package nodelink
