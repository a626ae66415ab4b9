// Package mermaid converts architecture diagrams to Mermaid flowchart text
// and renders that text through the Mermaid CLI.
//
// # Conversion
//
// [ToMermaid] is a pure function over a [graph.Graph]:
//
//	text := mermaid.ToMermaid(g, mermaid.Options{})
//
// For the backend's diagram shape it produces:
//
//	graph TD
//	Browser["Browser"]
//	subgraph BACKEND
//	  API_Gateway["API Gateway
//	(Node.js)"]
//	end
//	subgraph DATABASE
//	  Users_DB[(Users DB)]
//	end
//	Browser -->|HTTPS| API_Gateway
//	API_Gateway -->|TCP| Users_DB
//
// Untyped nodes are declared at the top level in input order. Typed nodes
// are grouped into one subgraph per type, titled with the upper-cased type,
// in the order types are first seen. Database nodes use the cylinder shape.
// Edges follow in input order, labeled with their protocol.
//
// A graph that is nil or missing its nodes or edges converts to the empty
// string; callers substitute a placeholder (see render.Placeholder).
//
// Edge endpoints are not checked. An edge naming an unknown node produces a
// reference to an undeclared identifier, which the renderer reports. Use
// graph.Validate first to drop such edges instead.
//
// # Rendering
//
// [CLI] implements render.Renderer by piping the text through mmdc, the
// Mermaid command-line renderer (npm install -g @mermaid-js/mermaid-cli).
package mermaid
