// Package graph defines the architecture-diagram model exchanged with the
// requirements-analysis backend.
//
// # Wire Format
//
// The backend describes a system architecture as typed nodes joined by
// protocol-labeled edges:
//
//	{
//	  "nodes": [
//	    {"id": "API Gateway", "attributes": {"type": "backend", "technology": "Node.js"}},
//	    {"id": "Users DB", "attributes": {"type": "database"}}
//	  ],
//	  "edges": [
//	    {"source": "API Gateway", "target": "Users DB", "attributes": {"protocol": "TCP"}}
//	  ]
//	}
//
// Some endpoints wrap the same object one level down under a "diagram" key.
// [Shape] selects which form to expect; [ShapeAuto] detects it.
//
// # Missing Data
//
// A nil [Graph.Nodes] or [Graph.Edges] means the collection was absent from
// the payload. Renderers treat such graphs as "nothing to draw" rather than
// as errors. Empty arrays are present-but-empty and render normally.
//
// # Identifiers
//
// Node ids double as display labels and as the basis for renderer
// identifiers. [SafeID] collapses whitespace runs to a single underscore.
// Two ids that sanitize identically are not disambiguated; [Collisions]
// reports them so callers can warn.
//
// # Validation
//
// Conversion trusts its input. [Validate] is an optional pre-pass that drops
// edges whose endpoints reference unknown node ids and returns them so the
// caller can log what was removed.
package graph
