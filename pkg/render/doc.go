// Package render drives diagram renderers and owns the render target.
//
// # Overview
//
// Diagram text is produced by a converter ([mermaid.ToMermaid] or
// [nodelink.ToDOT]) and handed to a [Renderer], which lays it out and returns
// SVG. This package provides:
//
//   - [Renderer]: the renderer contract, implemented by mermaid.CLI and
//     nodelink.Graphviz
//   - [Surface]: a render target that clears stale output, assigns a fresh
//     element id per render, and replaces failures with an inline error
//   - [IDGenerator]: injected id source ([UUIDGenerator], [SequenceGenerator])
//   - Format conversion from SVG to PDF/PNG via rsvg-convert
//
// # Render Targets
//
//	s := render.NewSurface(mermaid.CLI{}, render.UUIDGenerator{})
//	out := s.Render(ctx, text)
//	if out.Err != nil {
//	    // out.SVG already holds the "Failed to render diagram" document
//	}
//
// Overlapping renders on one Surface are resolved by call order: only the
// most recently started render may publish its result. A slower, earlier
// render finishing last is reported as stale and dropped.
//
// # Format Conversion
//
// [Convert] turns SVG into PDF or PNG using the external rsvg-convert tool
// (from librsvg). PNG output is rendered at 2x scale.
//
//	pdf, err := render.Convert(ctx, out.SVG, render.FormatPDF)
//
// [mermaid.ToMermaid]: github.com/matzehuels/archview/pkg/render/mermaid
// [nodelink.ToDOT]: github.com/matzehuels/archview/pkg/render/nodelink
package render
