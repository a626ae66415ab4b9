// Package pipeline provides the diagram pipeline shared by the CLI and the
// HTTP service.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Decode: parse the architecture JSON (flat or nested) into a graph
//  2. Validate: optionally drop edges with unknown endpoints and report
//     identifier collisions
//  3. Convert: produce Mermaid or Graphviz DOT text
//  4. Render: lay the text out as SVG, then optionally PNG or PDF
//
// Stages can be run independently or through [Runner.Execute], which caches
// the final output keyed by payload and options.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Execute(ctx, payload, pipeline.Options{Format: "mermaid"})
//	fmt.Print(res.Text)
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	apperr "github.com/matzehuels/archview/pkg/errors"
	"github.com/matzehuels/archview/pkg/graph"
	"github.com/matzehuels/archview/pkg/render"
	"github.com/matzehuels/archview/pkg/render/mermaid"
)

// =============================================================================
// Formats and Renderers
// =============================================================================

// Output formats. Text formats stop after conversion; the others render.
const (
	FormatMermaid = "mermaid"
	FormatDOT     = "dot"
	FormatSVG     = render.FormatSVG
	FormatPNG     = render.FormatPNG
	FormatPDF     = render.FormatPDF
)

// Renderers.
const (
	RendererMermaid  = "mermaid"
	RendererGraphviz = "graphviz"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatMermaid: true,
	FormatDOT:     true,
	FormatSVG:     true,
	FormatPNG:     true,
	FormatPDF:     true,
}

// ValidRenderers is the set of supported renderers.
var ValidRenderers = map[string]bool{
	RendererMermaid:  true,
	RendererGraphviz: true,
}

// =============================================================================
// Options
// =============================================================================

// Options configures one pipeline run.
type Options struct {
	// Format is the output format. Empty means mermaid.
	Format string `json:"format,omitempty"`
	// Direction is TD or LR. Empty means TD.
	Direction string `json:"direction,omitempty"`
	// Shape selects the payload layout: auto, flat or nested.
	Shape string `json:"shape,omitempty"`
	// Strict drops edges whose endpoints are not declared nodes.
	Strict bool `json:"strict,omitempty"`
	// Renderer lays out text for image formats. Empty means mermaid.
	Renderer string `json:"renderer,omitempty"`
	// Detailed adds node components to Graphviz labels.
	Detailed bool `json:"detailed,omitempty"`
	// Refresh bypasses cached results.
	Refresh bool `json:"-"`

	// Logger for pipeline events. Defaults to the runner's logger.
	Logger *log.Logger `json:"-"`
}

// ValidateAndSetDefaults checks every option and fills defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Format == "" {
		o.Format = FormatMermaid
	}
	if !ValidFormats[o.Format] {
		return apperr.New(apperr.ErrCodeInvalidFormat, "invalid format %q (must be mermaid, dot, svg, png or pdf)", o.Format)
	}
	if o.Renderer == "" {
		o.Renderer = RendererMermaid
	}
	if !ValidRenderers[o.Renderer] {
		return apperr.New(apperr.ErrCodeInvalidInput, "invalid renderer %q (must be mermaid or graphviz)", o.Renderer)
	}
	dir, err := mermaid.ParseDirection(o.Direction)
	if err != nil {
		return err
	}
	o.Direction = string(dir)
	shape, err := graph.ParseShape(o.Shape)
	if err != nil {
		return err
	}
	o.Shape = shape.String()
	return nil
}

// IsText reports whether the format stops after conversion.
func (o *Options) IsText() bool {
	return o.Format == FormatMermaid || o.Format == FormatDOT
}

// TextFormat returns the diagram language the run converts to: dot for the
// dot format or the graphviz renderer, mermaid otherwise.
func (o *Options) TextFormat() string {
	if o.Format == FormatDOT || (!o.IsText() && o.Renderer == RendererGraphviz) {
		return FormatDOT
	}
	return FormatMermaid
}

func (o *Options) shape() graph.Shape {
	s, _ := graph.ParseShape(o.Shape)
	return s
}

// RankDir maps the Mermaid direction onto Graphviz rankdir.
func (o *Options) RankDir() string {
	if o.Direction == string(mermaid.LeftRight) {
		return "LR"
	}
	return "TB"
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the decoded (and, in strict mode, filtered) graph.
	Graph *graph.Graph
	// Text is the converted diagram text. Empty when the graph lacks nodes
	// or edges.
	Text string
	// Artifact is the rendered output for image formats.
	Artifact []byte
	// RenderID is the element id of the rendered SVG.
	RenderID string
	// RenderErr is set when the renderer failed. Artifact then holds the
	// inline error document (SVG format only).
	RenderErr error

	Dropped    []graph.Edge
	Collisions []graph.Collision

	Stats     Stats
	CacheInfo CacheInfo
}

// Output returns the bytes to deliver for the run's format.
func (r *Result) Output() []byte {
	if r.Artifact != nil {
		return r.Artifact
	}
	return []byte(r.Text)
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount   int
	EdgeCount   int
	ConvertTime time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	Hit bool
}
