package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/archview/pkg/cache"
	"github.com/matzehuels/archview/pkg/graph"
	"github.com/matzehuels/archview/pkg/observability"
	"github.com/matzehuels/archview/pkg/render"
	"github.com/matzehuels/archview/pkg/render/mermaid"
	"github.com/matzehuels/archview/pkg/render/nodelink"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use it so conversion and caching behave the same.
//
// The Runner holds no per-run state. Multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// IDs names render targets. Defaults to [render.UUIDGenerator].
	IDs render.IDGenerator
	// Mermaid renders Mermaid text. Defaults to [mermaid.CLI].
	Mermaid render.Renderer
	// Graphviz renders DOT text. Defaults to [nodelink.Graphviz].
	Graphviz render.Renderer
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:    c,
		Keyer:    keyer,
		Logger:   logger,
		IDs:      render.UUIDGenerator{},
		Mermaid:  mermaid.CLI{},
		Graphviz: nodelink.Graphviz{},
	}
}

// Execute runs decode → validate → convert → render on a raw payload.
// The delivered output is cached under the payload hash and options; failed
// renders are never cached.
func (r *Runner) Execute(ctx context.Context, payload []byte, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := r.logger(opts)

	key := r.Keyer.DiagramKey(payload, cache.DiagramKeyOpts{
		Format:    opts.Format,
		Direction: opts.Direction,
		Shape:     opts.Shape,
		Strict:    opts.Strict,
		Renderer:  opts.Renderer,
		Detailed:  opts.Detailed,
	})
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "diagram")
			logger.Debug("diagram cache hit", "format", opts.Format)
			g, err := graph.Decode(payload, opts.shape())
			if err != nil {
				return nil, err
			}
			res := r.check(ctx, g, opts)
			res.Stats.NodeCount = res.Graph.NodeCount()
			res.Stats.EdgeCount = res.Graph.EdgeCount()
			res.CacheInfo.Hit = true
			if opts.IsText() {
				res.Text = string(data)
			} else {
				res.Artifact = data
			}
			return res, nil
		}
		observability.Cache().OnCacheMiss(ctx, "diagram")
	}

	g, err := graph.Decode(payload, opts.shape())
	if err != nil {
		return nil, err
	}
	res, err := r.Convert(ctx, g, opts)
	if err != nil {
		return nil, err
	}
	if !opts.IsText() {
		if err := r.Render(ctx, res, opts); err != nil {
			return nil, err
		}
	}

	if res.RenderErr == nil {
		out := res.Output()
		if err := r.Cache.Set(ctx, key, out, cache.DiagramTTL); err != nil {
			logger.Debug("diagram cache write failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "diagram", len(out))
		}
	}
	return res, nil
}

// Convert runs the validation pre-pass (strict mode) and converts g to
// diagram text in the format selected by opts. Dropped edges and id
// collisions are logged at warn level and returned in the result.
func (r *Runner) Convert(ctx context.Context, g *graph.Graph, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := r.logger(opts)
	res := r.check(ctx, g, opts)

	start := time.Now()
	format := opts.TextFormat()
	switch format {
	case FormatDOT:
		res.Text = nodelink.ToDOT(res.Graph, nodelink.Options{RankDir: opts.RankDir(), Detailed: opts.Detailed})
	default:
		res.Text = mermaid.ToMermaid(res.Graph, mermaid.Options{Direction: mermaid.Direction(opts.Direction)})
	}
	res.Stats.ConvertTime = time.Since(start)
	res.Stats.NodeCount = res.Graph.NodeCount()
	res.Stats.EdgeCount = res.Graph.EdgeCount()
	observability.Convert().OnConvert(ctx, format, res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.ConvertTime)

	if res.Text == "" {
		logger.Warn("diagram has no nodes or edges")
	} else {
		logger.Debug("converted diagram",
			"format", format,
			"nodes", res.Stats.NodeCount,
			"edges", res.Stats.EdgeCount,
			"duration", res.Stats.ConvertTime)
	}
	return res, nil
}

// check runs the strict pre-pass and collision report for g, logging each
// dropped edge and collision at warn level. Cache hits go through it too.
func (r *Runner) check(ctx context.Context, g *graph.Graph, opts Options) *Result {
	logger := r.logger(opts)
	res := &Result{Graph: g}
	if opts.Strict && g.Renderable() {
		res.Graph, res.Dropped = graph.Validate(g)
		for _, e := range res.Dropped {
			logger.Warn("dropping edge with unknown endpoint",
				"source", e.Source, "target", e.Target, "protocol", e.Attributes.Protocol)
		}
	}
	res.Collisions = graph.Collisions(res.Graph)
	for _, c := range res.Collisions {
		logger.Warn("node ids collide after sanitizing", "id", c.SafeID, "nodes", c.IDs)
	}
	observability.Convert().OnValidate(ctx, len(res.Dropped), len(res.Collisions))
	return res
}

// Render lays out res.Text with the renderer selected by opts and stores
// the artifact on res. An empty text renders the loading placeholder.
//
// For SVG output a renderer failure is not returned: the artifact becomes
// the inline error document and res.RenderErr records the cause. PNG and
// PDF need a real diagram, so the failure is returned instead.
func (r *Runner) Render(ctx context.Context, res *Result, opts Options) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	out := r.Surface(opts).Render(ctx, r.sourceFor(res.Text, opts))
	res.RenderID = out.ID
	res.RenderErr = out.Err
	res.Stats.RenderTime = out.Duration
	if out.Err != nil {
		r.logger(opts).Error("render failed", "renderer", opts.Renderer, "error", out.Err)
		if opts.Format != FormatSVG {
			return out.Err
		}
		res.Artifact = out.SVG
		return nil
	}

	data, err := render.Convert(ctx, out.SVG, opts.Format)
	if err != nil {
		return fmt.Errorf("convert to %s: %w", opts.Format, err)
	}
	res.Artifact = data
	return nil
}

// Surface returns a render target bound to the renderer selected by opts.
// Long-lived callers (watch mode) keep one Surface so overlapping renders
// resolve to the latest.
func (r *Runner) Surface(opts Options) *render.Surface {
	ren := r.Mermaid
	name := RendererMermaid
	if opts.TextFormat() == FormatDOT {
		ren = r.Graphviz
		name = RendererGraphviz
	}
	if ren == nil {
		if name == RendererGraphviz {
			ren = nodelink.Graphviz{}
		} else {
			ren = mermaid.CLI{}
		}
	}
	return render.NewSurface(observedRenderer{name: name, next: ren}, r.IDs)
}

func (r *Runner) sourceFor(text string, opts Options) string {
	if text != "" {
		return text
	}
	if opts.TextFormat() == FormatDOT {
		return nodelink.Placeholder()
	}
	return render.Placeholder()
}

// Close releases the runner's cache.
func (r *Runner) Close() error {
	return r.Cache.Close()
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}

// observedRenderer reports every render to the observability hooks.
type observedRenderer struct {
	name string
	next render.Renderer
}

func (o observedRenderer) Render(ctx context.Context, id, source string) ([]byte, error) {
	start := time.Now()
	svg, err := o.next.Render(ctx, id, source)
	observability.Convert().OnRender(ctx, o.name, time.Since(start), err)
	return svg, err
}
