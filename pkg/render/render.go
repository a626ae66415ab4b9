package render

import (
	"context"
	"fmt"
	"html"
	"sync"
	"time"
)

// FailureMessage is shown in place of a diagram that failed to render.
const FailureMessage = "Failed to render diagram"

// placeholderText is valid Mermaid shown while there is nothing to draw.
const placeholderText = "graph TD\n  loading[\"Loading...\"]\n"

// Renderer lays out diagram text and returns SVG. The id names the root
// element of the produced document.
type Renderer interface {
	Render(ctx context.Context, id, source string) ([]byte, error)
}

// RendererFunc adapts a function to [Renderer].
type RendererFunc func(ctx context.Context, id, source string) ([]byte, error)

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, id, source string) ([]byte, error) {
	return f(ctx, id, source)
}

// Placeholder returns a single-node Mermaid diagram for use when the
// converter produced no text, so the renderer always gets valid input.
func Placeholder() string {
	return placeholderText
}

// Output is the result of one render.
type Output struct {
	// ID is the element id assigned to this render.
	ID string
	// Source is the diagram text that was rendered.
	Source string
	// SVG is the rendered document, or an inline error document on failure.
	SVG []byte
	// Err is the renderer failure, if any. SVG is still usable when set.
	Err error
	// Stale is true when a newer render started before this one finished.
	// Stale output is not published to the surface.
	Stale bool
	// Duration is the time spent in the renderer.
	Duration time.Duration
}

// Surface is a render target. It is safe for concurrent use.
type Surface struct {
	renderer Renderer
	ids      IDGenerator

	mu         sync.Mutex
	generation uint64
	current    Output
}

// NewSurface creates a Surface that renders with r and takes element ids
// from ids. A nil ids uses [UUIDGenerator].
func NewSurface(r Renderer, ids IDGenerator) *Surface {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &Surface{renderer: r, ids: ids}
}

// Render clears the surface, renders source under a fresh id, and publishes
// the result unless a later Render has started in the meantime.
//
// Empty source is replaced with [Placeholder]. Renderer failures never
// escape as panics or bare errors: the returned Output carries an inline
// error document in SVG and the cause in Err.
func (s *Surface) Render(ctx context.Context, source string) Output {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.current = Output{}
	s.mu.Unlock()

	if source == "" {
		source = Placeholder()
	}

	out := Output{ID: s.ids.NewID(), Source: source}
	start := time.Now()
	svg, err := s.renderer.Render(ctx, out.ID, source)
	out.Duration = time.Since(start)
	if err != nil {
		out.Err = err
		out.SVG = ErrorSVG(out.ID, FailureMessage)
	} else {
		out.SVG = svg
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		out.Stale = true
		return out
	}
	s.current = out
	return out
}

// Current returns the most recently published output. It is the zero
// Output while a render is in flight or before the first render.
func (s *Surface) Current() Output {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// ErrorSVG returns a small SVG document displaying msg.
func ErrorSVG(id, msg string) []byte {
	return []byte(fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" id="%s" viewBox="0 0 400 40" width="400" height="40">`+
			`<text x="10" y="25" fill="#b91c1c" font-family="sans-serif" font-size="14">%s</text></svg>`,
		html.EscapeString(id), html.EscapeString(msg)))
}
