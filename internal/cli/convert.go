package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/archview/pkg/graph"
	"github.com/matzehuels/archview/pkg/pipeline"
	"github.com/matzehuels/archview/pkg/render"
)

const defaultWatchInterval = 500 * time.Millisecond

// convertCommand creates the convert command.
func (c *CLI) convertCommand() *cobra.Command {
	var (
		f        diagramFlags
		watch    bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "convert [file|-]",
		Short: "Convert architecture JSON to a diagram",
		Long: `Convert an architecture diagram payload to Mermaid, Graphviz DOT, or a
rendered SVG, PNG or PDF.

The payload is either {"nodes": [...], "edges": [...]} or the same wrapped
in {"diagram": ...}. Read from stdin when the file is "-" or omitted.

With --watch the file is re-converted whenever it changes. Renders that are
overtaken by a newer edit are discarded.`,
		Example: `  archview convert diagram.json
  archview convert diagram.json -f svg --renderer graphviz -d LR
  cat project.json | archview convert --shape nested
  archview convert diagram.json -f svg -o out/arch.svg --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "-"
			if len(args) == 1 {
				input = args[0]
			}
			opts, err := c.pipelineOptions(cmd, &f)
			if err != nil {
				return err
			}
			if watch {
				if input == "-" {
					return errors.New("--watch needs a file argument")
				}
				return c.runWatch(cmd.Context(), input, opts, f.output, interval)
			}
			return c.runConvert(cmd.Context(), input, opts, f.output)
		},
	}

	f.register(cmd)
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-convert when the input file changes")
	cmd.Flags().DurationVar(&interval, "interval", defaultWatchInterval, "polling interval for --watch")
	return cmd
}

func (c *CLI) runConvert(ctx context.Context, input string, opts pipeline.Options, output string) error {
	payload, err := readInput(input)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	res, err := runner.Execute(ctx, payload, opts)
	if err != nil {
		return err
	}
	if !opts.IsText() {
		prog.done("Rendered diagram", "format", opts.Format, "render_id", res.RenderID)
	}
	return c.writeResult(res, opts, output, baseName(input))
}

// =============================================================================
// Watch Mode
// =============================================================================

// watcher re-converts a file on change. Conversion is synchronous; renders
// run in the background on one surface so a slow render never blocks the
// next edit and superseded output is dropped.
type watcher struct {
	cli     *CLI
	runner  *pipeline.Runner
	surface *render.Surface
	opts    pipeline.Options
	input   string
	output  string

	writeMu sync.Mutex
	wg      sync.WaitGroup
}

func (c *CLI) runWatch(ctx context.Context, input string, opts pipeline.Options, output string, interval time.Duration) error {
	if interval <= 0 {
		interval = defaultWatchInterval
	}
	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	w := &watcher{
		cli:     c,
		runner:  runner,
		surface: runner.Surface(opts),
		opts:    opts,
		input:   input,
		output:  outputPath(output, baseName(input), opts),
	}
	defer w.wg.Wait()

	logger := loggerFromContext(ctx)
	logger.Info("watching", "file", input, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last time.Time
	for {
		info, err := os.Stat(input)
		switch {
		case err != nil:
			logger.Warn("cannot stat input", "error", err)
		case info.ModTime().After(last):
			last = info.ModTime()
			w.update(ctx)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// update converts the current file contents. Errors are logged so the
// watch keeps running while the file is mid-edit.
func (w *watcher) update(ctx context.Context) {
	logger := loggerFromContext(ctx)

	payload, err := readInput(w.input)
	if err != nil {
		logger.Error("read input", "error", err)
		return
	}
	shape, _ := graph.ParseShape(w.opts.Shape)
	g, err := graph.Decode(payload, shape)
	if err != nil {
		logger.Error("decode input", "error", err)
		return
	}
	res, err := w.runner.Convert(ctx, g, w.opts)
	if err != nil {
		logger.Error("convert", "error", err)
		return
	}

	if w.opts.IsText() {
		w.write(ctx, res.Output())
		return
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		out := w.surface.Render(ctx, res.Text)
		if out.Stale {
			logger.Debug("discarding superseded render", "id", out.ID)
			return
		}
		if out.Err != nil {
			logger.Error("render failed", "id", out.ID, "error", out.Err)
			if w.opts.Format != pipeline.FormatSVG {
				return
			}
			w.publish(ctx, out, out.SVG)
			return
		}
		data, err := render.Convert(ctx, out.SVG, w.opts.Format)
		if err != nil {
			logger.Error("convert render", "error", err)
			return
		}
		w.publish(ctx, out, data)
	}()
}

// publish writes a render's output unless a newer render has started.
func (w *watcher) publish(ctx context.Context, out render.Output, data []byte) {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	if w.surface.Current().ID != out.ID {
		loggerFromContext(ctx).Debug("discarding superseded render", "id", out.ID)
		return
	}
	w.writeLocked(ctx, data)
}

func (w *watcher) write(ctx context.Context, data []byte) {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	w.writeLocked(ctx, data)
}

func (w *watcher) writeLocked(ctx context.Context, data []byte) {
	if err := w.cli.writeOutput(w.output, data); err != nil {
		loggerFromContext(ctx).Error("write output", "error", err)
		return
	}
	if w.output != "" {
		loggerFromContext(ctx).Info("updated", "file", w.output, "bytes", len(data))
	}
}
