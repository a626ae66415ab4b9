package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	apperr "github.com/matzehuels/archview/pkg/errors"
	"github.com/matzehuels/archview/pkg/pipeline"
)

// diagramFlags are the conversion flags shared by convert and diagram.
type diagramFlags struct {
	format    string
	direction string
	shape     string
	renderer  string
	strict    bool
	detailed  bool
	output    string
	refresh   bool
}

func (f *diagramFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.format, "format", "f", pipeline.FormatMermaid, "output format: mermaid, dot, svg, png, pdf")
	fs.StringVarP(&f.direction, "direction", "d", "", "layout direction: TD or LR (default from config)")
	fs.StringVar(&f.shape, "shape", "auto", "payload layout: auto, flat, nested")
	fs.StringVar(&f.renderer, "renderer", "", "renderer for images: mermaid or graphviz (default from config)")
	fs.BoolVar(&f.strict, "strict", true, "drop edges whose endpoints are not declared nodes")
	fs.BoolVar(&f.detailed, "detailed", false, "list node components in Graphviz labels")
	fs.StringVarP(&f.output, "output", "o", "", "output file (default: stdout for text, <input>.<ext> for images)")
	fs.BoolVar(&f.refresh, "refresh", false, "ignore cached results")
}

// pipelineOptions merges the configured defaults with explicitly set flags.
func (c *CLI) pipelineOptions(cmd *cobra.Command, f *diagramFlags) (pipeline.Options, error) {
	rc := c.config().Render
	opts := pipeline.Options{
		Format:    f.format,
		Direction: rc.Direction,
		Shape:     f.shape,
		Renderer:  rc.Renderer,
		Strict:    rc.Strict,
		Detailed:  f.detailed,
		Refresh:   f.refresh,
		Logger:    c.Logger,
	}
	if f.direction != "" {
		opts.Direction = f.direction
	}
	if f.renderer != "" {
		opts.Renderer = f.renderer
	}
	if cmd.Flags().Changed("strict") {
		opts.Strict = f.strict
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, err
	}
	return opts, nil
}

// readInput reads a file, or stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "-" || path == "" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, apperr.Wrap(apperr.ErrCodeFileNotFound, err, "%s does not exist", path)
	}
	return data, err
}

// outputPath resolves where a result goes. Text goes to stdout unless an
// output is given; images default to base.<ext> in the working directory.
func outputPath(output, base string, opts pipeline.Options) string {
	if output != "" || opts.IsText() {
		return output
	}
	return base + "." + opts.Format
}

// baseName strips directory and extension from an input path.
func baseName(input string) string {
	if input == "" || input == "-" {
		return "diagram"
	}
	name := filepath.Base(input)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// writeOutput writes data to path, or to c.Out when path is empty.
func (c *CLI) writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := c.Out.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// writeResult delivers a pipeline result and reports where it went.
func (c *CLI) writeResult(res *pipeline.Result, opts pipeline.Options, output, base string) error {
	path := outputPath(output, base, opts)
	if err := c.writeOutput(path, res.Output()); err != nil {
		return err
	}
	if res.RenderErr != nil {
		printWarning("Renderer failed, wrote error document: %v", res.RenderErr)
	}
	if path != "" {
		printFile(path)
		printStats(res)
	}
	return nil
}
