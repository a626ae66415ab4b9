package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/archview/pkg/artifact"
	"github.com/matzehuels/archview/pkg/graph"
	"github.com/matzehuels/archview/pkg/pipeline"
	"github.com/matzehuels/archview/pkg/source"
)

// diagramCommand creates the diagram command for backend projects.
func (c *CLI) diagramCommand() *cobra.Command {
	var (
		f       diagramFlags
		from    string
		publish bool
	)

	cmd := &cobra.Command{
		Use:   "diagram <project-id>",
		Short: "Convert a project's architecture diagram",
		Long: `Fetch a project from the backend (or MongoDB, or a saved project list)
and convert its generated architecture diagram.

With --publish the diagram text and any rendered image are uploaded to the
configured artifact store and their links printed.`,
		Example: `  archview diagram 65f0c2a9e4b0a1b2c3d4e5f6
  archview diagram 65f0c2a9e4b0a1b2c3d4e5f6 -f svg --publish
  archview diagram demo --from projects.json`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeProjectIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.pipelineOptions(cmd, &f)
			if err != nil {
				return err
			}
			return c.runDiagram(cmd.Context(), args[0], opts, f.output, from, publish)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&from, "from", "", "read projects from a saved list instead of the backend")
	cmd.Flags().BoolVar(&publish, "publish", false, "upload the outputs to the artifact store")
	return cmd
}

func (c *CLI) runDiagram(ctx context.Context, id string, opts pipeline.Options, output, from string, publish bool) error {
	src, closeSrc, err := c.newSource(ctx, from, opts.Refresh)
	if err != nil {
		return err
	}
	defer closeSrc()

	spinner := startSpinner(ctx, "Fetching project...")
	defer spinner.Stop()
	shape, _ := graph.ParseShape(opts.Shape)
	g, project, err := source.Diagram(ctx, src, id, shape)
	if err != nil {
		spinner.StopWithError("Could not load diagram")
		return err
	}
	c.Logger.Debug("loaded project", "id", project.ID, "name", project.Name)

	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	res, err := runner.Convert(ctx, g, opts)
	if err != nil {
		return err
	}
	if !opts.IsText() {
		spinner.Update("Rendering diagram...")
		if err := runner.Render(ctx, res, opts); err != nil {
			spinner.StopWithError("Render failed")
			return err
		}
	}
	spinner.Stop()
	if err := c.writeResult(res, opts, output, project.ID); err != nil {
		return err
	}
	if publish {
		return c.publish(ctx, project, res, opts)
	}
	return nil
}

// publish uploads the diagram text and, when rendered, the image.
func (c *CLI) publish(ctx context.Context, project *source.Project, res *pipeline.Result, opts pipeline.Options) error {
	store, err := c.newArtifactStore()
	if err != nil {
		return fmt.Errorf("artifact store: %w", err)
	}

	files := map[string][]byte{}
	if res.Text != "" {
		ext := ".mmd"
		if opts.TextFormat() == pipeline.FormatDOT {
			ext = ".dot"
		}
		files["diagram"+ext] = []byte(res.Text)
	}
	if res.Artifact != nil && res.RenderErr == nil {
		files["diagram."+opts.Format] = res.Artifact
	}
	if len(files) == 0 {
		printWarning("Nothing to publish")
		return nil
	}

	printNewline()
	printInfo("Published %s", StyleHighlight.Render(project.Name))
	for _, name := range sortedKeys(files) {
		if err := store.Put(ctx, project.ID, name, files[name]); err != nil {
			return fmt.Errorf("publish %s: %w", name, err)
		}
		link, err := store.URL(ctx, project.ID, name)
		if err != nil {
			return err
		}
		printKeyValue(name, StyleLink.Render(link))
		c.Logger.Debug("published artifact", "name", name, "type", artifact.ContentType(name), "bytes", len(files[name]))
	}
	return nil
}
