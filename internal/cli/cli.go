// Package cli implements the archview command-line interface.
//
// archview converts the architecture diagrams produced by the
// requirements-analysis backend into Mermaid or Graphviz, renders them, and
// shows the backend's project artifacts in the terminal.
//
// # Commands
//
//   - convert: architecture JSON file → Mermaid, DOT, SVG, PNG or PDF
//   - diagram: the same for a backend project, optionally published
//   - projects: list or interactively pick projects
//   - estimation: show a project's effort estimation spreadsheet
//   - serve: run the HTTP conversion service
//   - cache, config: inspect local state
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// also attached to the command context for helpers that only see a context.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/archview/pkg/artifact"
	"github.com/matzehuels/archview/pkg/backend"
	"github.com/matzehuels/archview/pkg/buildinfo"
	"github.com/matzehuels/archview/pkg/cache"
	"github.com/matzehuels/archview/pkg/config"
	"github.com/matzehuels/archview/pkg/httputil"
	"github.com/matzehuels/archview/pkg/pipeline"
	"github.com/matzehuels/archview/pkg/render/mermaid"
	"github.com/matzehuels/archview/pkg/source"
	"github.com/matzehuels/archview/pkg/source/local"
	"github.com/matzehuels/archview/pkg/source/mongostore"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "archview"

	// redisPrefix namespaces archview keys in a shared Redis.
	redisPrefix = "archview:"

	// defaultArtifactDir receives published diagrams when no object store
	// is configured. Relative to the working directory.
	defaultArtifactDir = "archview-artifacts"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	// Out receives command output such as diagram text and tables.
	Out io.Writer

	configPath string
	noCache    bool
	cfg        *config.Result
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level. Debug also reports callers.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	c.Logger.SetReportCaller(level <= log.DebugLevel)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "archview turns architecture JSON into Mermaid diagrams",
		Long: `archview converts the architecture diagrams generated by the requirements
analysis backend into Mermaid or Graphviz, renders them to SVG, PNG or PDF,
and lists the backend's projects and effort estimations.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/archview/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable caching")

	root.AddCommand(c.convertCommand())
	root.AddCommand(c.diagramCommand())
	root.AddCommand(c.projectsCommand())
	root.AddCommand(c.estimationCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

func (c *CLI) loadConfig() error {
	res, err := config.Load(config.LoadOptions{Path: c.configPath})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	for _, k := range res.Unknown {
		c.Logger.Warn("unknown config key", "key", k, "file", res.Path)
	}
	if res.FileFound {
		c.Logger.Debug("loaded config", "file", res.Path)
	}
	c.cfg = res
	return nil
}

// config returns the loaded configuration, or the defaults when commands run
// without the root pre-run (tests).
func (c *CLI) config() *config.Config {
	if c.cfg == nil {
		return config.Default()
	}
	return c.cfg.Config
}

// =============================================================================
// Factories
// =============================================================================

func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	cfg := c.config().Cache
	if c.noCache || cfg.Disabled {
		return cache.NewNullCache(), nil
	}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, redisPrefix)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return rc, nil
	}
	fc, err := cache.NewFileCache(cfg.Dir)
	if err != nil {
		c.Logger.Warn("file cache unavailable, caching disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(cc, nil, c.Logger)
	rc := c.config().Render
	r.Mermaid = mermaid.CLI{Binary: rc.MermaidBinary, Theme: rc.Theme}
	return r, nil
}

func (c *CLI) newBackend(ctx context.Context) (*backend.Client, error) {
	cfg := c.config().Backend
	cc, err := c.newCache(ctx)
	if err != nil {
		return nil, err
	}
	policy := httputil.NoRetry
	if cfg.Retries > 0 {
		policy = httputil.DefaultPolicy
		policy.Attempts = cfg.Retries
	}
	return backend.New(cfg.URL, backend.Options{
		Cookie:     cfg.Cookie,
		Cache:      cc,
		TTL:        c.config().Cache.TTL,
		Retry:      policy,
		HTTPClient: httputil.NewHTTPClient(cfg.Timeout),
	})
}

// newSource picks where projects come from: a saved project list when from
// is set, MongoDB when configured, the backend otherwise. The returned
// function releases the source.
func (c *CLI) newSource(ctx context.Context, from string, refresh bool) (source.Source, func(), error) {
	noop := func() {}
	if from != "" {
		s, err := local.Open(from)
		return s, noop, err
	}
	if mc := c.config().Mongo; mc.URI != "" {
		s, err := mongostore.Open(ctx, mongostore.Config{
			URI:        mc.URI,
			Database:   mc.Database,
			Collection: mc.Collection,
		})
		if err != nil {
			return nil, noop, err
		}
		return s, func() {
			if err := s.Close(context.Background()); err != nil {
				c.Logger.Debug("close mongo", "error", err)
			}
		}, nil
	}
	b, err := c.newBackend(ctx)
	if err != nil {
		return nil, noop, err
	}
	if refresh {
		b = b.Refreshing()
	}
	return b, noop, nil
}

func (c *CLI) newArtifactStore() (artifact.Store, error) {
	ac := c.config().Artifact
	if ac.Endpoint != "" {
		return artifact.NewS3Store(artifact.S3Config{
			Endpoint:  ac.Endpoint,
			Region:    ac.Region,
			AccessKey: ac.AccessKey,
			SecretKey: ac.SecretKey,
			Bucket:    ac.Bucket,
			UseSSL:    ac.UseSSL,
			Prefix:    ac.Prefix,
		})
	}
	dir := ac.Dir
	if dir == "" {
		dir = defaultArtifactDir
	}
	return artifact.NewDirStore(dir)
}
