package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/archview/pkg/cache"
	"github.com/matzehuels/archview/pkg/observability/prom"
	"github.com/matzehuels/archview/pkg/pipeline"
	"github.com/matzehuels/archview/pkg/render/mermaid"
	"github.com/matzehuels/archview/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		noSource bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion service",
		Long: `Run the HTTP conversion service.

Endpoints:
  POST /api/v1/mermaid                architecture JSON to Mermaid text
  POST /api/v1/dot                    architecture JSON to Graphviz DOT
  POST /api/v1/svg                    architecture JSON to SVG
  GET  /api/v1/projects/{id}/diagram  a project's diagram
  GET  /healthz, /metrics

Results are kept in an in-memory LRU, or in Redis when cache.redis_url is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.config().Server.Addr
			}
			return c.runServe(cmd.Context(), addr, !noSource)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8090)")
	cmd.Flags().BoolVar(&noSource, "no-projects", false, "disable the projects route")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, withSource bool) error {
	cfg := c.config()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := prom.New(reg)
	metrics.Register()

	var cc cache.Cache
	if cfg.Cache.RedisURL != "" && !c.noCache {
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, redisPrefix)
		if err != nil {
			return fmt.Errorf("redis cache: %w", err)
		}
		cc = rc
	} else if !c.noCache {
		mc, err := cache.NewMemoryCache(cfg.Server.CacheEntries)
		if err != nil {
			return err
		}
		cc = mc
	}
	runner := pipeline.NewRunner(cc, nil, c.Logger)
	runner.Mermaid = mermaid.CLI{Binary: cfg.Render.MermaidBinary, Theme: cfg.Render.Theme}
	defer runner.Close()

	opts := server.Options{
		Addr:   addr,
		Runner: runner,
		Defaults: pipeline.Options{
			Direction: cfg.Render.Direction,
			Renderer:  cfg.Render.Renderer,
			Strict:    cfg.Render.Strict,
		},
		Registry: reg,
		Metrics:  metrics,
		Logger:   c.Logger,
	}
	if withSource {
		src, closeSrc, err := c.newSource(ctx, "", false)
		if err != nil {
			return err
		}
		defer closeSrc()
		opts.Source = src
	}

	srv, err := server.New(opts)
	if err != nil {
		return err
	}
	printInfo("Serving on %s", StyleHighlight.Render(srv.Addr()))
	return srv.ListenAndServe(ctx)
}
