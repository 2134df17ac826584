package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"sales-kpi/internal/kpi"
	"sales-kpi/internal/middleware"
	"sales-kpi/internal/server"
	"sales-kpi/internal/services"
	"sales-kpi/internal/source"
	"sales-kpi/internal/storage"
	"sales-kpi/pkg/version"
)

type serveOptions struct {
	host string
	port int
	top  int
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the KPI dashboard and API",
		Long: `Load the sales table from the configured source and serve the
dashboard, the JSON API and the datastar streams. The table is refreshed
every cache TTL until the process receives SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.host != "" {
				root.cfg.Server.Host = opts.host
			}
			if opts.port > 0 {
				root.cfg.Server.Port = opts.port
			}
			return runServe(cmd.Context(), root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "listen host (overrides config)")
	cmd.Flags().IntVar(&opts.port, "port", 0, "listen port (overrides config)")
	cmd.Flags().IntVar(&opts.top, "top", kpi.DefaultTopCustomers, "customers listed in the top customers table")
	return cmd
}

func runServe(ctx context.Context, root *rootOptions, opts *serveOptions) error {
	cfg, logger := root.cfg, root.logger

	logger.Info("starting application",
		"version", version.Short(),
		"source", cfg.Source.Kind,
		"fallback", cfg.Source.Fallback,
		"cache_store", cfg.Cache.Store,
	)

	provider, err := source.New(ctx, cfg.Source, logger)
	if err != nil {
		return fmt.Errorf("failed to create source: %w", err)
	}
	store, err := storage.New(cfg.Cache)
	if err != nil {
		_ = source.Close(provider)
		return fmt.Errorf("failed to create cache store: %w", err)
	}

	cache := source.NewCache(provider, cfg.Cache.TTL, store, logger)
	analytics := services.NewAnalytics(cache, logger, kpi.WithTopCustomers(opts.top))

	loadCtx, cancel := context.WithTimeout(ctx, cfg.Source.FetchTimeout)
	start := time.Now()
	err = analytics.Load(loadCtx)
	cancel()
	if err != nil {
		_ = source.Close(provider)
		if store != nil {
			_ = store.Close()
		}
		return fmt.Errorf("failed to load sales data: %w", err)
	}
	logger.Info("sales data loaded", "duration", time.Since(start), "info", analytics.Info())

	refreshCtx, stopRefresh := context.WithCancel(ctx)
	defer stopRefresh()
	analytics.Start(refreshCtx, cfg.Cache.TTL, cfg.Source.FetchTimeout)

	srv := server.NewServer(analytics, logger, cfg.Source.FetchTimeout)
	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      middlewareChain(srv),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)
	gracefulServer.RegisterShutdownHook("refresher", func(context.Context) error {
		stopRefresh()
		return nil
	})
	gracefulServer.RegisterShutdownHook("rate-limiter", func(context.Context) error {
		rateLimiter.Stop()
		return nil
	})
	gracefulServer.RegisterShutdownHook("source", func(context.Context) error {
		return source.Close(provider)
	})
	if store != nil {
		gracefulServer.RegisterShutdownHook("cache-store", func(context.Context) error {
			return store.Close()
		})
	}

	if err := gracefulServer.ListenAndServe(ctx); err != nil {
		return err
	}
	logger.Info("application stopped gracefully")
	return nil
}
