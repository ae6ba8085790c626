package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	derrors "github.com/matzehuels/depresolve/pkg/errors"
	"github.com/matzehuels/depresolve/pkg/observability"
	"github.com/matzehuels/depresolve/pkg/resolve"
	"github.com/matzehuels/depresolve/pkg/worker"
)

const shutdownTimeout = 10 * time.Second

// workerCommand creates the worker command, the process side of dynamic
// resolution.
func (c *CLI) workerCommand() *cobra.Command {
	var (
		root    string
		listen  string
		stdio   bool
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Serve dynamic resolution requests",
		Long: `Serve dynamic resolution requests.

The worker runs the package manager configured for a manifest kind in the
manifest's directory under --dir and parses the lockfile it writes. With
--stdio it answers one JSON request per line on stdin, which is how the exec
transport drives it; otherwise it serves HTTP on --listen.

Examples:
  depresolve worker --listen 127.0.0.1:8377
  depresolve worker --stdio`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Worker.Listen = listen
			}
			tools, err := cfg.Tools()
			if err != nil {
				return derrors.Wrap(derrors.ErrCodeInvalidConfig, err, "worker tools")
			}
			absRoot, err := filepath.Abs(root)
			if err != nil {
				return derrors.Wrap(derrors.ErrCodeInvalidPath, err, "resolve %s", root)
			}
			store, err := newCache(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer store.Close()
			observability.SetCacheHooks(cacheLogHooks{logger: logger})
			defer observability.Reset()

			r := &worker.Resolver{
				Root:        absRoot,
				Tools:       tools,
				Parsers:     resolve.Parsers,
				ToolTimeout: cfg.Worker.ToolTimeout,
				Cache:       store,
				Keyer:       newKeyer(cfg),
				TTL:         cfg.Cache.TTL,
				Logger:      logger,
			}
			if stdio {
				return worker.ServeStdio(ctx, r, os.Stdin, c.out)
			}
			return serveHTTP(ctx, cfg.Worker.Listen, worker.NewHandler(r, logger), logger)
		},
	}

	cmd.Flags().StringVarP(&root, "dir", "C", ".", "repository root request paths are relative to")
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (default from config)")
	cmd.Flags().BoolVar(&stdio, "stdio", false, "serve JSON lines on stdin/stdout instead of HTTP")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the resolution cache")

	return cmd
}

// serveHTTP runs h on addr until ctx ends, then shuts down gracefully.
func serveHTTP(ctx context.Context, addr string, h http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("worker listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("worker stopped")
	return ctx.Err()
}

// cacheLogHooks logs worker cache activity at debug level.
type cacheLogHooks struct {
	logger *log.Logger
}

func (h cacheLogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h cacheLogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h cacheLogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}
