// Package cli implements the depresolve command-line interface.
//
// # Commands
//
//   - scan: discover subprojects under a directory and resolve their dependencies
//   - subprojects: list discovered subprojects without resolving them
//   - closest: attribute a file to the nearest resolved subproject
//   - graph: render one subproject's dependency tree as DOT or SVG
//   - worker: serve dynamic resolution requests over HTTP or stdio
//   - cache: manage the worker's resolution cache
//
// All commands accept --config and --verbose (-v). Settings come from
// .depresolve.yaml and DEPRESOLVE_* variables; flags win.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/depresolve/pkg/buildinfo"
	"github.com/matzehuels/depresolve/pkg/cache"
	"github.com/matzehuels/depresolve/pkg/config"
	derrors "github.com/matzehuels/depresolve/pkg/errors"
	"github.com/matzehuels/depresolve/pkg/rpc"
)

// appName is the application name used for directories and display.
const appName = "depresolve"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// out receives command output; status lines and logs go to stderr.
	out        io.Writer
	configPath string
}

// New creates a new CLI instance that logs to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), out: os.Stdout}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetOutput redirects command output.
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Find dependency subprojects in a repository and resolve them",
		Long: `depresolve walks a repository, groups manifests and lockfiles into
subprojects, and resolves each subproject's dependencies from its lockfile
or, when allowed, by asking a resolver worker to run the package manager.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default .depresolve.yaml)")

	root.AddCommand(c.scanCommand())
	root.AddCommand(c.subprojectsCommand())
	root.AddCommand(c.closestCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.workerCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configuration selected by --config.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, derrors.Wrap(derrors.ErrCodeInvalidConfig, err, "load configuration")
	}
	return cfg, nil
}

// newResolverClient builds the dynamic resolution client described by cfg.
// Exec workers run in root so request paths resolve against the scanned tree.
func newResolverClient(cfg *config.Config, root string, logger *log.Logger) *rpc.Client {
	var tr rpc.Transport
	switch cfg.Resolver.Transport {
	case config.TransportHTTP:
		tr = &rpc.HTTPTransport{
			BaseURL: cfg.Resolver.URL,
			Retries: cfg.Resolver.Retries,
			Backoff: cfg.Resolver.Backoff,
		}
	default:
		tr = &rpc.ExecTransport{Command: cfg.Resolver.Command, Args: cfg.Resolver.Args, Dir: root}
	}
	return &rpc.Client{Transport: tr, Timeout: cfg.Resolution.Timeout, Logger: logger}
}

// newCache opens the configured cache backend.
func newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	c, err := cache.Open(ctx, cache.Options{
		Backend:   cfg.Cache.Backend,
		Dir:       cfg.Cache.Dir,
		Size:      cfg.Cache.Size,
		RedisAddr: cfg.Cache.RedisAddr,
	})
	if err != nil {
		return nil, derrors.Wrap(derrors.ErrCodeResolverUnavailable, err, "open %s cache", cfg.Cache.Backend)
	}
	return c, nil
}

// newKeyer returns the cache keyer, scoped by cache.prefix when set.
func newKeyer(cfg *config.Config) cache.Keyer {
	k := cache.NewDefaultKeyer()
	if cfg.Cache.Prefix != "" {
		return cache.NewScopedKeyer(k, cfg.Cache.Prefix)
	}
	return k
}
