package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depresolve/pkg/config"
	"github.com/matzehuels/depresolve/pkg/deps"
	"github.com/matzehuels/depresolve/pkg/deps/matcher"
	derrors "github.com/matzehuels/depresolve/pkg/errors"
	"github.com/matzehuels/depresolve/pkg/observability"
	"github.com/matzehuels/depresolve/pkg/report"
	"github.com/matzehuels/depresolve/pkg/resolve"
	"github.com/matzehuels/depresolve/pkg/walk"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// scanOpts holds the flags shared by commands that resolve a tree.
type scanOpts struct {
	allowDynamic bool
	preferGraph  bool
	exclude      []string
	concurrency  int
	noProgress   bool
}

func (o *scanOpts) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.allowDynamic, "allow-dynamic", false, "allow dynamic resolution through the configured worker")
	cmd.Flags().BoolVar(&o.preferGraph, "prefer-dynamic-graph", false, "prefer dynamic resolution for pom.xml and build.gradle")
	cmd.Flags().StringSliceVar(&o.exclude, "exclude", nil, "doublestar pattern to skip (repeatable)")
	cmd.Flags().IntVar(&o.concurrency, "concurrency", 0, "subprojects resolved in parallel (default from config)")
	cmd.Flags().BoolVar(&o.noProgress, "no-progress", false, "hide the progress spinner")
}

// apply overrides cfg with the flags the user set explicitly.
func (o *scanOpts) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("allow-dynamic") {
		cfg.Resolution.AllowDynamic = o.allowDynamic
	}
	if flags.Changed("prefer-dynamic-graph") {
		cfg.Resolution.PreferDynamicGraph = o.preferGraph
	}
	if flags.Changed("concurrency") {
		cfg.Resolution.Concurrency = o.concurrency
	}
	cfg.Scan.Exclude = append(cfg.Scan.Exclude, o.exclude...)
	if err := cfg.Validate(); err != nil {
		return derrors.Wrap(derrors.ErrCodeInvalidConfig, err, "invalid flags")
	}
	return nil
}

// scanCommand creates the scan command.
func (c *CLI) scanCommand() *cobra.Command {
	var (
		opts   scanOpts
		format string
		output string
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Discover and resolve every subproject under a directory",
		Long: `Discover and resolve every subproject under a directory.

Each subproject is resolved from its lockfile. With --allow-dynamic, manifests
without a lockfile are sent to the configured resolver worker, and with
--prefer-dynamic-graph pom.xml and build.gradle go to the worker first.

Examples:
  depresolve scan
  depresolve scan ./services --format json -o report.json
  depresolve scan --allow-dynamic --strict`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatText && format != formatJSON {
				return derrors.New(derrors.ErrCodeInvalidInput, "unknown format %q (want text or json)", format)
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := opts.apply(cmd, cfg); err != nil {
				return err
			}
			return c.runScan(cmd.Context(), rootArg(args), cfg, &opts, format, output, strict)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text, json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any subproject is unresolved")

	return cmd
}

func (c *CLI) runScan(ctx context.Context, root string, cfg *config.Config, opts *scanOpts, format, output string, strict bool) error {
	started := time.Now()
	res, err := c.resolveTree(ctx, root, cfg, opts)
	if err != nil {
		return err
	}
	rep := report.Build(root, started, res)

	write := func(w io.Writer) error {
		if format == formatJSON {
			return rep.WriteJSON(w)
		}
		writeTextReport(w, rep)
		return nil
	}
	if output == "" {
		if err := write(c.out); err != nil {
			return err
		}
	} else {
		f, err := os.Create(output)
		if err != nil {
			return derrors.Wrap(derrors.ErrCodeInvalidPath, err, "create %s", output)
		}
		if err := writeAndClose(f, write); err != nil {
			return derrors.Wrap(derrors.ErrCodeInvalidPath, err, "write %s", output)
		}
		printSuccess("Report written")
		printFile(output)
	}

	if strict && len(res.Unresolved) > 0 {
		return derrors.New(derrors.ErrCodeUnresolved, "%d subproject(s) could not be resolved", len(res.Unresolved))
	}
	return nil
}

// resolveTree walks root and resolves every subproject found.
func (c *CLI) resolveTree(ctx context.Context, root string, cfg *config.Config, opts *scanOpts) (resolve.Result, error) {
	logger := loggerFromContext(ctx)

	fsys, matchers, candidates, err := discover(root, cfg)
	if err != nil {
		return resolve.Result{}, err
	}

	var dynamic resolve.DynamicResolver
	if cfg.Resolution.AllowDynamic {
		dynamic = newResolverClient(cfg, root, logger)
	}

	var spin *Spinner
	if !opts.noProgress {
		spin = newSpinnerWithContext(ctx, "Discovering subprojects...")
		spin.Start()
		defer spin.Stop()
	}
	observability.SetResolutionHooks(newProgressHooks(spin, logger))
	defer observability.Reset()

	prog := newProgress(logger)
	res, err := resolve.ResolveAll(ctx, candidates, resolve.Options{
		Matchers: matchers,
		Policy: resolve.Policy{
			AllowDynamic:       cfg.Resolution.AllowDynamic,
			PreferDynamicGraph: cfg.Resolution.PreferDynamicGraph,
		},
		Concurrency: cfg.Resolution.Concurrency,
		Dispatcher:  resolve.NewDispatcher(fsys, dynamic, logger),
	})
	if err != nil {
		return resolve.Result{}, err
	}
	prog.done(fmt.Sprintf("Resolved %d subprojects, %d unresolved", len(res.AllResolved()), len(res.Unresolved)))
	return res, nil
}

// discover checks root and returns its filesystem, the effective matchers
// and the candidate files.
func discover(root string, cfg *config.Config) (fs.FS, []matcher.Matcher, []string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, nil, derrors.Wrap(derrors.ErrCodeFileNotFound, err, "scan root %s", root)
	}
	if !info.IsDir() {
		return nil, nil, nil, derrors.New(derrors.ErrCodeInvalidPath, "%s is not a directory", root)
	}
	matchers, err := cfg.AllMatchers()
	if err != nil {
		return nil, nil, nil, derrors.Wrap(derrors.ErrCodeInvalidConfig, err, "build matchers")
	}
	fsys := os.DirFS(root)
	candidates, err := walk.Candidates(fsys, walk.Options{Exclude: cfg.Scan.Exclude, Matchers: matchers})
	if err != nil {
		return nil, nil, nil, derrors.Wrap(derrors.ErrCodeInternal, err, "walk %s", root)
	}
	return fsys, matchers, candidates, nil
}

// subprojectsCommand creates the subprojects command.
func (c *CLI) subprojectsCommand() *cobra.Command {
	var (
		exclude []string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "subprojects [dir]",
		Short: "List discovered subprojects without resolving them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			cfg.Scan.Exclude = append(cfg.Scan.Exclude, exclude...)
			if err := cfg.Validate(); err != nil {
				return derrors.Wrap(derrors.ErrCodeInvalidConfig, err, "invalid flags")
			}
			_, matchers, candidates, err := discover(rootArg(args), cfg)
			if err != nil {
				return err
			}
			subprojects := matcher.FindSubprojects(candidates, matchers)
			if asJSON {
				return writeSubprojectsJSON(c.out, subprojects)
			}
			writeSubprojects(c.out, subprojects)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "doublestar pattern to skip (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print subproject stats as JSON")

	return cmd
}

func writeSubprojectsJSON(w io.Writer, subprojects []deps.Subproject) error {
	stats := make([]deps.SubprojectStats, 0, len(subprojects))
	for _, sp := range subprojects {
		stats = append(stats, sp.Stats())
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

// writeAndClose runs write on wc and closes it. A failed close is returned
// since buffered data may not have reached the file.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) error {
	if err := write(wc); err != nil {
		_ = wc.Close()
		return err
	}
	return wc.Close()
}

func rootArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}
