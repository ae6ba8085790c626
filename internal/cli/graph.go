package cli

import (
	"os"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depresolve/pkg/deps"
	derrors "github.com/matzehuels/depresolve/pkg/errors"
	"github.com/matzehuels/depresolve/pkg/report"
	"github.com/matzehuels/depresolve/pkg/resolve"
)

const (
	graphDOT = "dot"
	graphSVG = "svg"
)

// graphCommand creates the graph command for rendering one subproject's
// dependency tree.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		opts      scanOpts
		dotOpts   report.DOTOptions
		root      string
		ecosystem string
		format    string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "graph <subproject-dir>",
		Short: "Render a subproject's dependency tree as DOT or SVG",
		Long: `Render a subproject's dependency tree as DOT or SVG.

<subproject-dir> is the subproject's root relative to --dir. When several
ecosystems share that root, pick one with --ecosystem.

Examples:
  depresolve graph services/api -o api.dot
  depresolve graph . --format svg --direct-only -o deps.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != graphDOT && format != graphSVG {
				return derrors.New(derrors.ErrCodeInvalidInput, "unknown format %q (want dot or svg)", format)
			}
			var eco deps.Ecosystem
			if ecosystem != "" {
				var err error
				if eco, err = derrors.ValidateEcosystem(ecosystem); err != nil {
					return err
				}
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := opts.apply(cmd, cfg); err != nil {
				return err
			}

			res, err := c.resolveTree(cmd.Context(), root, cfg, &opts)
			if err != nil {
				return err
			}
			sp, err := selectSubproject(res, args[0], eco)
			if err != nil {
				return err
			}

			data := []byte(report.DOT(sp, dotOpts))
			if format == graphSVG {
				if data, err = report.SVG(cmd.Context(), string(data)); err != nil {
					return derrors.Wrap(derrors.ErrCodeInternal, err, "render SVG")
				}
			}
			if output == "" {
				_, err = c.out.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return derrors.Wrap(derrors.ErrCodeInvalidPath, err, "write %s", output)
			}
			printSuccess("Rendered %s (%d dependencies)", displayRoot(sp.RootDir), len(sp.Dependencies))
			printFile(output)
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&root, "dir", "C", ".", "repository root")
	cmd.Flags().StringVarP(&ecosystem, "ecosystem", "e", "", "ecosystem, when several share the directory")
	cmd.Flags().StringVarP(&format, "format", "f", graphDOT, "output format: dot, svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&dotOpts.DirectOnly, "direct-only", false, "drop transitive dependencies not reachable from a direct one")
	cmd.Flags().BoolVar(&dotOpts.Versions, "versions", true, "show versions in node labels")

	return cmd
}

// selectSubproject finds the resolved subproject rooted at dir. eco may be
// empty when only one ecosystem has a subproject there.
func selectSubproject(res resolve.Result, dir string, eco deps.Ecosystem) (deps.ResolvedSubproject, error) {
	want := path.Clean(strings.TrimPrefix(dir, "./"))
	var matches []deps.ResolvedSubproject
	for _, sp := range res.AllResolved() {
		if path.Clean(displayRoot(sp.RootDir)) != want {
			continue
		}
		if eco != "" && sp.Ecosystem != eco {
			continue
		}
		matches = append(matches, sp)
	}
	switch len(matches) {
	case 0:
		return deps.ResolvedSubproject{}, derrors.New(derrors.ErrCodeSubprojectNotFound, "no resolved subproject at %s", want)
	case 1:
		return matches[0], nil
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = string(m.Ecosystem)
	}
	return deps.ResolvedSubproject{}, derrors.New(derrors.ErrCodeInvalidInput,
		"%d subprojects at %s (%s); choose one with --ecosystem", len(matches), want, strings.Join(names, ", "))
}
