package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depresolve/pkg/deps"
	derrors "github.com/matzehuels/depresolve/pkg/errors"
)

// closestCommand creates the closest command, which attributes a file to
// the nearest resolved subproject of an ecosystem.
func (c *CLI) closestCommand() *cobra.Command {
	var (
		opts      scanOpts
		root      string
		ecosystem string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "closest <path>",
		Short: "Find the subproject a file belongs to",
		Long: `Find the subproject a file belongs to.

The tree under --dir is resolved, then the subproject of the given ecosystem
whose root is the deepest ancestor of <path> is printed.

Examples:
  depresolve closest services/api/app/main.py --ecosystem pypi
  depresolve closest src/index.ts --ecosystem npm --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eco, err := derrors.ValidateEcosystem(ecosystem)
			if err != nil {
				return err
			}
			target, err := relativeTo(root, args[0])
			if err != nil {
				return err
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
			sp := deps.FindClosestSubproject(target, eco, res.Resolved[eco])
			if sp == nil {
				return derrors.New(derrors.ErrCodeSubprojectNotFound, "no %s subproject contains %s", eco, target)
			}
			if asJSON {
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				return enc.Encode(sp.Stats())
			}
			fmt.Fprintf(c.out, "%s\t%s\t%s\n", displayRoot(sp.RootDir), sp.Ecosystem, sp.ID())
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&root, "dir", "C", ".", "repository root")
	cmd.Flags().StringVarP(&ecosystem, "ecosystem", "e", "", "ecosystem of the subproject (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print subproject stats as JSON")
	_ = cmd.MarkFlagRequired("ecosystem")
	_ = cmd.RegisterFlagCompletionFunc("ecosystem", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		var names []string
		for _, e := range deps.Ecosystems() {
			names = append(names, string(e))
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// relativeTo expresses p as a slash path inside root. Relative paths are
// taken as already relative to root.
func relativeTo(root, p string) (string, error) {
	if filepath.IsAbs(p) {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return "", derrors.Wrap(derrors.ErrCodeInvalidPath, err, "resolve %s", root)
		}
		rel, err := filepath.Rel(absRoot, p)
		if err != nil {
			return "", derrors.Wrap(derrors.ErrCodeInvalidPath, err, "%s is not under %s", p, root)
		}
		p = rel
	}
	p = filepath.ToSlash(filepath.Clean(p))
	if err := derrors.ValidatePath(p); err != nil {
		return "", err
	}
	return p, nil
}
