// Package golang parses go.mod, which serves as both manifest and lockfile
// for Go modules since the module graph is pruned into it.
package golang

import (
	"errors"
	"io/fs"

	"golang.org/x/mod/modfile"

	"github.com/matzehuels/depresolve/pkg/deps"
)

// ParseGoMod parses go.mod requirements. Requirements marked
// "// indirect" are transitive. Module replacements with a version are
// applied; local directory replacements are skipped.
func ParseGoMod(fsys fs.FS, lockfilePath, _ string) ([]deps.FoundDependency, []deps.ParserError) {
	data, perr := deps.ReadFile(fsys, lockfilePath)
	if perr != nil {
		return nil, []deps.ParserError{*perr}
	}
	mod, err := modfile.Parse(lockfilePath, data, nil)
	if err != nil {
		return nil, modfileErrors(lockfilePath, err)
	}

	replaced := make(map[string]*modfile.Replace, len(mod.Replace))
	for _, r := range mod.Replace {
		replaced[r.Old.Path] = r
	}

	var found []deps.FoundDependency
	for _, req := range mod.Require {
		path, version := req.Mod.Path, req.Mod.Version
		if r, ok := replaced[path]; ok && (r.Old.Version == "" || r.Old.Version == version) {
			if r.New.Version == "" {
				continue
			}
			path, version = r.New.Path, r.New.Version
		}
		dep := deps.FoundDependency{
			Package:      path,
			Version:      version,
			Ecosystem:    deps.EcosystemGoMod,
			Transitivity: deps.Direct,
			LockfilePath: lockfilePath,
		}
		if req.Indirect {
			dep.Transitivity = deps.Transitive
		}
		if req.Syntax != nil {
			dep.Line = req.Syntax.Start.Line
		}
		found = append(found, dep)
	}
	return found, nil
}

func modfileErrors(path string, err error) []deps.ParserError {
	var list modfile.ErrorList
	if !errors.As(err, &list) {
		return []deps.ParserError{{Path: path, Reason: err.Error()}}
	}
	out := make([]deps.ParserError, 0, len(list))
	for _, e := range list {
		out = append(out, deps.ParserError{
			Path:   path,
			Line:   e.Pos.Line,
			Column: e.Pos.LineRune,
			Reason: e.Err.Error(),
		})
	}
	return out
}
