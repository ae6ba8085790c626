// Package walk enumerates candidate dependency files under a repository.
package walk

import (
	"fmt"
	"io/fs"
	"path"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/matzehuels/depresolve/pkg/deps/matcher"
)

// DefaultSkipDirs are directory names never descended into: installed
// package trees, VCS metadata and virtualenvs.
var DefaultSkipDirs = []string{
	".git", ".hg", ".svn",
	"node_modules", "bower_components", "vendor",
	".venv", "venv", "__pycache__", ".tox",
	".gradle", ".m2", "target", "_build", "deps", ".dart_tool", ".build",
}

// Options controls Candidates.
type Options struct {
	// SkipDirs defaults to DefaultSkipDirs.
	SkipDirs []string
	// Exclude holds doublestar patterns matched against slash paths
	// relative to the root. A matching directory is pruned.
	Exclude  []string
	Matchers []matcher.Matcher
}

// Validate reports the first malformed exclude pattern.
func (o Options) Validate() error {
	for _, p := range o.Exclude {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return nil
}

// Files returns every regular file in fsys that survives the skip and
// exclude rules, as sorted slash paths.
func Files(fsys fs.FS, opts Options) ([]string, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	skip := opts.SkipDirs
	if skip == nil {
		skip = DefaultSkipDirs
	}

	var files []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == "." {
			return nil
		}
		if d.IsDir() {
			if slices.Contains(skip, d.Name()) || excluded(opts.Exclude, p) {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && !excluded(opts.Exclude, p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// Candidates returns the files that some matcher recognizes as a
// dependency source.
func Candidates(fsys fs.FS, opts Options) ([]string, error) {
	files, err := Files(fsys, opts)
	if err != nil {
		return nil, err
	}
	matchers := opts.Matchers
	if matchers == nil {
		matchers = matcher.Matchers
	}
	return matcher.FilterSourceFiles(files, matchers), nil
}

func excluded(patterns []string, p string) bool {
	for _, pat := range patterns {
		if ok, _ := doublestar.Match(pat, p); ok {
			return true
		}
		if ok, _ := doublestar.Match(pat, path.Base(p)); ok {
			return true
		}
	}
	return false
}
