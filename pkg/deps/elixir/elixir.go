// Package elixir parses Mix's mix.lock.
package elixir

import (
	"io/fs"
	"regexp"

	"github.com/matzehuels/depresolve/pkg/deps"
)

var (
	hexEntry = regexp.MustCompile(`^\s*"([^"]+)":\s*\{:hex,\s*:([\w]+),\s*"([^"]+)",\s*"([0-9a-f]*)",\s*\[[^\]]*\],\s*\[(.*)\],\s*"([^"]+)"(?:,\s*"([0-9a-f]+)")?\s*\},?\s*$`)
	gitEntry = regexp.MustCompile(`^\s*"([^"]+)":\s*\{:git,\s*"([^"]+)",\s*"([0-9a-f]+)"`)
	entryKey = regexp.MustCompile(`^\s*"([^"]+)":`)
	depAtom  = regexp.MustCompile(`\{:(\w+),`)
)

// ParseMixLock parses mix.lock line by line; Mix writes one entry per line.
// mix.exs, when given, marks every {:name, ...} tuple it declares as direct.
func ParseMixLock(fsys fs.FS, lockfilePath, manifestPath string) ([]deps.FoundDependency, []deps.ParserError) {
	data, perr := deps.ReadFile(fsys, lockfilePath)
	if perr != nil {
		return nil, []deps.ParserError{*perr}
	}

	var errs []deps.ParserError
	var declared map[string]bool
	if manifestPath != "" {
		if mdata, merr := deps.ReadFile(fsys, manifestPath); merr != nil {
			errs = append(errs, *merr)
		} else {
			declared = make(map[string]bool)
			for _, m := range depAtom.FindAllSubmatch(mdata, -1) {
				declared[string(m[1])] = true
			}
		}
	}

	type entry struct {
		dep      deps.FoundDependency
		children []string
	}
	var entries []entry
	versions := make(map[string]string)

	for lineNo, line := range deps.Lines(data) {
		if !entryKey.MatchString(line) {
			continue
		}
		dep := deps.FoundDependency{
			Ecosystem:    deps.EcosystemMix,
			Transitivity: deps.Unknown,
			LockfilePath: lockfilePath,
			Line:         lineNo,
		}
		var children []string
		if m := hexEntry.FindStringSubmatch(line); m != nil {
			dep.Package, dep.Version = m[2], m[3]
			if m[7] != "" {
				dep.AllowedHashes = map[string][]string{"sha256": {m[7]}}
			}
			for _, c := range depAtom.FindAllStringSubmatch(m[5], -1) {
				children = append(children, c[1])
			}
		} else if m := gitEntry.FindStringSubmatch(line); m != nil {
			dep.Package, dep.ResolvedURL, dep.Version = m[1], m[2], m[3]
		} else {
			errs = append(errs, deps.ParserError{Path: lockfilePath, Line: lineNo, Text: line, Reason: "unsupported mix.lock entry"})
			continue
		}
		if declared != nil {
			dep.Transitivity = deps.Transitive
			if declared[dep.Package] {
				dep.Transitivity = deps.Direct
			}
		}
		versions[dep.Package] = dep.Version
		entries = append(entries, entry{dep: dep, children: children})
	}

	found := make([]deps.FoundDependency, 0, len(entries))
	for _, e := range entries {
		for _, c := range e.children {
			e.dep.Children = append(e.dep.Children, deps.DependencyChild{Package: c, Version: versions[c]})
		}
		found = append(found, e.dep)
	}
	return found, errs
}
