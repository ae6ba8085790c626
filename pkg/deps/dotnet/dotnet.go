// Package dotnet parses NuGet's packages.lock.json.
package dotnet

import (
	"encoding/json"
	"io/fs"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/depresolve/pkg/deps"
)

type packagesLock struct {
	Version      int                                 `json:"version"`
	Dependencies map[string]map[string]lockedPackage `json:"dependencies"`
}

type lockedPackage struct {
	Type         string            `json:"type"`
	Requested    string            `json:"requested"`
	Resolved     string            `json:"resolved"`
	ContentHash  string            `json:"contentHash"`
	Dependencies map[string]string `json:"dependencies"`
}

// ParsePackagesLock parses packages.lock.json. Packages appear once per
// target framework; each name and version is reported once. Project
// references are skipped.
func ParsePackagesLock(fsys fs.FS, lockfilePath, _ string) ([]deps.FoundDependency, []deps.ParserError) {
	data, perr := deps.ReadFile(fsys, lockfilePath)
	if perr != nil {
		return nil, []deps.ParserError{*perr}
	}
	var lock packagesLock
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, []deps.ParserError{{Path: lockfilePath, Reason: "invalid JSON: " + err.Error()}}
	}

	var (
		found []deps.FoundDependency
		errs  []deps.ParserError
		index = make(map[string]int)
	)
	for _, framework := range slices.Sorted(maps.Keys(lock.Dependencies)) {
		pkgs := lock.Dependencies[framework]
		for _, name := range slices.Sorted(maps.Keys(pkgs)) {
			p := pkgs[name]
			if strings.EqualFold(p.Type, "Project") {
				continue
			}
			if p.Resolved == "" {
				errs = append(errs, deps.ParserError{Path: lockfilePath, Text: framework + "/" + name, Reason: "package has no resolved version"})
				continue
			}
			key := strings.ToLower(name) + "@" + p.Resolved
			if i, ok := index[key]; ok {
				// Direct in any framework means direct.
				if strings.EqualFold(p.Type, "Direct") {
					found[i].Transitivity = deps.Direct
				}
				continue
			}
			dep := deps.FoundDependency{
				Package:      name,
				Version:      p.Resolved,
				Ecosystem:    deps.EcosystemNuGet,
				Transitivity: transitivity(p.Type),
				LockfilePath: lockfilePath,
			}
			if p.ContentHash != "" {
				dep.AllowedHashes = map[string][]string{"sha512": {p.ContentHash}}
			}
			for _, child := range slices.Sorted(maps.Keys(p.Dependencies)) {
				version := p.Dependencies[child]
				if locked, ok := pkgs[child]; ok {
					version = locked.Resolved
				}
				dep.Children = append(dep.Children, deps.DependencyChild{Package: child, Version: version})
			}
			index[key] = len(found)
			found = append(found, dep)
		}
	}
	return found, errs
}

func transitivity(kind string) deps.Transitivity {
	switch strings.ToLower(kind) {
	case "direct":
		return deps.Direct
	case "transitive", "centraltransitive":
		return deps.Transitive
	default:
		return deps.Unknown
	}
}
