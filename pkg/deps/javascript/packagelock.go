package javascript

import (
	"encoding/json"
	"io/fs"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/depresolve/pkg/deps"
)

const nodeModules = "node_modules/"

// packageLock covers lockfileVersion 1 (dependencies tree) and 2/3
// (flat packages map keyed by install path).
type packageLock struct {
	LockfileVersion int                     `json:"lockfileVersion"`
	Packages        map[string]lockPackage  `json:"packages"`
	Dependencies    map[string]lockDepEntry `json:"dependencies"`
}

type lockPackage struct {
	Version              string            `json:"version"`
	Resolved             string            `json:"resolved"`
	Integrity            string            `json:"integrity"`
	Link                 bool              `json:"link"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
}

type lockDepEntry struct {
	Version      string                  `json:"version"`
	Resolved     string                  `json:"resolved"`
	Integrity    string                  `json:"integrity"`
	Requires     map[string]string       `json:"requires"`
	Dependencies map[string]lockDepEntry `json:"dependencies"`
}

// ParsePackageLock parses package-lock.json. For v2/v3 lockfiles the root
// package entry decides which top-level packages are direct; v1 lockfiles
// need package.json for that.
func ParsePackageLock(fsys fs.FS, lockfilePath, manifestPath string) ([]deps.FoundDependency, []deps.ParserError) {
	data, perr := deps.ReadFile(fsys, lockfilePath)
	if perr != nil {
		return nil, []deps.ParserError{*perr}
	}
	var lock packageLock
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, []deps.ParserError{{Path: lockfilePath, Reason: "invalid JSON: " + err.Error()}}
	}

	var errs []deps.ParserError
	direct, known, merr := directNames(fsys, manifestPath)
	if merr != nil {
		errs = append(errs, *merr)
	}

	if len(lock.Packages) > 0 {
		if root, ok := lock.Packages[""]; ok {
			direct = packageFile{
				Dependencies:         root.Dependencies,
				DevDependencies:      root.DevDependencies,
				OptionalDependencies: root.OptionalDependencies,
				PeerDependencies:     root.PeerDependencies,
			}.names()
			known = true
		}
		found, perrs := parsePackagesMap(lock.Packages, lockfilePath, direct, known)
		return found, append(errs, perrs...)
	}

	var found []deps.FoundDependency
	walkV1(lock.Dependencies, true, func(name string, e lockDepEntry, topLevel bool) {
		if e.Version == "" {
			errs = append(errs, deps.ParserError{Path: lockfilePath, Text: name, Reason: "dependency has no version"})
			return
		}
		t := deps.Transitive
		if topLevel {
			t = transitivity(direct, known, name)
		}
		dep := deps.FoundDependency{
			Package:       name,
			Version:       e.Version,
			Ecosystem:     deps.EcosystemNPM,
			Transitivity:  t,
			ResolvedURL:   e.Resolved,
			AllowedHashes: integrityHashes(e.Integrity),
			LockfilePath:  lockfilePath,
		}
		for _, child := range slices.Sorted(maps.Keys(e.Requires)) {
			dep.Children = append(dep.Children, deps.DependencyChild{Package: child})
		}
		found = append(found, dep)
	})
	return found, errs
}

func walkV1(entries map[string]lockDepEntry, topLevel bool, fn func(string, lockDepEntry, bool)) {
	for _, name := range slices.Sorted(maps.Keys(entries)) {
		e := entries[name]
		fn(name, e, topLevel)
		walkV1(e.Dependencies, false, fn)
	}
}

func parsePackagesMap(packages map[string]lockPackage, lockfilePath string, direct map[string]bool, known bool) ([]deps.FoundDependency, []deps.ParserError) {
	var (
		found []deps.FoundDependency
		errs  []deps.ParserError
	)
	for _, key := range slices.Sorted(maps.Keys(packages)) {
		pkg := packages[key]
		idx := strings.LastIndex(key, nodeModules)
		if key == "" || idx < 0 || pkg.Link {
			continue
		}
		name := key[idx+len(nodeModules):]
		if pkg.Version == "" {
			errs = append(errs, deps.ParserError{Path: lockfilePath, Text: key, Reason: "package has no version"})
			continue
		}

		t := deps.Transitive
		if idx == 0 {
			t = transitivity(direct, known, name)
		}
		dep := deps.FoundDependency{
			Package:       name,
			Version:       pkg.Version,
			Ecosystem:     deps.EcosystemNPM,
			Transitivity:  t,
			ResolvedURL:   pkg.Resolved,
			AllowedHashes: integrityHashes(pkg.Integrity),
			LockfilePath:  lockfilePath,
		}
		for _, child := range slices.Sorted(maps.Keys(pkg.Dependencies)) {
			dep.Children = append(dep.Children, deps.DependencyChild{
				Package: child,
				Version: resolveInstalled(packages, key, child),
			})
		}
		found = append(found, dep)
	}
	return found, errs
}

// resolveInstalled finds the version of child as Node would from the install
// path key: the nearest node_modules directory walking up wins.
func resolveInstalled(packages map[string]lockPackage, key, child string) string {
	for dir := key; ; {
		if p, ok := packages[dir+"/"+nodeModules+child]; ok {
			return p.Version
		}
		i := strings.LastIndex(dir, "/"+nodeModules)
		if i < 0 {
			break
		}
		dir = dir[:i]
	}
	if p, ok := packages[nodeModules+child]; ok {
		return p.Version
	}
	return ""
}
