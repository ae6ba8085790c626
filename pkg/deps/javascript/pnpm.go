package javascript

import (
	"fmt"
	"io/fs"
	"maps"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/depresolve/pkg/deps"
)

type pnpmLock struct {
	LockfileVersion any                     `yaml:"lockfileVersion"`
	Importers       map[string]pnpmImporter `yaml:"importers"`
	Packages        map[string]pnpmPackage  `yaml:"packages"`
	Snapshots       map[string]pnpmPackage  `yaml:"snapshots"`

	// Lockfiles without importers list the root project's deps at top level.
	Root pnpmImporter `yaml:",inline"`
}

type pnpmImporter struct {
	Dependencies         map[string]any `yaml:"dependencies"`
	DevDependencies      map[string]any `yaml:"devDependencies"`
	OptionalDependencies map[string]any `yaml:"optionalDependencies"`
}

type pnpmPackage struct {
	Resolution struct {
		Integrity string `yaml:"integrity"`
		Tarball   string `yaml:"tarball"`
	} `yaml:"resolution"`
	Name                 string            `yaml:"name"`
	Version              string            `yaml:"version"`
	Dependencies         map[string]string `yaml:"dependencies"`
	OptionalDependencies map[string]string `yaml:"optionalDependencies"`
}

func (imp pnpmImporter) names() map[string]bool {
	names := make(map[string]bool)
	for _, m := range []map[string]any{imp.Dependencies, imp.DevDependencies, imp.OptionalDependencies} {
		for name := range m {
			names[name] = true
		}
	}
	return names
}

// ParsePnpmLock parses pnpm-lock.yaml (lockfile versions 5 through 9). The
// root importer identifies direct dependencies, so package.json is not read.
func ParsePnpmLock(fsys fs.FS, lockfilePath, _ string) ([]deps.FoundDependency, []deps.ParserError) {
	data, perr := deps.ReadFile(fsys, lockfilePath)
	if perr != nil {
		return nil, []deps.ParserError{*perr}
	}
	var lock pnpmLock
	if err := yaml.Unmarshal(data, &lock); err != nil {
		return nil, []deps.ParserError{yamlError(lockfilePath, err)}
	}

	root := lock.Root
	if imp, ok := lock.Importers["."]; ok {
		root = imp
	}
	direct := root.names()

	var (
		found []deps.FoundDependency
		errs  []deps.ParserError
		seen  = make(map[string]bool)
	)
	for _, key := range slices.Sorted(maps.Keys(lock.Packages)) {
		pkg := lock.Packages[key]
		name, version, ok := splitPnpmKey(key, lock.slashKeys())
		if pkg.Name != "" {
			name, version, ok = pkg.Name, pkg.Version, pkg.Version != ""
		}
		if !ok {
			errs = append(errs, deps.ParserError{Path: lockfilePath, Text: key, Reason: "cannot read package name and version"})
			continue
		}
		if seen[name+"@"+version] {
			continue
		}
		seen[name+"@"+version] = true

		dep := deps.FoundDependency{
			Package:       name,
			Version:       version,
			Ecosystem:     deps.EcosystemNPM,
			Transitivity:  deps.Transitive,
			ResolvedURL:   pkg.Resolution.Tarball,
			AllowedHashes: integrityHashes(pkg.Resolution.Integrity),
			LockfilePath:  lockfilePath,
		}
		if direct[name] {
			dep.Transitivity = deps.Direct
		}

		children := pkg.Dependencies
		if snap, ok := lock.Snapshots[key]; ok {
			children = snap.Dependencies
		}
		for _, child := range slices.Sorted(maps.Keys(children)) {
			dep.Children = append(dep.Children, deps.DependencyChild{
				Package: child,
				Version: stripPeerSuffix(children[child]),
			})
		}
		found = append(found, dep)
	}
	return found, errs
}

// slashKeys reports whether package keys use the pre-v6 "/name/version"
// spelling.
func (l pnpmLock) slashKeys() bool {
	major, _, _ := strings.Cut(fmt.Sprint(l.LockfileVersion), ".")
	n, err := strconv.Atoi(major)
	return err == nil && n < 6
}

// splitPnpmKey reads a package key in any of the known spellings:
// "/name/1.0.0_peer@2.0.0" (v5), "/name@1.0.0" (v6) and
// "name@1.0.0(peer@2.0.0)" (v9).
func splitPnpmKey(key string, slashKeys bool) (name, version string, ok bool) {
	key = stripPeerSuffix(strings.TrimPrefix(key, "/"))
	if !slashKeys {
		name, version = splitSpec(key)
		return name, version, name != "" && version != ""
	}
	i := strings.LastIndex(key, "/")
	if i <= 0 {
		return "", "", false
	}
	name, version = key[:i], key[i+1:]
	if j := strings.Index(version, "_"); j > 0 {
		version = version[:j]
	}
	return name, version, true
}

func stripPeerSuffix(v string) string {
	if i := strings.Index(v, "("); i > 0 {
		return v[:i]
	}
	return v
}
