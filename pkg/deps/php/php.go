// Package php parses Composer's composer.lock.
package php

import (
	"encoding/json"
	"io/fs"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/depresolve/pkg/deps"
)

type composerLock struct {
	Packages    []composerPackage `json:"packages"`
	PackagesDev []composerPackage `json:"packages-dev"`
}

type composerPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Dist    struct {
		URL    string `json:"url"`
		Shasum string `json:"shasum"`
	} `json:"dist"`
	Require map[string]string `json:"require"`
}

type composerJSON struct {
	Require    map[string]string `json:"require"`
	RequireDev map[string]string `json:"require-dev"`
}

// ParseComposerLock parses composer.lock, including packages-dev. Packages
// required by composer.json are direct.
func ParseComposerLock(fsys fs.FS, lockfilePath, manifestPath string) ([]deps.FoundDependency, []deps.ParserError) {
	data, perr := deps.ReadFile(fsys, lockfilePath)
	if perr != nil {
		return nil, []deps.ParserError{*perr}
	}
	var lock composerLock
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, []deps.ParserError{{Path: lockfilePath, Reason: "invalid JSON: " + err.Error()}}
	}

	var errs []deps.ParserError
	direct, known := map[string]bool(nil), false
	if manifestPath != "" {
		if mdata, merr := deps.ReadFile(fsys, manifestPath); merr != nil {
			errs = append(errs, *merr)
		} else {
			var cj composerJSON
			if err := json.Unmarshal(mdata, &cj); err != nil {
				errs = append(errs, deps.ParserError{Path: manifestPath, Reason: "invalid JSON: " + err.Error()})
			} else {
				direct, known = make(map[string]bool), true
				for name := range cj.Require {
					direct[strings.ToLower(name)] = true
				}
				for name := range cj.RequireDev {
					direct[strings.ToLower(name)] = true
				}
			}
		}
	}

	all := append(slices.Clone(lock.Packages), lock.PackagesDev...)
	versions := make(map[string]string, len(all))
	for _, p := range all {
		versions[strings.ToLower(p.Name)] = normalizeVersion(p.Version)
	}

	var found []deps.FoundDependency
	for _, p := range all {
		name := strings.ToLower(p.Name)
		if name == "" || p.Version == "" {
			errs = append(errs, deps.ParserError{Path: lockfilePath, Text: p.Name, Reason: "package entry is missing name or version"})
			continue
		}
		dep := deps.FoundDependency{
			Package:      name,
			Version:      normalizeVersion(p.Version),
			Ecosystem:    deps.EcosystemComposer,
			Transitivity: deps.Unknown,
			ResolvedURL:  p.Dist.URL,
			LockfilePath: lockfilePath,
		}
		if known {
			dep.Transitivity = deps.Transitive
			if direct[name] {
				dep.Transitivity = deps.Direct
			}
		}
		if p.Dist.Shasum != "" {
			dep.AllowedHashes = map[string][]string{"sha1": {p.Dist.Shasum}}
		}
		for _, child := range slices.Sorted(maps.Keys(p.Require)) {
			if isPlatform(child) {
				continue
			}
			c := strings.ToLower(child)
			dep.Children = append(dep.Children, deps.DependencyChild{Package: c, Version: versions[c]})
		}
		found = append(found, dep)
	}
	return found, errs
}

// isPlatform reports platform requirements (php, ext-*, lib-*,
// composer-plugin-api). Installable packages are always vendor/name.
func isPlatform(name string) bool {
	return !strings.Contains(name, "/")
}

func normalizeVersion(v string) string {
	if len(v) > 1 && v[0] == 'v' && v[1] >= '0' && v[1] <= '9' {
		return v[1:]
	}
	return v
}
