// Package rust parses Cargo.lock.
package rust

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/depresolve/pkg/deps"
)

type cargoLock struct {
	Version  int            `toml:"version"`
	Packages []cargoPackage `toml:"package"`
}

type cargoPackage struct {
	Name         string   `toml:"name"`
	Version      string   `toml:"version"`
	Source       string   `toml:"source"`
	Checksum     string   `toml:"checksum"`
	Dependencies []string `toml:"dependencies"`
}

// local reports workspace members, which Cargo.lock records without a source.
func (p cargoPackage) local() bool { return p.Source == "" }

// ParseCargoLock parses Cargo.lock. Workspace members are not reported;
// the crates they depend on are direct and everything else is transitive.
func ParseCargoLock(fsys fs.FS, lockfilePath, _ string) ([]deps.FoundDependency, []deps.ParserError) {
	data, perr := deps.ReadFile(fsys, lockfilePath)
	if perr != nil {
		return nil, []deps.ParserError{*perr}
	}
	var lock cargoLock
	if _, err := toml.Decode(string(data), &lock); err != nil {
		return nil, []deps.ParserError{tomlError(lockfilePath, err)}
	}

	// A dependency names a crate alone when only one version is locked.
	byName := make(map[string][]string)
	for _, p := range lock.Packages {
		byName[p.Name] = append(byName[p.Name], p.Version)
	}
	resolve := func(ref string) (string, string) {
		fields := strings.Fields(ref)
		if len(fields) == 0 {
			return "", ""
		}
		name := fields[0]
		if len(fields) > 1 {
			return name, fields[1]
		}
		if vs := byName[name]; len(vs) == 1 {
			return name, vs[0]
		}
		return name, ""
	}

	direct := make(map[string]bool)
	for _, p := range lock.Packages {
		if !p.local() {
			continue
		}
		for _, ref := range p.Dependencies {
			name, version := resolve(ref)
			direct[name+"@"+version] = true
		}
	}

	var (
		found []deps.FoundDependency
		errs  []deps.ParserError
	)
	for _, p := range lock.Packages {
		if p.local() {
			continue
		}
		if p.Name == "" || p.Version == "" {
			errs = append(errs, deps.ParserError{Path: lockfilePath, Text: p.Name, Reason: "package entry is missing name or version"})
			continue
		}
		dep := deps.FoundDependency{
			Package:      p.Name,
			Version:      p.Version,
			Ecosystem:    deps.EcosystemCargo,
			Transitivity: deps.Transitive,
			ResolvedURL:  strings.TrimPrefix(p.Source, "registry+"),
			LockfilePath: lockfilePath,
		}
		if direct[p.Name+"@"+p.Version] {
			dep.Transitivity = deps.Direct
		}
		if p.Checksum != "" {
			dep.AllowedHashes = map[string][]string{"sha256": {p.Checksum}}
		}
		for _, ref := range p.Dependencies {
			name, version := resolve(ref)
			dep.Children = append(dep.Children, deps.DependencyChild{Package: name, Version: version})
		}
		found = append(found, dep)
	}
	return found, errs
}

func tomlError(path string, err error) deps.ParserError {
	pe := deps.ParserError{Path: path, Reason: "invalid TOML: " + err.Error()}
	var perr toml.ParseError
	if errors.As(err, &perr) {
		pe.Line = perr.Position.Line
		pe.Reason = "invalid TOML: " + perr.Message
	}
	return pe
}
