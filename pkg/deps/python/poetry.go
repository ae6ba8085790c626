package python

import (
	"errors"
	"io/fs"
	"maps"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/depresolve/pkg/deps"
)

type lockFile struct {
	Packages []lockPackage `toml:"package"`
}

type lockPackage struct {
	Name         string         `toml:"name"`
	Version      string         `toml:"version"`
	Category     string         `toml:"category"`
	Dependencies map[string]any `toml:"dependencies"`
	Source       struct {
		Type string `toml:"type"`
		URL  string `toml:"url"`
	} `toml:"source"`
}

type pyproject struct {
	Project struct {
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Dependencies    map[string]any `toml:"dependencies"`
			DevDependencies map[string]any `toml:"dev-dependencies"`
			Group           map[string]struct {
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"group"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// ParsePoetryLock parses a poetry.lock. The lockfile carries the full
// transitive closure, so each package's children are resolved against the
// other locked packages. With a pyproject.toml, declared packages are direct.
func ParsePoetryLock(fsys fs.FS, lockfilePath, manifestPath string) ([]deps.FoundDependency, []deps.ParserError) {
	data, perr := deps.ReadFile(fsys, lockfilePath)
	if perr != nil {
		return nil, []deps.ParserError{*perr}
	}
	var lock lockFile
	if _, err := toml.Decode(string(data), &lock); err != nil {
		return nil, []deps.ParserError{tomlError(lockfilePath, err)}
	}

	var errs []deps.ParserError
	direct, known := map[string]bool(nil), false
	if manifestPath != "" {
		names, perr := pyprojectNames(fsys, manifestPath)
		if perr != nil {
			errs = append(errs, *perr)
		} else {
			direct, known = names, true
		}
	}

	versions := make(map[string]string, len(lock.Packages))
	for _, p := range lock.Packages {
		versions[normalize(p.Name)] = p.Version
	}

	var found []deps.FoundDependency
	for _, p := range lock.Packages {
		name := normalize(p.Name)
		if name == "" || p.Version == "" {
			errs = append(errs, deps.ParserError{Path: lockfilePath, Text: p.Name, Reason: "package entry is missing name or version"})
			continue
		}
		dep := deps.FoundDependency{
			Package:      name,
			Version:      p.Version,
			Ecosystem:    deps.EcosystemPyPI,
			Transitivity: transitivity(direct, known, name),
			LockfilePath: lockfilePath,
		}
		if p.Source.Type == "legacy" || p.Source.Type == "url" {
			dep.ResolvedURL = p.Source.URL
		}
		for _, child := range slices.Sorted(maps.Keys(p.Dependencies)) {
			c := normalize(child)
			dep.Children = append(dep.Children, deps.DependencyChild{Package: c, Version: versions[c]})
		}
		found = append(found, dep)
	}
	return found, errs
}

// pyprojectNames collects the packages a pyproject.toml declares, from both
// PEP 621 and Poetry tables.
func pyprojectNames(fsys fs.FS, manifestPath string) (map[string]bool, *deps.ParserError) {
	data, perr := deps.ReadFile(fsys, manifestPath)
	if perr != nil {
		return nil, perr
	}
	var proj pyproject
	if _, err := toml.Decode(string(data), &proj); err != nil {
		e := tomlError(manifestPath, err)
		return nil, &e
	}

	names := make(map[string]bool)
	addSpecs := func(specs []string) {
		for _, s := range specs {
			if name, _, ok := splitRequirement(s); ok {
				names[name] = true
			}
		}
	}
	addSpecs(proj.Project.Dependencies)
	for _, group := range proj.Project.OptionalDependencies {
		addSpecs(group)
	}

	poetry := proj.Tool.Poetry
	tables := []map[string]any{poetry.Dependencies, poetry.DevDependencies}
	for _, g := range poetry.Group {
		tables = append(tables, g.Dependencies)
	}
	for _, table := range tables {
		for name := range table {
			if name != "python" {
				names[normalize(name)] = true
			}
		}
	}
	return names, nil
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
