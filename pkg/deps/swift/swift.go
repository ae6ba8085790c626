// Package swift parses SwiftPM's Package.resolved.
package swift

import (
	"encoding/json"
	"io/fs"
	"path"
	"regexp"
	"strings"

	"github.com/matzehuels/depresolve/pkg/deps"
)

type resolvedFile struct {
	Version int   `json:"version"`
	Pins    []pin `json:"pins"`
	Object  struct {
		Pins []pin `json:"pins"`
	} `json:"object"`
}

type pin struct {
	// Version 2 and later.
	Identity string `json:"identity"`
	Location string `json:"location"`
	// Version 1.
	Package       string `json:"package"`
	RepositoryURL string `json:"repositoryURL"`

	State struct {
		Branch   *string `json:"branch"`
		Revision string  `json:"revision"`
		Version  *string `json:"version"`
	} `json:"state"`
}

func (p pin) name() string {
	if p.Identity != "" {
		return p.Identity
	}
	return strings.ToLower(p.Package)
}

func (p pin) location() string {
	if p.Location != "" {
		return p.Location
	}
	return p.RepositoryURL
}

var packageURL = regexp.MustCompile(`\.package\s*\(\s*(?:name:\s*"[^"]*"\s*,\s*)?url:\s*"([^"]+)"`)

// ParsePackageResolved parses Package.resolved (format versions 1 to 3).
// Pins tracking a branch or revision report the revision as their version.
// Package.swift, when given, marks pins whose URL it declares as direct.
func ParsePackageResolved(fsys fs.FS, lockfilePath, manifestPath string) ([]deps.FoundDependency, []deps.ParserError) {
	data, perr := deps.ReadFile(fsys, lockfilePath)
	if perr != nil {
		return nil, []deps.ParserError{*perr}
	}
	var resolved resolvedFile
	if err := json.Unmarshal(data, &resolved); err != nil {
		return nil, []deps.ParserError{{Path: lockfilePath, Reason: "invalid JSON: " + err.Error()}}
	}
	pins := resolved.Pins
	if resolved.Version == 1 {
		pins = resolved.Object.Pins
	}

	var errs []deps.ParserError
	var declared map[string]bool
	if manifestPath != "" {
		if mdata, merr := deps.ReadFile(fsys, manifestPath); merr != nil {
			errs = append(errs, *merr)
		} else {
			declared = make(map[string]bool)
			for _, m := range packageURL.FindAllStringSubmatch(string(mdata), -1) {
				declared[repoKey(m[1])] = true
			}
		}
	}

	var found []deps.FoundDependency
	for _, p := range pins {
		version := p.State.Revision
		if p.State.Version != nil && *p.State.Version != "" {
			version = *p.State.Version
		}
		if p.name() == "" || version == "" {
			errs = append(errs, deps.ParserError{Path: lockfilePath, Text: p.location(), Reason: "pin has no identity or version"})
			continue
		}
		dep := deps.FoundDependency{
			Package:      p.name(),
			Version:      version,
			Ecosystem:    deps.EcosystemSwiftPM,
			Transitivity: deps.Unknown,
			ResolvedURL:  p.location(),
			LockfilePath: lockfilePath,
		}
		if declared != nil {
			dep.Transitivity = deps.Transitive
			if declared[repoKey(p.location())] {
				dep.Transitivity = deps.Direct
			}
		}
		found = append(found, dep)
	}
	return found, errs
}

// repoKey normalizes a repository URL for comparison: scheme, case and a
// trailing ".git" are ignored.
func repoKey(url string) string {
	url = strings.ToLower(strings.TrimSuffix(strings.TrimSuffix(url, "/"), ".git"))
	if _, rest, ok := strings.Cut(url, "://"); ok {
		url = rest
	}
	return path.Clean(url)
}
