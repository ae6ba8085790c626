// Package dart parses pubspec.lock files written by dart pub and flutter.
package dart

import (
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/depresolve/pkg/deps"
)

type pubspecLock struct {
	Packages yaml.Node `yaml:"packages"`
}

type lockedPackage struct {
	Dependency  string `yaml:"dependency"`
	Source      string `yaml:"source"`
	Version     string `yaml:"version"`
	Description any    `yaml:"description"`
}

// ParsePubspecLock parses pubspec.lock. SDK and path packages are skipped.
// The dependency field ("direct main", "direct dev", "transitive") decides
// transitivity.
func ParsePubspecLock(fsys fs.FS, lockfilePath, _ string) ([]deps.FoundDependency, []deps.ParserError) {
	data, perr := deps.ReadFile(fsys, lockfilePath)
	if perr != nil {
		return nil, []deps.ParserError{*perr}
	}
	var lock pubspecLock
	if err := yaml.Unmarshal(data, &lock); err != nil {
		return nil, []deps.ParserError{{Path: lockfilePath, Reason: "invalid YAML: " + err.Error()}}
	}
	if lock.Packages.Kind != yaml.MappingNode {
		return nil, nil
	}

	var (
		found []deps.FoundDependency
		errs  []deps.ParserError
	)
	nodes := lock.Packages.Content
	for i := 0; i+1 < len(nodes); i += 2 {
		name := nodes[i].Value
		var p lockedPackage
		if err := nodes[i+1].Decode(&p); err != nil {
			errs = append(errs, deps.ParserError{Path: lockfilePath, Line: nodes[i].Line, Text: name, Reason: err.Error()})
			continue
		}
		if p.Source == "sdk" || p.Source == "path" {
			continue
		}
		if p.Version == "" {
			errs = append(errs, deps.ParserError{Path: lockfilePath, Line: nodes[i].Line, Text: name, Reason: "package has no version"})
			continue
		}

		dep := deps.FoundDependency{
			Package:      name,
			Version:      p.Version,
			Ecosystem:    deps.EcosystemPub,
			Transitivity: deps.Unknown,
			LockfilePath: lockfilePath,
			Line:         nodes[i].Line,
		}
		switch {
		case strings.HasPrefix(p.Dependency, "direct"):
			dep.Transitivity = deps.Direct
		case p.Dependency == "transitive":
			dep.Transitivity = deps.Transitive
		}
		if desc, ok := p.Description.(map[string]any); ok {
			if url, ok := desc["url"].(string); ok {
				dep.ResolvedURL = url
			}
			if sum, ok := desc["sha256"].(string); ok && sum != "" {
				dep.AllowedHashes = map[string][]string{"sha256": {sum}}
			}
		}
		found = append(found, dep)
	}
	return found, errs
}
