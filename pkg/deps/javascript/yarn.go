package javascript

import (
	"bytes"
	"io/fs"
	"maps"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/depresolve/pkg/deps"
)

type yarnEntry struct {
	specs        []string
	version      string
	resolved     string
	integrity    string
	dependencies map[string]string
	line         int
}

type berryEntry struct {
	Version      string            `yaml:"version"`
	Resolution   string            `yaml:"resolution"`
	Checksum     string            `yaml:"checksum"`
	LinkType     string            `yaml:"linkType"`
	Dependencies map[string]string `yaml:"dependencies"`
}

// ParseYarnLock parses yarn.lock in either the classic v1 format or the
// YAML format written by Yarn 2 and later. Without package.json every
// package has unknown transitivity.
func ParseYarnLock(fsys fs.FS, lockfilePath, manifestPath string) ([]deps.FoundDependency, []deps.ParserError) {
	data, perr := deps.ReadFile(fsys, lockfilePath)
	if perr != nil {
		return nil, []deps.ParserError{*perr}
	}

	var entries []yarnEntry
	var errs []deps.ParserError
	if bytes.Contains(data, []byte("__metadata:")) {
		entries, errs = parseBerry(data, lockfilePath)
	} else {
		entries, errs = parseClassic(data, lockfilePath)
	}

	direct, known, merr := directNames(fsys, manifestPath)
	if merr != nil {
		errs = append(errs, *merr)
	}

	bySpec := make(map[string]string)
	for _, e := range entries {
		for _, s := range e.specs {
			bySpec[s] = e.version
		}
	}

	seen := make(map[string]bool)
	var found []deps.FoundDependency
	for _, e := range entries {
		name, _ := splitSpec(e.specs[0])
		key := name + "@" + e.version
		if seen[key] {
			continue
		}
		seen[key] = true

		dep := deps.FoundDependency{
			Package:       name,
			Version:       e.version,
			Ecosystem:     deps.EcosystemNPM,
			Transitivity:  transitivity(direct, known, name),
			ResolvedURL:   e.resolved,
			AllowedHashes: integrityHashes(e.integrity),
			LockfilePath:  lockfilePath,
			Line:          e.line,
		}
		for _, child := range slices.Sorted(maps.Keys(e.dependencies)) {
			dep.Children = append(dep.Children, deps.DependencyChild{
				Package: child,
				Version: bySpec[child+"@"+e.dependencies[child]],
			})
		}
		found = append(found, dep)
	}
	return found, errs
}

func parseClassic(data []byte, lockfilePath string) ([]yarnEntry, []deps.ParserError) {
	var (
		entries []yarnEntry
		errs    []deps.ParserError
		cur     *yarnEntry
		inDeps  bool
	)
	flush := func() {
		if cur == nil {
			return
		}
		if cur.version == "" {
			errs = append(errs, deps.ParserError{Path: lockfilePath, Line: cur.line, Text: strings.Join(cur.specs, ", "), Reason: "entry has no version"})
		} else {
			entries = append(entries, *cur)
		}
		cur = nil
	}

	for lineNo, raw := range deps.Lines(data) {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		indent := len(raw) - len(strings.TrimLeft(raw, " "))

		switch {
		case indent == 0:
			flush()
			if !strings.HasSuffix(trimmed, ":") {
				errs = append(errs, deps.ParserError{Path: lockfilePath, Line: lineNo, Text: trimmed, Reason: "expected an entry header"})
				continue
			}
			cur = &yarnEntry{line: lineNo, dependencies: map[string]string{}}
			for _, s := range strings.Split(strings.TrimSuffix(trimmed, ":"), ",") {
				cur.specs = append(cur.specs, unquote(strings.TrimSpace(s)))
			}
			inDeps = false
		case cur == nil:
			continue
		case indent == 2:
			key, value, _ := strings.Cut(trimmed, " ")
			value = unquote(strings.TrimSpace(value))
			inDeps = key == "dependencies:" || key == "optionalDependencies:"
			switch key {
			case "version":
				cur.version = value
			case "resolved":
				cur.resolved = value
			case "integrity":
				cur.integrity = value
			}
		case indent >= 4 && inDeps:
			name, rng, _ := strings.Cut(trimmed, " ")
			cur.dependencies[unquote(name)] = unquote(strings.TrimSpace(rng))
		}
	}
	flush()
	return entries, errs
}

func parseBerry(data []byte, lockfilePath string) ([]yarnEntry, []deps.ParserError) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, []deps.ParserError{yamlError(lockfilePath, err)}
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, []deps.ParserError{{Path: lockfilePath, Reason: "lockfile is not a mapping"}}
	}

	var (
		entries []yarnEntry
		errs    []deps.ParserError
	)
	root := doc.Content[0]
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]
		if keyNode.Value == "__metadata" {
			continue
		}
		var be berryEntry
		if err := valNode.Decode(&be); err != nil {
			errs = append(errs, deps.ParserError{Path: lockfilePath, Line: keyNode.Line, Text: keyNode.Value, Reason: err.Error()})
			continue
		}
		if be.LinkType == "soft" || strings.Contains(be.Resolution, "@workspace:") {
			continue
		}
		e := yarnEntry{
			version:      be.Version,
			resolved:     be.Resolution,
			dependencies: be.Dependencies,
			line:         keyNode.Line,
		}
		for _, s := range strings.Split(keyNode.Value, ",") {
			e.specs = append(e.specs, strings.TrimSpace(s))
		}
		if e.version == "" {
			errs = append(errs, deps.ParserError{Path: lockfilePath, Line: e.line, Text: keyNode.Value, Reason: "entry has no version"})
			continue
		}
		entries = append(entries, e)
	}
	// Berry keys spell ranges with a protocol ("lodash@npm:^4.17.21") while
	// dependency maps omit the default npm protocol.
	for _, e := range entries {
		for child, rng := range e.dependencies {
			if !strings.Contains(rng, ":") {
				e.dependencies[child] = "npm:" + rng
			}
		}
	}
	return entries, errs
}

func unquote(s string) string {
	return strings.Trim(s, `"`)
}

func yamlError(path string, err error) deps.ParserError {
	return deps.ParserError{Path: path, Reason: "invalid YAML: " + err.Error()}
}
