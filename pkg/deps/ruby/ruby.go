// Package ruby parses Bundler's Gemfile.lock.
package ruby

import (
	"io/fs"
	"strings"

	"github.com/matzehuels/depresolve/pkg/deps"
)

type gemSpec struct {
	dep      deps.FoundDependency
	children []string
}

// ParseGemfileLock parses a Gemfile.lock. Gems listed under DEPENDENCIES are
// direct; every other gem in the GEM and GIT sections is transitive. Gems
// from PATH sections are local and skipped.
func ParseGemfileLock(fsys fs.FS, lockfilePath, _ string) ([]deps.FoundDependency, []deps.ParserError) {
	data, perr := deps.ReadFile(fsys, lockfilePath)
	if perr != nil {
		return nil, []deps.ParserError{*perr}
	}

	var (
		specs   []*gemSpec
		errs    []deps.ParserError
		direct  = make(map[string]bool)
		section string
		remote  string
		cur     *gemSpec
	)
	for lineNo, raw := range deps.Lines(data) {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		indent := len(raw) - len(strings.TrimLeft(raw, " "))
		line := strings.TrimSpace(raw)

		if indent == 0 {
			section, remote, cur = line, "", nil
			continue
		}

		switch section {
		case "GEM", "GIT":
			switch {
			case indent == 2 && strings.HasPrefix(line, "remote:"):
				remote = strings.TrimSpace(strings.TrimPrefix(line, "remote:"))
			case indent == 4:
				name, version, ok := splitGem(line)
				if !ok {
					errs = append(errs, deps.ParserError{Path: lockfilePath, Line: lineNo, Text: line, Reason: "expected name (version)"})
					cur = nil
					continue
				}
				cur = &gemSpec{dep: deps.FoundDependency{
					Package:      name,
					Version:      version,
					Ecosystem:    deps.EcosystemGem,
					Transitivity: deps.Transitive,
					LockfilePath: lockfilePath,
					Line:         lineNo,
				}}
				if section == "GIT" {
					cur.dep.ResolvedURL = remote
				}
				specs = append(specs, cur)
			case indent == 6 && cur != nil:
				name, _, _ := strings.Cut(line, " ")
				cur.children = append(cur.children, name)
			}
		case "DEPENDENCIES":
			name, _, _ := strings.Cut(line, " ")
			direct[strings.TrimSuffix(name, "!")] = true
		}
	}

	versions := make(map[string]string, len(specs))
	for _, s := range specs {
		if _, ok := versions[s.dep.Package]; !ok {
			versions[s.dep.Package] = s.dep.Version
		}
	}

	seen := make(map[string]bool)
	var found []deps.FoundDependency
	for _, s := range specs {
		key := s.dep.Package + "@" + s.dep.Version
		if seen[key] {
			continue
		}
		seen[key] = true
		if direct[s.dep.Package] {
			s.dep.Transitivity = deps.Direct
		}
		for _, c := range s.children {
			s.dep.Children = append(s.dep.Children, deps.DependencyChild{Package: c, Version: versions[c]})
		}
		found = append(found, s.dep)
	}
	return found, errs
}

// splitGem reads "name (version)" or "name (version-platform)"; the
// platform suffix is dropped.
func splitGem(line string) (name, version string, ok bool) {
	name, rest, ok := strings.Cut(line, " (")
	if !ok || !strings.HasSuffix(rest, ")") {
		return "", "", false
	}
	version = strings.TrimSuffix(rest, ")")
	if i := strings.Index(version, "-"); i > 0 {
		version = version[:i]
	}
	return name, version, name != "" && version != ""
}
