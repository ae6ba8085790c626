package python

import (
	"encoding/json"
	"io/fs"
	"maps"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/depresolve/pkg/deps"
)

type pipfileLock struct {
	Default map[string]pipfileLockEntry `json:"default"`
	Develop map[string]pipfileLockEntry `json:"develop"`
}

type pipfileLockEntry struct {
	Version string   `json:"version"`
	Hashes  []string `json:"hashes"`
	Index   string   `json:"index"`
	Git     string   `json:"git"`
	Path    string   `json:"path"`
}

type pipfile struct {
	Packages    map[string]any `toml:"packages"`
	DevPackages map[string]any `toml:"dev-packages"`
}

// ParsePipfileLock parses a Pipfile.lock. Both the default and develop
// sections are reported; with a Pipfile, packages it declares are direct.
func ParsePipfileLock(fsys fs.FS, lockfilePath, manifestPath string) ([]deps.FoundDependency, []deps.ParserError) {
	data, perr := deps.ReadFile(fsys, lockfilePath)
	if perr != nil {
		return nil, []deps.ParserError{*perr}
	}
	var lock pipfileLock
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, []deps.ParserError{{Path: lockfilePath, Reason: "invalid JSON: " + err.Error()}}
	}

	var errs []deps.ParserError
	direct, known := map[string]bool(nil), false
	if manifestPath != "" {
		if mdata, merr := deps.ReadFile(fsys, manifestPath); merr != nil {
			errs = append(errs, *merr)
		} else {
			var pf pipfile
			if err := toml.Unmarshal(mdata, &pf); err != nil {
				errs = append(errs, deps.ParserError{Path: manifestPath, Reason: "invalid TOML: " + err.Error()})
			} else {
				direct, known = make(map[string]bool), true
				for name := range pf.Packages {
					direct[normalize(name)] = true
				}
				for name := range pf.DevPackages {
					direct[normalize(name)] = true
				}
			}
		}
	}

	var found []deps.FoundDependency
	for _, section := range []map[string]pipfileLockEntry{lock.Default, lock.Develop} {
		for _, name := range slices.Sorted(maps.Keys(section)) {
			entry := section[name]
			if entry.Git != "" || entry.Path != "" {
				continue
			}
			version := strings.TrimPrefix(entry.Version, "==")
			if version == "" {
				errs = append(errs, deps.ParserError{Path: lockfilePath, Text: name, Reason: "package has no pinned version"})
				continue
			}
			n := normalize(name)
			dep := deps.FoundDependency{
				Package:      n,
				Version:      version,
				Ecosystem:    deps.EcosystemPyPI,
				Transitivity: transitivity(direct, known, n),
				LockfilePath: lockfilePath,
			}
			if hashes := splitHashes(entry.Hashes); len(hashes) > 0 {
				dep.AllowedHashes = hashes
			}
			found = append(found, dep)
		}
	}
	return found, errs
}

func splitHashes(raw []string) map[string][]string {
	out := make(map[string][]string)
	for _, h := range raw {
		if algo, digest, ok := strings.Cut(h, ":"); ok {
			out[algo] = append(out[algo], digest)
		}
	}
	return out
}
