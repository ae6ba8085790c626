// Package javascript parses npm ecosystem lockfiles: package-lock.json,
// yarn.lock (classic and Berry) and pnpm-lock.yaml.
package javascript

import (
	"encoding/json"
	"io/fs"
	"strings"

	"github.com/matzehuels/depresolve/pkg/deps"
)

type packageFile struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}

func (p packageFile) names() map[string]bool {
	names := make(map[string]bool)
	for _, m := range []map[string]string{p.Dependencies, p.DevDependencies, p.PeerDependencies, p.OptionalDependencies} {
		for name := range m {
			names[name] = true
		}
	}
	return names
}

// directNames reads the dependency names declared in package.json. known is
// false when there is no usable manifest.
func directNames(fsys fs.FS, manifestPath string) (names map[string]bool, known bool, perr *deps.ParserError) {
	if manifestPath == "" {
		return nil, false, nil
	}
	data, perr := deps.ReadFile(fsys, manifestPath)
	if perr != nil {
		return nil, false, perr
	}
	var pkg packageFile
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, false, &deps.ParserError{Path: manifestPath, Reason: "invalid JSON: " + err.Error()}
	}
	return pkg.names(), true, nil
}

func transitivity(direct map[string]bool, known bool, name string) deps.Transitivity {
	switch {
	case !known:
		return deps.Unknown
	case direct[name]:
		return deps.Direct
	default:
		return deps.Transitive
	}
}

// integrityHashes converts an SRI string ("sha512-<base64> sha1-<base64>")
// into an algorithm-keyed hash map.
func integrityHashes(integrity string) map[string][]string {
	if integrity == "" {
		return nil
	}
	out := make(map[string][]string)
	for _, part := range strings.Fields(integrity) {
		if algo, digest, ok := strings.Cut(part, "-"); ok {
			out[algo] = append(out[algo], digest)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// splitSpec splits "name@range" where name may be scoped ("@scope/name").
func splitSpec(spec string) (name, rest string) {
	i := strings.LastIndex(spec, "@")
	if i <= 0 {
		return spec, ""
	}
	return spec[:i], spec[i+1:]
}
