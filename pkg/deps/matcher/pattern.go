package matcher

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/matzehuels/depresolve/pkg/deps"
)

// PatternLockfile claims lockfiles whose paths match any of a set of
// doublestar globs. Lockfiles are grouped by directory and paired with the
// fixed-name manifest in that directory, if any. A directory holding several
// lockfiles yields a single MultiLockfile subproject.
type PatternLockfile struct {
	Patterns     []string
	ManifestName string
	LockfileKind deps.LockfileKind
	ManifestKind deps.ManifestKind
}

// NewPatternLockfile validates patterns before building the matcher.
func NewPatternLockfile(patterns []string, manifestName string, lk deps.LockfileKind, mk deps.ManifestKind) (PatternLockfile, error) {
	if len(patterns) == 0 {
		return PatternLockfile{}, fmt.Errorf("pattern matcher for %s has no patterns", lk)
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return PatternLockfile{}, fmt.Errorf("invalid pattern %q", p)
		}
	}
	if !lk.Valid() {
		return PatternLockfile{}, fmt.Errorf("unknown lockfile kind %q", lk)
	}
	if manifestName != "" && !mk.Valid() {
		return PatternLockfile{}, fmt.Errorf("unknown manifest kind %q", mk)
	}
	return PatternLockfile{Patterns: patterns, ManifestName: manifestName, LockfileKind: lk, ManifestKind: mk}, nil
}

func (m PatternLockfile) isLockfile(p string) bool {
	if m.ManifestName != "" && base(p) == m.ManifestName {
		return false
	}
	for _, pat := range m.Patterns {
		if ok, _ := doublestar.Match(pat, p); ok {
			return true
		}
	}
	return false
}

func (m PatternLockfile) Match(p string) bool {
	return (m.ManifestName != "" && base(p) == m.ManifestName) || m.isLockfile(p)
}

func (m PatternLockfile) MakeSubprojects(files []string) ([]deps.Subproject, []string) {
	manifests := make(map[string]string)
	groups := make(map[string][]string)
	var dirs []string
	for _, f := range files {
		if m.isLockfile(f) {
			d := dir(f)
			if _, ok := groups[d]; !ok {
				dirs = append(dirs, d)
			}
			groups[d] = append(groups[d], f)
		} else if m.ManifestName != "" && base(f) == m.ManifestName {
			manifests[dir(f)] = f
		}
	}
	slices.Sort(dirs)

	var (
		subprojects []deps.Subproject
		consumed    []string
	)
	for _, d := range dirs {
		lockfiles := groups[d]
		slices.Sort(lockfiles)
		mf, hasManifest := manifests[d]

		children := make([]deps.LockfileSource, 0, len(lockfiles))
		for _, lf := range lockfiles {
			lock := deps.Lockfile{Kind: m.LockfileKind, Path: lf}
			if hasManifest {
				children = append(children, deps.ManifestLockfile{Manifest: deps.Manifest{Kind: m.ManifestKind, Path: mf}, Lockfile: lock})
			} else {
				children = append(children, deps.LockfileOnly{Lockfile: lock})
			}
			consumed = append(consumed, lf)
		}
		if hasManifest {
			consumed = append(consumed, mf)
		}
		subprojects = append(subprojects, deps.Subproject{RootDir: d, Source: combine(children)})
	}
	return subprojects, consumed
}

// PipRequirements implements the pip-tools convention: compiled lockfiles
// (requirements*.txt) next to their input manifests (requirements*.in),
// optionally collected in a requirements/ folder.
//
// A lockfile pairs with the manifest of the same stem in its own directory,
// falling back to <root>/<DefaultManifestBase>.<ManifestExt>. Files under a
// directory that matches BasePattern belong to that directory's parent.
// Lockfiles sharing a root form one MultiLockfile; manifests no lockfile
// references become ManifestOnly subprojects.
type PipRequirements struct {
	BasePattern         string
	LockfileExts        []string
	ManifestExt         string
	DefaultManifestBase string
}

func splitExt(p string) (stem, ext string) {
	b := base(p)
	e := path.Ext(b)
	return strings.TrimSuffix(b, e), strings.TrimPrefix(e, ".")
}

func (m PipRequirements) nameMatches(name string) bool {
	ok, _ := doublestar.Match(m.BasePattern, name)
	return ok
}

// scopeDir returns the nearest ancestor directory of p whose name matches
// BasePattern, or "" if there is none.
func (m PipRequirements) scopeDir(p string) string {
	for d := dir(p); d != "." && d != "/"; d = dir(d) {
		if m.nameMatches(base(d)) {
			return d
		}
	}
	return ""
}

func (m PipRequirements) root(p string) string {
	if s := m.scopeDir(p); s != "" {
		return dir(s)
	}
	return dir(p)
}

func (m PipRequirements) isLockfile(p string) bool {
	_, ext := splitExt(p)
	return slices.Contains(m.LockfileExts, ext)
}

func (m PipRequirements) isManifest(p string) bool {
	_, ext := splitExt(p)
	return ext == m.ManifestExt
}

func (m PipRequirements) Match(p string) bool {
	if !m.isLockfile(p) && !m.isManifest(p) {
		return false
	}
	stem, _ := splitExt(p)
	return m.nameMatches(stem) || m.scopeDir(p) != ""
}

func (m PipRequirements) MakeSubprojects(files []string) ([]deps.Subproject, []string) {
	manifests := make(map[string]bool)
	for _, f := range files {
		if m.isManifest(f) {
			manifests[f] = true
		}
	}

	groups := make(map[string][]deps.LockfileSource)
	var roots []string
	referenced := make(map[string]bool)
	for _, f := range files {
		if !m.isLockfile(f) {
			continue
		}
		root := m.root(f)
		stem, _ := splitExt(f)
		lock := deps.Lockfile{Kind: deps.LockfilePipRequirements, Path: f}

		var child deps.LockfileSource = deps.LockfileOnly{Lockfile: lock}
		for _, mf := range []string{
			path.Join(dir(f), stem+"."+m.ManifestExt),
			path.Join(root, m.DefaultManifestBase+"."+m.ManifestExt),
		} {
			if manifests[mf] {
				child = deps.ManifestLockfile{Manifest: deps.Manifest{Kind: deps.ManifestRequirementsIn, Path: mf}, Lockfile: lock}
				referenced[mf] = true
				break
			}
		}

		if _, ok := groups[root]; !ok {
			roots = append(roots, root)
		}
		groups[root] = append(groups[root], child)
	}
	slices.Sort(roots)

	var subprojects []deps.Subproject
	for _, root := range roots {
		children := groups[root]
		slices.SortFunc(children, func(a, b deps.LockfileSource) int {
			return strings.Compare(a.LockfileRef().Path, b.LockfileRef().Path)
		})
		subprojects = append(subprojects, deps.Subproject{RootDir: root, Source: combine(children)})
	}

	for _, f := range files {
		if m.isManifest(f) && !referenced[f] {
			subprojects = append(subprojects, deps.Subproject{
				RootDir: m.root(f),
				Source:  deps.ManifestOnly{Manifest: deps.Manifest{Kind: deps.ManifestRequirementsIn, Path: f}},
			})
		}
	}
	return subprojects, files
}

// combine returns the single child, or a MultiLockfile when there are several.
// Children always come from one matcher and therefore one lockfile kind.
func combine(children []deps.LockfileSource) deps.DependencySource {
	if len(children) == 1 {
		return children[0]
	}
	multi, err := deps.NewMultiLockfile(children...)
	if err != nil {
		panic(fmt.Sprintf("matcher: %v", err))
	}
	return multi
}
