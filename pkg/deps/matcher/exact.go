package matcher

import (
	"github.com/matzehuels/depresolve/pkg/deps"
)

// ExactLockfileManifest pairs a fixed-name lockfile with a fixed-name manifest
// in the same directory. A lockfile without a sibling manifest becomes a
// LockfileOnly source. A manifest without a lockfile is left unclaimed so a
// later matcher can take it. When both names are equal the single file plays
// both roles.
type ExactLockfileManifest struct {
	LockfileName string
	ManifestName string
	LockfileKind deps.LockfileKind
	ManifestKind deps.ManifestKind
}

func (m ExactLockfileManifest) Match(p string) bool {
	b := base(p)
	return b == m.LockfileName || b == m.ManifestName
}

func (m ExactLockfileManifest) MakeSubprojects(files []string) ([]deps.Subproject, []string) {
	manifests := make(map[string]string)
	for _, f := range files {
		if base(f) == m.ManifestName {
			manifests[dir(f)] = f
		}
	}

	var (
		subprojects []deps.Subproject
		consumed    []string
	)
	for _, f := range files {
		if base(f) != m.LockfileName {
			continue
		}
		root := dir(f)
		lock := deps.Lockfile{Kind: m.LockfileKind, Path: f}
		consumed = append(consumed, f)

		mf, ok := manifests[root]
		if !ok {
			subprojects = append(subprojects, deps.Subproject{RootDir: root, Source: deps.LockfileOnly{Lockfile: lock}})
			continue
		}
		if mf != f {
			consumed = append(consumed, mf)
		}
		subprojects = append(subprojects, deps.Subproject{
			RootDir: root,
			Source: deps.ManifestLockfile{
				Manifest: deps.Manifest{Kind: m.ManifestKind, Path: mf},
				Lockfile: lock,
			},
		})
	}
	return subprojects, consumed
}

// ExactManifestOnly claims every file with a fixed manifest name as a
// ManifestOnly source.
type ExactManifestOnly struct {
	ManifestName string
	ManifestKind deps.ManifestKind
}

func (m ExactManifestOnly) Match(p string) bool { return base(p) == m.ManifestName }

func (m ExactManifestOnly) MakeSubprojects(files []string) ([]deps.Subproject, []string) {
	var subprojects []deps.Subproject
	for _, f := range files {
		subprojects = append(subprojects, deps.Subproject{
			RootDir: dir(f),
			Source:  deps.ManifestOnly{Manifest: deps.Manifest{Kind: m.ManifestKind, Path: f}},
		})
	}
	return subprojects, files
}
