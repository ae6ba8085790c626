package matcher

import (
	"slices"

	"github.com/matzehuels/depresolve/pkg/deps"
)

const gradleLockfile = "gradle.lockfile"

var (
	gradleBuildFiles    = []string{"build.gradle", "build.gradle.kts"}
	gradleSettingsFiles = []string{"settings.gradle", "settings.gradle.kts"}
)

// Gradle discovers Gradle builds. A build root is a directory containing a
// settings file, a directory containing a build file that is not nested
// inside a settings root, or any directory holding a gradle.lockfile. Build
// files of unlocked multi-project subdirectories are covered by their
// settings root and stay unclaimed; a locked subproject pairs its lockfile
// with its own build file.
type Gradle struct{}

func (Gradle) Match(p string) bool {
	b := base(p)
	return b == gradleLockfile || slices.Contains(gradleBuildFiles, b) || slices.Contains(gradleSettingsFiles, b)
}

type gradleDir struct {
	build, settings, lockfile string
}

func (Gradle) MakeSubprojects(files []string) ([]deps.Subproject, []string) {
	dirs := make(map[string]*gradleDir)
	at := func(d string) *gradleDir {
		if dirs[d] == nil {
			dirs[d] = &gradleDir{}
		}
		return dirs[d]
	}
	for _, f := range files {
		b := base(f)
		switch {
		case b == gradleLockfile:
			at(dir(f)).lockfile = f
		case slices.Contains(gradleBuildFiles, b):
			if g := at(dir(f)); g.build == "" {
				g.build = f
			}
		case slices.Contains(gradleSettingsFiles, b):
			if g := at(dir(f)); g.settings == "" {
				g.settings = f
			}
		}
	}

	var settingsRoots []string
	for d, g := range dirs {
		if g.settings != "" {
			settingsRoots = append(settingsRoots, d)
		}
	}

	var roots []string
	for d, g := range dirs {
		switch {
		case g.settings != "":
			roots = append(roots, d)
		case g.lockfile != "":
			roots = append(roots, d)
		case g.build != "" && !insideAny(d, settingsRoots):
			roots = append(roots, d)
		}
	}
	slices.Sort(roots)

	var (
		subprojects []deps.Subproject
		consumed    []string
	)
	for _, d := range roots {
		g := dirs[d]
		lock := deps.Lockfile{Kind: deps.LockfileGradleLockfile, Path: g.lockfile}
		if g.build == "" && g.settings == "" {
			subprojects = append(subprojects, deps.Subproject{RootDir: d, Source: deps.LockfileOnly{Lockfile: lock}})
			consumed = append(consumed, g.lockfile)
			continue
		}

		manifest := deps.Manifest{Kind: deps.ManifestBuildGradle, Path: g.build}
		if g.build == "" {
			manifest = deps.Manifest{Kind: deps.ManifestSettingsGradle, Path: g.settings}
		}
		consumed = append(consumed, manifest.Path)

		var src deps.DependencySource = deps.ManifestOnly{Manifest: manifest}
		if g.lockfile != "" {
			src = deps.ManifestLockfile{Manifest: manifest, Lockfile: lock}
			consumed = append(consumed, g.lockfile)
		}
		subprojects = append(subprojects, deps.Subproject{RootDir: d, Source: src})
	}
	return subprojects, consumed
}

// insideAny reports whether d lies strictly inside one of roots.
func insideAny(d string, roots []string) bool {
	for _, r := range roots {
		if r != d && deps.IsAncestor(r, d) {
			return true
		}
	}
	return false
}
