package matcher

import (
	"slices"

	"github.com/matzehuels/depresolve/pkg/deps"
)

func exact(lockfile, manifest string, lk deps.LockfileKind, mk deps.ManifestKind) ExactLockfileManifest {
	return ExactLockfileManifest{LockfileName: lockfile, ManifestName: manifest, LockfileKind: lk, ManifestKind: mk}
}

// Matchers is the built-in registry in precedence order. Earlier matchers
// claim files first; the order is part of the discovery contract.
var Matchers = []Matcher{
	PipRequirements{
		BasePattern:         "*requirement*",
		LockfileExts:        []string{"txt", "pip"},
		ManifestExt:         "in",
		DefaultManifestBase: "requirements",
	},
	exact("package-lock.json", "package.json", deps.LockfileNPMPackageLock, deps.ManifestPackageJSON),
	exact("yarn.lock", "package.json", deps.LockfileYarnLock, deps.ManifestPackageJSON),
	exact("pnpm-lock.yaml", "package.json", deps.LockfilePnpmLock, deps.ManifestPackageJSON),
	exact("Gemfile.lock", "Gemfile", deps.LockfileGemfileLock, deps.ManifestGemfile),
	exact("go.mod", "go.mod", deps.LockfileGoMod, deps.ManifestGoMod),
	exact("Cargo.lock", "Cargo.toml", deps.LockfileCargoLock, deps.ManifestCargoToml),
	exact("maven_dep_tree.txt", "pom.xml", deps.LockfileMavenDepTree, deps.ManifestPomXML),
	ExactManifestOnly{ManifestName: "pom.xml", ManifestKind: deps.ManifestPomXML},
	Gradle{},
	exact("composer.lock", "composer.json", deps.LockfileComposerLock, deps.ManifestComposerJSON),
	exact("packages.lock.json", "nuget.manifest.json", deps.LockfileNuGetPackagesLock, deps.ManifestNuGetManifest),
	exact("pubspec.lock", "pubspec.yaml", deps.LockfilePubspecLock, deps.ManifestPubspecYaml),
	exact("Package.resolved", "Package.swift", deps.LockfileSwiftResolved, deps.ManifestPackageSwift),
	exact("mix.lock", "mix.exs", deps.LockfileMixLock, deps.ManifestMixExs),
	exact("Pipfile.lock", "Pipfile", deps.LockfilePipfileLock, deps.ManifestPipfile),
	exact("poetry.lock", "pyproject.toml", deps.LockfilePoetryLock, deps.ManifestPyprojectToml),
}

// WithExtra returns a new registry with extra matchers appended after base.
func WithExtra(base []Matcher, extra ...Matcher) []Matcher {
	return append(slices.Clone(base), extra...)
}
