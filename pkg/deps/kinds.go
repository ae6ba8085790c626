package deps

import (
	"fmt"
	"slices"
	"strings"
)

// Ecosystem identifies the package namespace a dependency belongs to.
type Ecosystem string

const (
	EcosystemPyPI     Ecosystem = "pypi"
	EcosystemNPM      Ecosystem = "npm"
	EcosystemGem      Ecosystem = "gem"
	EcosystemComposer Ecosystem = "composer"
	EcosystemGoMod    Ecosystem = "gomod"
	EcosystemCargo    Ecosystem = "cargo"
	EcosystemMaven    Ecosystem = "maven"
	EcosystemNuGet    Ecosystem = "nuget"
	EcosystemPub      Ecosystem = "pub"
	EcosystemSwiftPM  Ecosystem = "swiftpm"
	EcosystemMix      Ecosystem = "mix"
)

var ecosystems = []Ecosystem{
	EcosystemPyPI, EcosystemNPM, EcosystemGem, EcosystemComposer, EcosystemGoMod,
	EcosystemCargo, EcosystemMaven, EcosystemNuGet, EcosystemPub, EcosystemSwiftPM,
	EcosystemMix,
}

// Ecosystems returns every supported ecosystem in a stable order.
func Ecosystems() []Ecosystem {
	return slices.Clone(ecosystems)
}

// ParseEcosystem converts a case-insensitive name into an Ecosystem.
func ParseEcosystem(s string) (Ecosystem, error) {
	e := Ecosystem(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(ecosystems, e) {
		return "", fmt.Errorf("unknown ecosystem %q", s)
	}
	return e, nil
}

// LockfileKind identifies a lockfile format.
type LockfileKind string

const (
	LockfilePipfileLock       LockfileKind = "pipfile_lock"
	LockfilePipRequirements   LockfileKind = "pip_requirements_txt"
	LockfilePoetryLock        LockfileKind = "poetry_lock"
	LockfileNPMPackageLock    LockfileKind = "npm_package_lock_json"
	LockfileYarnLock          LockfileKind = "yarn_lock"
	LockfilePnpmLock          LockfileKind = "pnpm_lock"
	LockfileGemfileLock       LockfileKind = "gemfile_lock"
	LockfileComposerLock      LockfileKind = "composer_lock"
	LockfileGoMod             LockfileKind = "go_mod"
	LockfileCargoLock         LockfileKind = "cargo_lock"
	LockfileMavenDepTree      LockfileKind = "maven_dep_tree"
	LockfileGradleLockfile    LockfileKind = "gradle_lockfile"
	LockfileNuGetPackagesLock LockfileKind = "nuget_packages_lock_json"
	LockfilePubspecLock       LockfileKind = "pubspec_lock"
	LockfileSwiftResolved     LockfileKind = "swift_package_resolved"
	LockfileMixLock           LockfileKind = "mix_lock"
)

// lockfileEcosystems is the static ecosystem-by-kind table. It is total over
// LockfileKinds.
var lockfileEcosystems = map[LockfileKind]Ecosystem{
	LockfilePipfileLock:       EcosystemPyPI,
	LockfilePipRequirements:   EcosystemPyPI,
	LockfilePoetryLock:        EcosystemPyPI,
	LockfileNPMPackageLock:    EcosystemNPM,
	LockfileYarnLock:          EcosystemNPM,
	LockfilePnpmLock:          EcosystemNPM,
	LockfileGemfileLock:       EcosystemGem,
	LockfileComposerLock:      EcosystemComposer,
	LockfileGoMod:             EcosystemGoMod,
	LockfileCargoLock:         EcosystemCargo,
	LockfileMavenDepTree:      EcosystemMaven,
	LockfileGradleLockfile:    EcosystemMaven,
	LockfileNuGetPackagesLock: EcosystemNuGet,
	LockfilePubspecLock:       EcosystemPub,
	LockfileSwiftResolved:     EcosystemSwiftPM,
	LockfileMixLock:           EcosystemMix,
}

// LockfileKinds returns every registered lockfile kind, sorted.
func LockfileKinds() []LockfileKind {
	kinds := make([]LockfileKind, 0, len(lockfileEcosystems))
	for k := range lockfileEcosystems {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Ecosystem returns the ecosystem this lockfile format belongs to.
func (k LockfileKind) Ecosystem() Ecosystem {
	return lockfileEcosystems[k]
}

// Valid reports whether k is a registered lockfile kind.
func (k LockfileKind) Valid() bool {
	_, ok := lockfileEcosystems[k]
	return ok
}

// ManifestKind identifies a manifest format.
type ManifestKind string

const (
	ManifestRequirementsIn ManifestKind = "requirements_in"
	ManifestPipfile        ManifestKind = "pipfile"
	ManifestPyprojectToml  ManifestKind = "pyproject_toml"
	ManifestPackageJSON    ManifestKind = "package_json"
	ManifestGemfile        ManifestKind = "gemfile"
	ManifestGoMod          ManifestKind = "go_mod"
	ManifestCargoToml      ManifestKind = "cargo_toml"
	ManifestPomXML         ManifestKind = "pom_xml"
	ManifestBuildGradle    ManifestKind = "build_gradle"
	ManifestSettingsGradle ManifestKind = "settings_gradle"
	ManifestComposerJSON   ManifestKind = "composer_json"
	ManifestNuGetManifest  ManifestKind = "nuget_manifest_json"
	ManifestPubspecYaml    ManifestKind = "pubspec_yaml"
	ManifestPackageSwift   ManifestKind = "package_swift"
	ManifestMixExs         ManifestKind = "mix_exs"
)

var manifestKinds = []ManifestKind{
	ManifestRequirementsIn, ManifestPipfile, ManifestPyprojectToml, ManifestPackageJSON,
	ManifestGemfile, ManifestGoMod, ManifestCargoToml, ManifestPomXML, ManifestBuildGradle,
	ManifestSettingsGradle, ManifestComposerJSON, ManifestNuGetManifest, ManifestPubspecYaml,
	ManifestPackageSwift, ManifestMixExs,
}

// ManifestKinds returns every registered manifest kind.
func ManifestKinds() []ManifestKind {
	return slices.Clone(manifestKinds)
}

// Valid reports whether k is a registered manifest kind.
func (k ManifestKind) Valid() bool {
	return slices.Contains(manifestKinds, k)
}
