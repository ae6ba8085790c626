package worker

import (
	"github.com/matzehuels/depresolve/pkg/deps"
)

// Tool describes how to produce a lockfile for one manifest kind. The
// command runs in the manifest's directory and must write Output there.
type Tool struct {
	Command string
	Args    []string
	// Output is the file the command writes, relative to the manifest's
	// directory.
	Output   string
	Lockfile deps.LockfileKind
}

// DefaultTools covers the manifest kinds whose package managers can emit a
// lockfile the static parsers understand.
var DefaultTools = map[deps.ManifestKind]Tool{
	deps.ManifestPomXML: {
		Command:  "mvn",
		Args:     []string{"-q", "dependency:tree", "-DoutputFile=maven_dep_tree.txt", "-DappendOutput=true"},
		Output:   "maven_dep_tree.txt",
		Lockfile: deps.LockfileMavenDepTree,
	},
	deps.ManifestBuildGradle: {
		Command:  "gradle",
		Args:     []string{"-q", "dependencies", "--write-locks"},
		Output:   "gradle.lockfile",
		Lockfile: deps.LockfileGradleLockfile,
	},
	deps.ManifestRequirementsIn: {
		Command:  "pip-compile",
		Args:     []string{"--quiet", "--output-file", "requirements.txt"},
		Output:   "requirements.txt",
		Lockfile: deps.LockfilePipRequirements,
	},
	deps.ManifestPackageJSON: {
		Command:  "npm",
		Args:     []string{"install", "--package-lock-only", "--ignore-scripts", "--no-audit"},
		Output:   "package-lock.json",
		Lockfile: deps.LockfileNPMPackageLock,
	},
	deps.ManifestCargoToml: {
		Command:  "cargo",
		Args:     []string{"generate-lockfile"},
		Output:   "Cargo.lock",
		Lockfile: deps.LockfileCargoLock,
	},
}
