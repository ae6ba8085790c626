package resolve

import (
	"github.com/matzehuels/depresolve/pkg/deps"
	"github.com/matzehuels/depresolve/pkg/deps/dart"
	"github.com/matzehuels/depresolve/pkg/deps/dotnet"
	"github.com/matzehuels/depresolve/pkg/deps/elixir"
	"github.com/matzehuels/depresolve/pkg/deps/golang"
	"github.com/matzehuels/depresolve/pkg/deps/java"
	"github.com/matzehuels/depresolve/pkg/deps/javascript"
	"github.com/matzehuels/depresolve/pkg/deps/php"
	"github.com/matzehuels/depresolve/pkg/deps/python"
	"github.com/matzehuels/depresolve/pkg/deps/ruby"
	"github.com/matzehuels/depresolve/pkg/deps/rust"
	"github.com/matzehuels/depresolve/pkg/deps/swift"
)

// Parsers maps every lockfile kind to its static parser.
var Parsers = map[deps.LockfileKind]deps.Parser{
	deps.LockfilePipfileLock:       python.ParsePipfileLock,
	deps.LockfilePipRequirements:   python.ParseRequirements,
	deps.LockfilePoetryLock:        python.ParsePoetryLock,
	deps.LockfileNPMPackageLock:    javascript.ParsePackageLock,
	deps.LockfileYarnLock:          javascript.ParseYarnLock,
	deps.LockfilePnpmLock:          javascript.ParsePnpmLock,
	deps.LockfileGemfileLock:       ruby.ParseGemfileLock,
	deps.LockfileComposerLock:      php.ParseComposerLock,
	deps.LockfileGoMod:             golang.ParseGoMod,
	deps.LockfileCargoLock:         rust.ParseCargoLock,
	deps.LockfileMavenDepTree:      java.ParseMavenDepTree,
	deps.LockfileGradleLockfile:    java.ParseGradleLockfile,
	deps.LockfileNuGetPackagesLock: dotnet.ParsePackagesLock,
	deps.LockfilePubspecLock:       dart.ParsePubspecLock,
	deps.LockfileSwiftResolved:     swift.ParsePackageResolved,
	deps.LockfileMixLock:           elixir.ParseMixLock,
}

// GraphManifests lists the manifest kinds whose dynamic resolution builds
// a full dependency graph, which is preferred over the lockfile when the
// policy asks for it.
var GraphManifests = map[deps.ManifestKind]bool{
	deps.ManifestPomXML:      true,
	deps.ManifestBuildGradle: true,
}
