// Package deps defines the dependency-source model shared by discovery,
// parsing, and resolution.
//
// # Overview
//
// A repository is split into subprojects. Each [Subproject] is anchored at a
// root directory and backed by exactly one [DependencySource]:
//
//   - [ManifestOnly]: a manifest with no lockfile (resolvable only dynamically)
//   - [LockfileOnly]: a lockfile with no sibling manifest
//   - [ManifestLockfile]: a manifest paired with its lockfile
//   - [MultiLockfile]: several lockfile sources of one ecosystem sharing a root
//
// The variant set is closed. Consumers dispatch over it with [SourceVisitor],
// so adding a variant breaks compilation everywhere it must be handled.
//
// # Parsing
//
// Format parsers are plain functions of type [Parser]. They read from an
// [io/fs.FS] rooted at the scanned repository and never fail hard: malformed
// regions become [ParserError] values while well-formed entries are still
// returned.
//
// # Resolution Results
//
// Resolution turns a [Subproject] into either a [ResolvedSubproject] (with
// an [Ecosystem] and its [FoundDependency] list) or an
// [UnresolvedSubproject] carrying the errors that prevented it.
// [FindClosestSubproject] attributes a file path to the deepest resolved
// subproject of a given ecosystem.
//
// Ecosystem parsers live in subpackages:
//
//   - [github.com/matzehuels/depresolve/pkg/deps/python]: requirements.txt, Pipfile.lock, poetry.lock
//   - [github.com/matzehuels/depresolve/pkg/deps/javascript]: package-lock.json, yarn.lock, pnpm-lock.yaml
//   - [github.com/matzehuels/depresolve/pkg/deps/ruby]: Gemfile.lock
//   - [github.com/matzehuels/depresolve/pkg/deps/php]: composer.lock
//   - [github.com/matzehuels/depresolve/pkg/deps/golang]: go.mod
//   - [github.com/matzehuels/depresolve/pkg/deps/rust]: Cargo.lock
//   - [github.com/matzehuels/depresolve/pkg/deps/java]: Maven dependency trees, gradle.lockfile
//   - [github.com/matzehuels/depresolve/pkg/deps/dotnet]: packages.lock.json
//   - [github.com/matzehuels/depresolve/pkg/deps/dart]: pubspec.lock
//   - [github.com/matzehuels/depresolve/pkg/deps/swift]: Package.resolved
//   - [github.com/matzehuels/depresolve/pkg/deps/elixir]: mix.lock
package deps
