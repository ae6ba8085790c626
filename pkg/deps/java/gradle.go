package java

import (
	"io/fs"
	"strings"

	"github.com/matzehuels/depresolve/pkg/deps"
)

// ParseGradleLockfile parses gradle.lockfile lines of the form
// group:artifact:version=configuration,... The lock file does not record
// which dependencies are declared, so the build script is searched for each
// group:artifact coordinate to mark direct dependencies.
func ParseGradleLockfile(fsys fs.FS, lockfilePath, manifestPath string) ([]deps.FoundDependency, []deps.ParserError) {
	data, perr := deps.ReadFile(fsys, lockfilePath)
	if perr != nil {
		return nil, []deps.ParserError{*perr}
	}

	var (
		errs  []deps.ParserError
		build string
	)
	if manifestPath != "" {
		b, merr := deps.ReadFile(fsys, manifestPath)
		if merr != nil {
			errs = append(errs, *merr)
		} else {
			build = string(b)
		}
	}

	var found []deps.FoundDependency
	for lineNo, text := range deps.Lines(data) {
		line := strings.TrimSpace(text)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "empty=") {
			continue
		}
		coord, _, _ := strings.Cut(line, "=")
		parts := strings.Split(coord, ":")
		if len(parts) != 3 || parts[2] == "" {
			errs = append(errs, deps.ParserError{Path: lockfilePath, Line: lineNo, Text: line, Reason: "expected group:artifact:version"})
			continue
		}
		name := parts[0] + ":" + parts[1]
		dep := deps.FoundDependency{
			Package:      name,
			Version:      parts[2],
			Ecosystem:    deps.EcosystemMaven,
			Transitivity: deps.Unknown,
			LockfilePath: lockfilePath,
			Line:         lineNo,
		}
		if build != "" {
			dep.Transitivity = deps.Transitive
			if strings.Contains(build, name) {
				dep.Transitivity = deps.Direct
			}
		}
		found = append(found, dep)
	}
	return found, errs
}
