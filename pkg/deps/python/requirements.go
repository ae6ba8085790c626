package python

import (
	"io/fs"
	"strings"

	"github.com/matzehuels/depresolve/pkg/deps"
)

// logicalLine is a requirements line with continuations joined.
type logicalLine struct {
	text string
	line int
}

// readLogicalLines joins backslash continuations and strips comments.
func readLogicalLines(data []byte) []logicalLine {
	var (
		out   []logicalLine
		buf   strings.Builder
		start int
	)
	for n, raw := range deps.Lines(data) {
		if i := strings.Index(raw, " #"); i >= 0 {
			raw = raw[:i]
		}
		if strings.HasPrefix(strings.TrimSpace(raw), "#") {
			raw = ""
		}
		if buf.Len() == 0 {
			start = n
		}
		trimmed := strings.TrimSpace(raw)
		if cont, ok := strings.CutSuffix(trimmed, "\\"); ok {
			buf.WriteString(cont)
			buf.WriteByte(' ')
			continue
		}
		buf.WriteString(trimmed)
		if text := strings.TrimSpace(buf.String()); text != "" {
			out = append(out, logicalLine{text: text, line: start})
		}
		buf.Reset()
	}
	if text := strings.TrimSpace(buf.String()); text != "" {
		out = append(out, logicalLine{text: text, line: start})
	}
	return out
}

// skippable reports whether a requirement line names no registry package.
func skippable(text string) bool {
	return strings.HasPrefix(text, "-") ||
		strings.Contains(text, "://") ||
		strings.HasPrefix(text, "git+") ||
		strings.HasPrefix(text, ".") ||
		strings.HasPrefix(text, "/")
}

// ParseRequirements parses a pip-compiled requirements lockfile. Every
// requirement must be pinned with "=="; unpinned lines are reported as
// errors. With a requirements.in manifest, packages it names are direct and
// the rest transitive.
func ParseRequirements(fsys fs.FS, lockfilePath, manifestPath string) ([]deps.FoundDependency, []deps.ParserError) {
	data, perr := deps.ReadFile(fsys, lockfilePath)
	if perr != nil {
		return nil, []deps.ParserError{*perr}
	}

	var (
		found []deps.FoundDependency
		errs  []deps.ParserError
	)
	direct, hasManifest, merr := manifestNames(fsys, manifestPath)
	if merr != nil {
		errs = append(errs, *merr)
	}

	for _, ll := range readLogicalLines(data) {
		if skippable(ll.text) {
			continue
		}
		fields := strings.Fields(ll.text)
		var spec []string
		hashes := make(map[string][]string)
		for _, f := range fields {
			if h, ok := strings.CutPrefix(f, "--hash="); ok {
				if algo, digest, ok := strings.Cut(h, ":"); ok {
					hashes[algo] = append(hashes[algo], digest)
				}
				continue
			}
			spec = append(spec, f)
		}

		name, specifier, ok := splitRequirement(strings.Join(spec, " "))
		if !ok {
			errs = append(errs, deps.ParserError{Path: lockfilePath, Line: ll.line, Text: ll.text, Reason: "invalid requirement"})
			continue
		}
		version, ok := pinnedVersion(specifier)
		if !ok {
			errs = append(errs, deps.ParserError{Path: lockfilePath, Line: ll.line, Text: ll.text, Reason: "requirement is not pinned to an exact version"})
			continue
		}

		dep := deps.FoundDependency{
			Package:      name,
			Version:      version,
			Ecosystem:    deps.EcosystemPyPI,
			Transitivity: transitivity(direct, hasManifest, name),
			LockfilePath: lockfilePath,
			Line:         ll.line,
		}
		if len(hashes) > 0 {
			dep.AllowedHashes = hashes
		}
		found = append(found, dep)
	}
	return found, errs
}

// manifestNames reads the package names declared in a requirements.in file.
func manifestNames(fsys fs.FS, manifestPath string) (map[string]bool, bool, *deps.ParserError) {
	if manifestPath == "" {
		return nil, false, nil
	}
	data, perr := deps.ReadFile(fsys, manifestPath)
	if perr != nil {
		return nil, false, perr
	}
	names := make(map[string]bool)
	for _, ll := range readLogicalLines(data) {
		if skippable(ll.text) {
			continue
		}
		if name, _, ok := splitRequirement(ll.text); ok {
			names[name] = true
		}
	}
	return names, true, nil
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
