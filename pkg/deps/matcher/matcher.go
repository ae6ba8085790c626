// Package matcher discovers subprojects in a set of candidate file paths.
//
// A [Matcher] recognizes the files of one dependency-source convention and
// groups them into [deps.Subproject] values. [FindSubprojects] applies an
// ordered list of matchers with first-match-wins semantics: each matcher only
// sees the candidates that earlier matchers did not consume, and consumes
// exactly the files its subprojects reference.
//
// Candidate paths are slash-separated and relative to the repository root.
package matcher

import (
	"path"
	"slices"

	"github.com/matzehuels/depresolve/pkg/deps"
)

// Matcher recognizes and groups the files of one dependency-source convention.
type Matcher interface {
	// Match reports whether the matcher is interested in p.
	Match(p string) bool
	// MakeSubprojects groups files (all accepted by Match) into subprojects and
	// returns the files it claimed.
	MakeSubprojects(files []string) (subprojects []deps.Subproject, consumed []string)
}

// FindSubprojects runs matchers in order over candidates. Each matcher sees
// only the candidates it matches that no earlier matcher consumed.
func FindSubprojects(candidates []string, matchers []Matcher) []deps.Subproject {
	files := normalize(candidates)
	used := make(map[string]bool, len(files))

	var subprojects []deps.Subproject
	for _, m := range matchers {
		var avail []string
		for _, f := range files {
			if !used[f] && m.Match(f) {
				avail = append(avail, f)
			}
		}
		if len(avail) == 0 {
			continue
		}
		sps, consumed := m.MakeSubprojects(avail)
		for _, c := range consumed {
			used[c] = true
		}
		subprojects = append(subprojects, sps...)
	}
	return subprojects
}

// FilterSourceFiles keeps the candidates that at least one matcher matches.
func FilterSourceFiles(candidates []string, matchers []Matcher) []string {
	var out []string
	for _, c := range candidates {
		p := clean(c)
		for _, m := range matchers {
			if m.Match(p) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// normalize cleans, dedupes and sorts candidate paths so discovery does not
// depend on enumeration order.
func normalize(candidates []string) []string {
	files := make([]string, 0, len(candidates))
	for _, c := range candidates {
		files = append(files, clean(c))
	}
	slices.Sort(files)
	return slices.Compact(files)
}

func clean(p string) string {
	return path.Clean(p)
}

func base(p string) string { return path.Base(p) }
func dir(p string) string  { return path.Dir(p) }
