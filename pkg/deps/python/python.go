// Package python parses Python lockfiles: pip-compiled requirements.txt,
// Pipfile.lock and poetry.lock.
package python

import (
	"regexp"
	"strings"
)

var separatorRE = regexp.MustCompile(`[-_.]+`)

// normalize applies PEP 503 name normalization.
func normalize(name string) string {
	return separatorRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// requirementRE splits a PEP 508 requirement into name, extras and the rest.
var requirementRE = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)\s*(\[[^\]]*\])?\s*(.*)$`)

// splitRequirement returns the normalized name and the version specifier of a
// requirement, with environment markers removed.
func splitRequirement(spec string) (name, specifier string, ok bool) {
	if i := strings.Index(spec, ";"); i >= 0 {
		spec = spec[:i]
	}
	m := requirementRE.FindStringSubmatch(strings.TrimSpace(spec))
	if m == nil {
		return "", "", false
	}
	return normalize(m[1]), strings.TrimSpace(m[3]), true
}

// pinnedVersion extracts the version from an exact "==" or "===" specifier.
func pinnedVersion(specifier string) (string, bool) {
	for _, op := range []string{"===", "=="} {
		if v, ok := strings.CutPrefix(specifier, op); ok {
			v = strings.TrimSpace(v)
			if v != "" && !strings.ContainsAny(v, ",*<>!~") {
				return v, true
			}
		}
	}
	return "", false
}
