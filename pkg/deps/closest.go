package deps

import (
	"path"
	"strings"
)

// FindClosestSubproject returns the subproject of the given ecosystem whose
// root directory is the deepest ancestor of p. When two candidates are equally
// deep the one listed first wins. It returns nil when no root contains p.
func FindClosestSubproject(p string, eco Ecosystem, subprojects []ResolvedSubproject) *ResolvedSubproject {
	target := segments(p)
	var best *ResolvedSubproject
	bestDepth := -1
	for i := range subprojects {
		sp := &subprojects[i]
		if sp.Ecosystem != eco {
			continue
		}
		root := segments(sp.RootDir)
		if !hasPrefix(target, root) {
			continue
		}
		if len(root) > bestDepth {
			best, bestDepth = sp, len(root)
		}
	}
	return best
}

// IsAncestor reports whether dir contains p, comparing whole path segments.
// The empty path and "." contain every relative path.
func IsAncestor(dir, p string) bool {
	return hasPrefix(segments(p), segments(dir))
}

// segments splits a cleaned slash path. Absolute paths keep a leading "/"
// segment so they never match relative roots.
func segments(p string) []string {
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	if p == "." {
		return nil
	}
	var segs []string
	if strings.HasPrefix(p, "/") {
		segs = append(segs, "/")
		p = strings.TrimPrefix(p, "/")
		if p == "" {
			return segs
		}
	}
	return append(segs, strings.Split(p, "/")...)
}

func hasPrefix(p, prefix []string) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}
