package deps

import (
	"bytes"
	"io/fs"
	"iter"
	"strings"
)

// Transitivity records whether a dependency is declared directly by the
// subproject or pulled in by another dependency.
type Transitivity string

const (
	Direct     Transitivity = "direct"
	Transitive Transitivity = "transitive"
	Unknown    Transitivity = "unknown"
)

// DependencyChild is a package a dependency itself depends on.
type DependencyChild struct {
	Package string `json:"package"`
	Version string `json:"version,omitempty"`
}

// FoundDependency is one resolved package pinned at a version.
type FoundDependency struct {
	Package       string              `json:"package"`
	Version       string              `json:"version"`
	Ecosystem     Ecosystem           `json:"ecosystem"`
	Transitivity  Transitivity        `json:"transitivity"`
	ResolvedURL   string              `json:"resolved_url,omitempty"`
	AllowedHashes map[string][]string `json:"allowed_hashes,omitempty"`
	Children      []DependencyChild   `json:"children,omitempty"`
	LockfilePath  string              `json:"lockfile_path,omitempty"`
	Line          int                 `json:"line,omitempty"`
}

// Parser reads a lockfile (and optionally its manifest) from fsys and returns
// the dependencies it pins. manifestPath is empty when the source has no
// manifest. Parsers do not fail hard: problems are reported as ParserErrors
// alongside whatever entries could still be read.
type Parser func(fsys fs.FS, lockfilePath, manifestPath string) ([]FoundDependency, []ParserError)

// Lines yields every line of data with its 1-based number, without the line
// terminator. Lines of any length are yielded whole.
func Lines(data []byte) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		n := 0
		for line := range bytes.Lines(data) {
			n++
			text := strings.TrimSuffix(strings.TrimSuffix(string(line), "\n"), "\r")
			if !yield(n, text) {
				return
			}
		}
	}
}

// ReadFile reads path from fsys, converting a failure into a ParserError.
func ReadFile(fsys fs.FS, path string) ([]byte, *ParserError) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, &ParserError{Path: path, Reason: err.Error()}
	}
	return data, nil
}
